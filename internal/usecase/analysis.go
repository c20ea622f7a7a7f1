package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/stylecoach/internal/bodyshape"
	"github.com/example/stylecoach/internal/catalog"
	"github.com/example/stylecoach/internal/landmark"
	"github.com/example/stylecoach/internal/logging"
	"github.com/example/stylecoach/internal/season"
	"github.com/example/stylecoach/internal/session"
	"github.com/example/stylecoach/internal/skin"
)

var (
	// ErrSessionNotFound is returned for unknown, expired or foreign sessions.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidInput marks caller mistakes such as undecodable images or unknown schema names.
	ErrInvalidInput = errors.New("invalid input")
)

// CatalogRepository defines the catalog lookups needed by the use case.
type CatalogRepository interface {
	Find(ctx context.Context, requestID string, kind catalog.Kind, key string) (*catalog.Entry, error)
	List(ctx context.Context, requestID string, kind catalog.Kind) ([]catalog.Entry, error)
}

// Config holds the classifier and session settings.
type Config struct {
	Schema                  bodyshape.Schema
	MinScore                float64
	Policy                  season.Policy
	SampleIndices           []int
	SampleRadius            int
	SessionTTL              time.Duration
	RecommendationCacheSize int
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Schema:                  bodyshape.BlazePose33,
		MinScore:                landmark.DefaultMinScore,
		Policy:                  season.DefaultLabPolicy,
		SampleIndices:           skin.DefaultIndices(),
		SampleRadius:            skin.DefaultRadius,
		SessionTTL:              30 * time.Minute,
		RecommendationCacheSize: 64,
	}
}

// AnalysisUseCase runs the classifiers and drives analysis sessions.
type AnalysisUseCase struct {
	repo            CatalogRepository
	cache           Cache
	estimator       landmark.Estimator
	logger          *zap.Logger
	body            *bodyshape.Classifier
	policy          season.Policy
	sampleIndices   []int
	sampleRadius    int
	sessionTTL      time.Duration
	recommendations *lru.Cache[string, catalog.Entry]
	metrics         *metricsRecorder
	locks           sessionLocks
	now             func() time.Time
	retryAttempts   int
	initialBackoff  time.Duration
	maxBackoff      time.Duration
}

// NewAnalysisUseCase constructs a new use case instance.
func NewAnalysisUseCase(repo CatalogRepository, cache Cache, estimator landmark.Estimator, cfg Config, logger *zap.Logger) (*AnalysisUseCase, error) {
	if cfg.Policy == nil {
		cfg.Policy = season.DefaultLabPolicy
	}
	if len(cfg.SampleIndices) == 0 {
		cfg.SampleIndices = skin.DefaultIndices()
	}
	if cfg.RecommendationCacheSize <= 0 {
		cfg.RecommendationCacheSize = 64
	}
	if err := cfg.Schema.Validate(); err != nil {
		return nil, err
	}

	recommendations, err := lru.New[string, catalog.Entry](cfg.RecommendationCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create recommendation cache: %w", err)
	}

	return &AnalysisUseCase{
		repo:            repo,
		cache:           cache,
		estimator:       estimator,
		logger:          logger.Named("analysis_usecase"),
		body:            bodyshape.NewClassifier(cfg.Schema, bodyshape.WithMinScore(cfg.MinScore)),
		policy:          cfg.Policy,
		sampleIndices:   cfg.SampleIndices,
		sampleRadius:    cfg.SampleRadius,
		sessionTTL:      cfg.SessionTTL,
		recommendations: recommendations,
		metrics:         newMetricsRecorder(),
		now:             func() time.Time { return time.Now().UTC() },
		retryAttempts:   3,
		initialBackoff:  50 * time.Millisecond,
		maxBackoff:      time.Second,
	}, nil
}

// Detection is the landmark and pixel evidence extracted from one frame.
type Detection struct {
	RequestID string
	Estimate  *landmark.Estimate
	Sample    skin.Sample
	Pose      landmark.Validation
}

// ReadyFor reports whether the frame carries enough evidence for the step.
func (d *Detection) ReadyFor(state session.State) bool {
	switch state {
	case session.AwaitingColor:
		return d.Sample.Valid()
	case session.AwaitingBody:
		return d.Pose.OK
	default:
		return false
	}
}

// FrameAnalysis is the outcome of classifying one frame inside a session.
type FrameAnalysis struct {
	RequestID      string           `json:"request_id"`
	Session        *session.Session `json:"session"`
	Advanced       bool             `json:"advanced"`
	Body           bodyshape.Result `json:"body"`
	Color          season.Result    `json:"color"`
	Recommendation *Recommendation  `json:"recommendation,omitempty"`
}

// StartSession creates a session awaiting the colour step.
func (uc *AnalysisUseCase) StartSession(ctx context.Context, viewerID string) (*session.Session, error) {
	requestID := uuid.NewString()
	s := session.New(uuid.NewString(), viewerID, uc.now())
	if err := uc.saveSession(ctx, requestID, s); err != nil {
		logging.WithOperation(uc.logger, "usecase.start_session", requestID).Error("failed to store session", zap.Error(err))
		return nil, err
	}
	uc.metrics.sessionStarted()
	return s, nil
}

// GetSession returns the current snapshot of a session owned by viewerID.
func (uc *AnalysisUseCase) GetSession(ctx context.Context, viewerID, sessionID string) (*session.Session, error) {
	return uc.loadSession(ctx, uuid.NewString(), viewerID, sessionID)
}

// ResetSession clears both results and returns the session to the colour step.
func (uc *AnalysisUseCase) ResetSession(ctx context.Context, viewerID, sessionID string) (*session.Session, error) {
	requestID := uuid.NewString()
	unlock := uc.locks.lock(sessionID)
	defer unlock()

	s, err := uc.loadSession(ctx, requestID, viewerID, sessionID)
	if err != nil {
		return nil, err
	}
	s.Reset(uc.now())
	if err := uc.saveSession(ctx, requestID, s); err != nil {
		return nil, err
	}
	return s, nil
}

// AnalyzeFrame estimates landmarks for an encoded image and applies them to the session.
func (uc *AnalysisUseCase) AnalyzeFrame(ctx context.Context, viewerID, sessionID string, imageBytes []byte) (*FrameAnalysis, error) {
	requestID := uuid.NewString()
	s, err := uc.loadSession(ctx, requestID, viewerID, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Done() {
		return nil, session.ErrSessionComplete
	}

	detection, err := uc.DetectFrame(ctx, requestID, imageBytes)
	if err != nil {
		return nil, err
	}
	return uc.ApplyDetection(ctx, viewerID, sessionID, detection)
}

// DetectFrame decodes the image and queries the landmark estimator concurrently,
// then samples skin and validates the pose landmarks.
func (uc *AnalysisUseCase) DetectFrame(ctx context.Context, requestID string, imageBytes []byte) (*Detection, error) {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	if len(imageBytes) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidInput)
	}

	var (
		img      image.Image
		estimate *landmark.Estimate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		decoded, err := decodeImage(imageBytes)
		if err != nil {
			return err
		}
		img = decoded
		return nil
	})
	g.Go(func() error {
		result, err := uc.estimator.Estimate(gctx, requestID, imageBytes)
		if err != nil {
			return logging.NewOperationError("usecase.estimate_landmarks", requestID, err)
		}
		if result == nil {
			result = &landmark.Estimate{}
		}
		estimate = result
		return nil
	})
	if err := g.Wait(); err != nil {
		logging.WithOperation(uc.logger, "usecase.detect_frame", requestID).Error("frame detection failed", zap.Error(err))
		return nil, err
	}

	bounds := img.Bounds()
	estimate = estimate.ScaledTo(bounds.Dx(), bounds.Dy())

	return &Detection{
		RequestID: requestID,
		Estimate:  estimate,
		Sample:    skin.SampleImage(img, estimate.Face, uc.sampleIndices, uc.sampleRadius),
		Pose:      landmark.Validate(estimate.Pose, uc.body.Schema().Indices(), uc.body.MinScore()),
	}, nil
}

// ApplyDetection classifies a detected frame and advances the session by at most one step.
func (uc *AnalysisUseCase) ApplyDetection(ctx context.Context, viewerID, sessionID string, detection *Detection) (*FrameAnalysis, error) {
	requestID := detection.RequestID
	opLogger := logging.WithOperation(uc.logger, "usecase.apply_detection", requestID)

	unlock := uc.locks.lock(sessionID)
	defer unlock()

	s, err := uc.loadSession(ctx, requestID, viewerID, sessionID)
	if err != nil {
		return nil, err
	}

	body, color := uc.classify(detection)
	uc.metrics.recordFrame(body, color)
	if !body.Resolved() {
		opLogger.Debug("body shape unresolved", zap.String("reason", string(body.Reason)))
	}
	if !color.Resolved() {
		opLogger.Debug("season unresolved", zap.String("reason", string(color.Reason)))
	}

	advanced, err := s.Advance(color, body, uc.now())
	if err != nil {
		return nil, err
	}
	if advanced {
		if err := uc.saveSession(ctx, requestID, s); err != nil {
			opLogger.Error("failed to store session", zap.Error(err))
			return nil, err
		}
		opLogger.Info("session advanced", zap.String("session_id", s.ID), zap.String("state", string(s.State)))
		if s.Done() {
			uc.metrics.sessionCompleted()
		}
	}

	analysis := &FrameAnalysis{
		RequestID: requestID,
		Session:   s,
		Advanced:  advanced,
		Body:      body,
		Color:     color,
	}
	if s.Color != nil || s.Body != nil {
		rec, err := uc.recommendFor(ctx, requestID, s)
		if err != nil {
			opLogger.Warn("failed to load recommendations", zap.Error(err))
		} else {
			analysis.Recommendation = rec
		}
	}
	return analysis, nil
}

// ClassifyBody runs the body-shape classifier on caller-supplied landmarks.
// An empty schema name, or the configured schema's own name, selects the configured schema.
func (uc *AnalysisUseCase) ClassifyBody(ctx context.Context, requestID, schemaName string, pose landmark.Frame) (bodyshape.Result, error) {
	classifier := uc.body
	if schemaName != "" && !strings.EqualFold(strings.TrimSpace(schemaName), uc.body.Schema().Name) {
		schema, err := bodyshape.SchemaByName(schemaName)
		if err != nil {
			return bodyshape.Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		classifier = bodyshape.NewClassifier(schema, bodyshape.WithMinScore(uc.body.MinScore()))
	}

	result := classifier.Classify(pose)
	uc.metrics.recordBody(result)
	if !result.Resolved() {
		logging.WithOperation(uc.logger, "usecase.classify_body", requestID).Debug("body shape unresolved", zap.String("reason", string(result.Reason)))
	}
	return result, nil
}

// ClassifyColor samples skin around the face landmarks of an encoded image and
// runs the seasonal classifier. An empty policy name selects the configured policy.
func (uc *AnalysisUseCase) ClassifyColor(ctx context.Context, requestID string, imageBytes []byte, face landmark.Frame, policyName string) (season.Result, error) {
	policy := uc.policy
	if policyName != "" {
		named, err := season.PolicyByName(policyName)
		if err != nil {
			return season.Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		policy = named
	}

	img, err := decodeImage(imageBytes)
	if err != nil {
		return season.Result{}, err
	}

	result := season.Classify(skin.SampleImage(img, face, uc.sampleIndices, uc.sampleRadius), policy)
	uc.metrics.recordSeason(result)
	if !result.Resolved() {
		logging.WithOperation(uc.logger, "usecase.classify_color", requestID).Debug("season unresolved", zap.String("reason", string(result.Reason)))
	}
	return result, nil
}

func (uc *AnalysisUseCase) classify(detection *Detection) (bodyshape.Result, season.Result) {
	var (
		body  bodyshape.Result
		color season.Result
		g     errgroup.Group
	)
	g.Go(func() error {
		body = uc.body.Classify(detection.Estimate.Pose)
		return nil
	})
	g.Go(func() error {
		color = season.Classify(detection.Sample, uc.policy)
		return nil
	})
	_ = g.Wait()
	return body, color
}

func decodeImage(imageBytes []byte) (image.Image, error) {
	if len(imageBytes) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidInput)
	}
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", ErrInvalidInput, err)
	}
	return img, nil
}

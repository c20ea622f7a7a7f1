package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/stylecoach/internal/auth"
	"github.com/example/stylecoach/internal/bodyshape"
	"github.com/example/stylecoach/internal/catalog"
	"github.com/example/stylecoach/internal/landmark"
	"github.com/example/stylecoach/internal/logging"
	"github.com/example/stylecoach/internal/season"
	"github.com/example/stylecoach/internal/session"
	"github.com/example/stylecoach/internal/usecase"
)

// AnalysisService is the subset of the analysis use case served over HTTP.
type AnalysisService interface {
	StartSession(ctx context.Context, viewerID string) (*session.Session, error)
	GetSession(ctx context.Context, viewerID, sessionID string) (*session.Session, error)
	ResetSession(ctx context.Context, viewerID, sessionID string) (*session.Session, error)
	AnalyzeFrame(ctx context.Context, viewerID, sessionID string, imageBytes []byte) (*usecase.FrameAnalysis, error)
	DetectFrame(ctx context.Context, requestID string, imageBytes []byte) (*usecase.Detection, error)
	ApplyDetection(ctx context.Context, viewerID, sessionID string, detection *usecase.Detection) (*usecase.FrameAnalysis, error)
	ClassifyBody(ctx context.Context, requestID, schemaName string, pose landmark.Frame) (bodyshape.Result, error)
	ClassifyColor(ctx context.Context, requestID string, imageBytes []byte, face landmark.Frame, policyName string) (season.Result, error)
	Recommend(ctx context.Context, requestID string, body bodyshape.Category, tone season.Category) (*usecase.Recommendation, error)
	Catalog(ctx context.Context, requestID string) ([]catalog.Entry, error)
	GetMetricsSummary() *usecase.MetricsSummary
}

// Options tunes the routes that need more than the service.
type Options struct {
	Logger            *zap.Logger
	StreamFPS         float64
	StreamBurst       int
	AutoTriggerFrames int
	AllowedOrigins    []string
}

type handler struct {
	svc    AnalysisService
	logger *zap.Logger
	opts   Options
}

type classifyBodyRequest struct {
	Schema    string         `json:"schema"`
	Keypoints landmark.Frame `json:"keypoints" binding:"required"`
}

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, svc AnalysisService, authMiddleware gin.HandlerFunc, opts Options) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	h := &handler{svc: svc, logger: opts.Logger.Named("http"), opts: opts}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1", authMiddleware)
	v1.POST("/sessions", h.startSession)
	v1.GET("/sessions/:id", h.getSession)
	v1.POST("/sessions/:id/reset", h.resetSession)
	v1.POST("/sessions/:id/frames", h.analyzeFrame)
	v1.GET("/sessions/:id/stream", h.stream)
	v1.POST("/classify/body", h.classifyBody)
	v1.POST("/classify/color", h.classifyColor)
	v1.GET("/recommendations", h.recommendations)
	v1.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.GetMetricsSummary())
	})
}

func (h *handler) startSession(c *gin.Context) {
	viewerID, ok := viewer(c)
	if !ok {
		return
	}
	s, err := h.svc.StartSession(c.Request.Context(), viewerID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *handler) getSession(c *gin.Context) {
	viewerID, ok := viewer(c)
	if !ok {
		return
	}
	s, err := h.svc.GetSession(c.Request.Context(), viewerID, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handler) resetSession(c *gin.Context) {
	viewerID, ok := viewer(c)
	if !ok {
		return
	}
	s, err := h.svc.ResetSession(c.Request.Context(), viewerID, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handler) analyzeFrame(c *gin.Context) {
	viewerID, ok := viewer(c)
	if !ok {
		return
	}
	data, ok := readImage(c, "image")
	if !ok {
		return
	}

	analysis, err := h.svc.AnalyzeFrame(c.Request.Context(), viewerID, c.Param("id"), data)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *handler) classifyBody(c *gin.Context) {
	var req classifyBodyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "keypoints are required"})
		return
	}

	requestID := uuid.NewString()
	result, err := h.svc.ClassifyBody(c.Request.Context(), requestID, req.Schema, req.Keypoints)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request_id": requestID, "result": result})
}

func (h *handler) classifyColor(c *gin.Context) {
	data, ok := readImage(c, "image")
	if !ok {
		return
	}

	var face landmark.Frame
	if err := json.Unmarshal([]byte(c.PostForm("face")), &face); err != nil || len(face) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "face keypoints are required"})
		return
	}

	requestID := uuid.NewString()
	result, err := h.svc.ClassifyColor(c.Request.Context(), requestID, data, face, c.PostForm("policy"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request_id": requestID, "result": result})
}

func (h *handler) recommendations(c *gin.Context) {
	body := bodyshape.Category(strings.ToUpper(strings.TrimSpace(c.Query("body"))))
	tone := season.Category(strings.ToUpper(strings.TrimSpace(c.Query("season"))))

	if body == "" && tone == "" {
		entries, err := h.svc.Catalog(c.Request.Context(), uuid.NewString())
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
		return
	}

	rec, err := h.svc.Recommend(c.Request.Context(), uuid.NewString(), body, tone)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func viewer(c *gin.Context) (string, bool) {
	viewerID, ok := auth.GetViewerID(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return "", false
	}
	return viewerID, true
}

// statusFor maps use-case errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSessionComplete):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	if op, ok := logging.FailedOperation(err); ok && strings.HasPrefix(op, "grpcclient.") {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *handler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status < http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	fields := []zap.Field{zap.Error(err), zap.String("path", c.FullPath())}
	if op, ok := logging.FailedOperation(err); ok {
		fields = append(fields, zap.String("failed_operation", op))
	}
	h.logger.Error("request failed", fields...)
	c.JSON(status, gin.H{"error": http.StatusText(status)})
}

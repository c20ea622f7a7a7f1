package grpcclient

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/example/stylecoach/internal/landmark"
	"github.com/example/stylecoach/internal/logging"
)

// EstimateMethod is the unary RPC exposed by the landmark estimator sidecar. The request
// is the encoded image as a BytesValue; the response is a Struct of the form
// {"width": n, "height": n, "pose": [{"x","y","score"}|null...], "face": [...]}.
const EstimateMethod = "/stylecoach.landmarks.v1.LandmarkEstimator/Estimate"

// RequestIDHeader carries the request id to the estimator.
const RequestIDHeader = "x-request-id"

// DialLandmarkEstimator returns a ready-to-use gRPC client for the estimator service.
func DialLandmarkEstimator(ctx context.Context, addr string, callTimeout time.Duration, logger *zap.Logger, opts ...grpc.DialOption) (landmark.Estimator, *grpc.ClientConn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	}, opts...)
	conn, err := grpc.DialContext(dialCtx, addr, dialOpts...)
	if err != nil {
		wrapped := logging.NewOperationError("grpcclient.dial_landmark_estimator", "", err)
		logger.Error("failed to dial landmark estimator", zap.Error(wrapped), zap.String("addr", addr))
		return nil, nil, wrapped
	}
	return &grpcEstimator{conn: conn, callTimeout: callTimeout, logger: logger}, conn, nil
}

type grpcEstimator struct {
	conn        grpc.ClientConnInterface
	callTimeout time.Duration
	logger      *zap.Logger
}

func (g *grpcEstimator) Estimate(ctx context.Context, requestID string, imageBytes []byte) (*landmark.Estimate, error) {
	if g.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.callTimeout)
		defer cancel()
	}
	ctx = metadata.AppendToOutgoingContext(ctx, RequestIDHeader, requestID)

	resp := &structpb.Struct{}
	if err := g.conn.Invoke(ctx, EstimateMethod, wrapperspb.Bytes(imageBytes), resp); err != nil {
		wrapped := logging.NewOperationError("grpcclient.estimate", requestID, err)
		g.logger.Error("landmark estimator call failed", zap.Error(wrapped))
		return nil, wrapped
	}

	estimate, err := ParseEstimate(resp)
	if err != nil {
		wrapped := logging.NewOperationError("grpcclient.parse_estimate", requestID, err)
		g.logger.Error("landmark estimator returned malformed payload", zap.Error(wrapped))
		return nil, wrapped
	}
	return estimate, nil
}

// ParseEstimate converts the estimator's Struct payload. Null list entries become
// keypoints with NaN coordinates and zero score so they never pass validation or sampling.
func ParseEstimate(s *structpb.Struct) (*landmark.Estimate, error) {
	fields := s.GetFields()
	pose, err := parseFrame(fields["pose"])
	if err != nil {
		return nil, fmt.Errorf("pose: %w", err)
	}
	face, err := parseFrame(fields["face"])
	if err != nil {
		return nil, fmt.Errorf("face: %w", err)
	}
	return &landmark.Estimate{
		Pose:   pose,
		Face:   face,
		Width:  int(fields["width"].GetNumberValue()),
		Height: int(fields["height"].GetNumberValue()),
	}, nil
}

func parseFrame(v *structpb.Value) (landmark.Frame, error) {
	if v == nil {
		return nil, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("expected a list, got %T", v.GetKind())
	}

	frame := make(landmark.Frame, len(list.GetValues()))
	for i, item := range list.GetValues() {
		if _, isNull := item.GetKind().(*structpb.Value_NullValue); isNull {
			frame[i] = landmark.Keypoint{X: math.NaN(), Y: math.NaN()}
			continue
		}
		point := item.GetStructValue()
		if point == nil {
			return nil, fmt.Errorf("keypoint %d: expected an object, got %T", i, item.GetKind())
		}
		kp, err := parseKeypoint(point)
		if err != nil {
			return nil, fmt.Errorf("keypoint %d: %w", i, err)
		}
		frame[i] = kp
	}
	return frame, nil
}

func parseKeypoint(point *structpb.Struct) (landmark.Keypoint, error) {
	fields := point.GetFields()
	x, okX := fields["x"].GetKind().(*structpb.Value_NumberValue)
	y, okY := fields["y"].GetKind().(*structpb.Value_NumberValue)
	if !okX || !okY {
		return landmark.Keypoint{}, fmt.Errorf("x and y must be numbers")
	}
	return landmark.Keypoint{
		X:     x.NumberValue,
		Y:     y.NumberValue,
		Score: fields["score"].GetNumberValue(),
	}, nil
}

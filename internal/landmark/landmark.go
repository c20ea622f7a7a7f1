package landmark

import (
	"context"
	"math"
)

// DefaultMinScore is the confidence a required landmark must reach before any geometry runs on it.
const DefaultMinScore = 0.5

// Reason explains why a classification could not be resolved.
type Reason string

const (
	ReasonNone                  Reason = ""
	ReasonLowConfidence         Reason = "LOW_CONFIDENCE"
	ReasonMissingLandmark       Reason = "MISSING_LANDMARK"
	ReasonDegenerateMeasurement Reason = "DEGENERATE_MEASUREMENT"
	ReasonEmptySample           Reason = "EMPTY_SAMPLE"
)

// Keypoint is a 2-D image-space position with a detection confidence.
type Keypoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score"`
}

// Frame is an ordered keypoint sequence indexed by a fixed pose or face schema.
type Frame []Keypoint

// At returns the keypoint at index i, or false when the frame has no such index.
func (f Frame) At(i int) (Keypoint, bool) {
	if i < 0 || i >= len(f) {
		return Keypoint{}, false
	}
	return f[i], true
}

// Validation is the outcome of checking required landmarks.
type Validation struct {
	OK     bool
	Reason Reason
	// Points holds the resolved keypoints in the order of the requested indices.
	Points []Keypoint
}

// Validate checks that every required index exists in the frame and meets minScore.
// It never fails with an error: an absent index yields MISSING_LANDMARK and a
// score below the threshold (or NaN) yields LOW_CONFIDENCE.
func Validate(frame Frame, indices []int, minScore float64) Validation {
	points := make([]Keypoint, len(indices))
	for i, idx := range indices {
		kp, ok := frame.At(idx)
		if !ok {
			return Validation{Reason: ReasonMissingLandmark}
		}
		points[i] = kp
	}
	for _, kp := range points {
		if !(kp.Score >= minScore) {
			return Validation{Reason: ReasonLowConfidence}
		}
	}
	return Validation{OK: true, Points: points}
}

// Finite reports whether the keypoint has usable coordinates.
func (k Keypoint) Finite() bool {
	return !math.IsNaN(k.X) && !math.IsNaN(k.Y) && !math.IsInf(k.X, 0) && !math.IsInf(k.Y, 0)
}

// Estimate is the landmark set produced for one video frame. Width and Height give
// the pixel space the coordinates are expressed in; zero means the submitted image's.
type Estimate struct {
	Pose   Frame
	Face   Frame
	Width  int
	Height int
}

// ScaledTo returns the estimate with coordinates mapped into a width x height image.
// The receiver is returned unchanged when it has no size or already matches.
func (e *Estimate) ScaledTo(width, height int) *Estimate {
	if e.Width <= 0 || e.Height <= 0 || width <= 0 || height <= 0 || (e.Width == width && e.Height == height) {
		return e
	}
	sx := float64(width) / float64(e.Width)
	sy := float64(height) / float64(e.Height)
	return &Estimate{
		Pose:   e.Pose.scaled(sx, sy),
		Face:   e.Face.scaled(sx, sy),
		Width:  width,
		Height: height,
	}
}

func (f Frame) scaled(sx, sy float64) Frame {
	if f == nil {
		return nil
	}
	out := make(Frame, len(f))
	for i, kp := range f {
		out[i] = Keypoint{X: kp.X * sx, Y: kp.Y * sy, Score: kp.Score}
	}
	return out
}

// Estimator exposes the external pose/face model used by the analysis flow.
type Estimator interface {
	Estimate(ctx context.Context, requestID string, imageBytes []byte) (*Estimate, error)
}

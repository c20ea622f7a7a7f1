// Package bodyshape classifies a body silhouette from 2-D shoulder and hip landmarks.
package bodyshape

import (
	"math"

	"github.com/example/stylecoach/internal/landmark"
)

// Decision thresholds on shoulderWidth/hipWidth and torsoHeight/shoulderWidth.
const (
	invertedTriangleAbove = 1.15
	triangleBelow         = 0.90
	balancedMin           = 0.95
	balancedMax           = 1.05
	hourglassWaistAbove   = 1.20
)

// Measurements are the raw proportions a result was derived from.
type Measurements struct {
	ShoulderWidth    float64 `json:"shoulder_width"`
	HipWidth         float64 `json:"hip_width"`
	TorsoHeight      float64 `json:"torso_height"`
	ShoulderHipRatio float64 `json:"shoulder_hip_ratio"`
	// WaistRatio is only computed inside the balanced band.
	WaistRatio float64 `json:"waist_ratio,omitempty"`
}

// Result is the outcome of one classification.
type Result struct {
	Category     Category        `json:"category"`
	Reason       landmark.Reason `json:"reason,omitempty"`
	Schema       string          `json:"schema"`
	Measurements Measurements    `json:"measurements"`
}

// Resolved reports whether a category was selected.
func (r Result) Resolved() bool {
	return r.Category != Unresolved
}

// Classifier binds a pose schema and a confidence threshold.
type Classifier struct {
	schema   Schema
	minScore float64
}

// Option customises a Classifier.
type Option func(*Classifier)

// WithMinScore overrides the landmark confidence threshold.
func WithMinScore(score float64) Option {
	return func(c *Classifier) {
		c.minScore = score
	}
}

// NewClassifier builds a classifier for the given schema.
func NewClassifier(schema Schema, opts ...Option) *Classifier {
	c := &Classifier{schema: schema, minScore: landmark.DefaultMinScore}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Schema returns the schema the classifier reads landmarks with.
func (c *Classifier) Schema() Schema {
	return c.schema
}

// MinScore returns the landmark confidence threshold.
func (c *Classifier) MinScore() float64 {
	return c.minScore
}

// Classify derives a body-shape category for a single pose frame using the default threshold.
func Classify(frame landmark.Frame, schema Schema) Result {
	return NewClassifier(schema).Classify(frame)
}

// Classify derives a body-shape category. It never fails: low-quality input yields Unresolved
// with a reason code.
func (c *Classifier) Classify(frame landmark.Frame) Result {
	result := Result{Category: Unresolved, Schema: c.schema.Name}

	check := landmark.Validate(frame, c.schema.Indices(), c.minScore)
	if !check.OK {
		result.Reason = check.Reason
		return result
	}
	leftShoulder, rightShoulder := check.Points[0], check.Points[1]
	leftHip, rightHip := check.Points[2], check.Points[3]

	m := Measurements{
		ShoulderWidth: math.Abs(rightShoulder.X - leftShoulder.X),
		HipWidth:      math.Abs(rightHip.X - leftHip.X),
		TorsoHeight: math.Abs((leftHip.Y+rightHip.Y)/2 -
			(leftShoulder.Y+rightShoulder.Y)/2),
	}
	result.Measurements = m

	if m.HipWidth == 0 || m.ShoulderWidth == 0 || !finite(m.ShoulderWidth, m.HipWidth, m.TorsoHeight) {
		result.Reason = landmark.ReasonDegenerateMeasurement
		return result
	}

	m.ShoulderHipRatio = m.ShoulderWidth / m.HipWidth
	result.Category, m.WaistRatio = decide(m.ShoulderHipRatio, m.TorsoHeight, m.ShoulderWidth)
	result.Measurements = m
	return result
}

// decide applies the ordered decision tree. The ranges cover every positive ratio;
// the gaps [0.90, 0.95) and (1.05, 1.15] fall back to Rectangle.
func decide(ratio, torsoHeight, shoulderWidth float64) (Category, float64) {
	switch {
	case ratio > invertedTriangleAbove:
		return InvertedTriangle, 0
	case ratio < triangleBelow:
		return Triangle, 0
	case ratio >= balancedMin && ratio <= balancedMax:
		waist := torsoHeight / shoulderWidth
		if waist > hourglassWaistAbove {
			return Hourglass, waist
		}
		return Rectangle, waist
	default:
		return Rectangle, 0
	}
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

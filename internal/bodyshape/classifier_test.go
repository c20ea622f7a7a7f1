package bodyshape

import (
	"math"
	"reflect"
	"testing"

	"github.com/example/stylecoach/internal/landmark"
)

// poseFrame builds a frame for schema with shoulders spanning shoulderWidth at y=100
// and hips spanning hipWidth at y=100+torso. Every other point has zero confidence.
func poseFrame(schema Schema, shoulderWidth, hipWidth, torso, score float64) landmark.Frame {
	size := 0
	for _, idx := range schema.Indices() {
		if idx+1 > size {
			size = idx + 1
		}
	}
	frame := make(landmark.Frame, size)
	frame[schema.LeftShoulder] = landmark.Keypoint{X: 100, Y: 100, Score: score}
	frame[schema.RightShoulder] = landmark.Keypoint{X: 100 + shoulderWidth, Y: 100, Score: score}
	frame[schema.LeftHip] = landmark.Keypoint{X: 100, Y: 100 + torso, Score: score}
	frame[schema.RightHip] = landmark.Keypoint{X: 100 + hipWidth, Y: 100 + torso, Score: score}
	return frame
}

func TestClassifyScenarios(t *testing.T) {
	tests := []struct {
		name string
		pts  [4]landmark.Keypoint
		want Category
	}{
		{
			name: "broad shoulders",
			pts: [4]landmark.Keypoint{
				{X: 100, Y: 100, Score: 0.9}, {X: 300, Y: 100, Score: 0.9},
				{X: 120, Y: 300, Score: 0.9}, {X: 280, Y: 300, Score: 0.9},
			},
			want: InvertedTriangle,
		},
		{
			name: "broad hips",
			pts: [4]landmark.Keypoint{
				{X: 150, Y: 100, Score: 0.9}, {X: 250, Y: 100, Score: 0.9},
				{X: 100, Y: 300, Score: 0.9}, {X: 300, Y: 300, Score: 0.9},
			},
			want: Triangle,
		},
		{
			name: "balanced with long torso",
			pts: [4]landmark.Keypoint{
				{X: 100, Y: 100, Score: 0.9}, {X: 300, Y: 100, Score: 0.9},
				{X: 100, Y: 360, Score: 0.9}, {X: 300, Y: 360, Score: 0.9},
			},
			want: Hourglass,
		},
		{
			name: "balanced with short torso",
			pts: [4]landmark.Keypoint{
				{X: 100, Y: 100, Score: 0.9}, {X: 300, Y: 100, Score: 0.9},
				{X: 100, Y: 250, Score: 0.9}, {X: 300, Y: 250, Score: 0.9},
			},
			want: Rectangle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := make(landmark.Frame, 33)
			frame[11], frame[12], frame[23], frame[24] = tt.pts[0], tt.pts[1], tt.pts[2], tt.pts[3]

			result := Classify(frame, BlazePose33)
			if result.Category != tt.want {
				t.Fatalf("expected %s, got %s (measurements %+v)", tt.want, result.Category, result.Measurements)
			}
			if result.Reason != landmark.ReasonNone {
				t.Fatalf("expected no reason, got %s", result.Reason)
			}
		})
	}
}

func TestClassifyMeasurements(t *testing.T) {
	result := Classify(poseFrame(BlazePose33, 200, 200, 260, 0.9), BlazePose33)

	want := Measurements{
		ShoulderWidth:    200,
		HipWidth:         200,
		TorsoHeight:      260,
		ShoulderHipRatio: 1,
		WaistRatio:       1.3,
	}
	if result.Measurements != want {
		t.Fatalf("expected %+v, got %+v", want, result.Measurements)
	}
	if result.Schema != BlazePose33.Name {
		t.Fatalf("expected schema %q, got %q", BlazePose33.Name, result.Schema)
	}
}

func TestClassifyRatioBoundaries(t *testing.T) {
	// A torso of 200 pushes every in-band ratio to Hourglass, which separates the
	// balanced band from the Rectangle fallback gaps.
	tests := []struct {
		shoulders float64
		want      Category
	}{
		{shoulders: 89, want: Triangle},
		{shoulders: 90, want: Rectangle},
		{shoulders: 94, want: Rectangle},
		{shoulders: 95, want: Hourglass},
		{shoulders: 100, want: Hourglass},
		{shoulders: 105, want: Hourglass},
		{shoulders: 106, want: Rectangle},
		{shoulders: 115, want: Rectangle},
		{shoulders: 116, want: InvertedTriangle},
	}

	for _, tt := range tests {
		result := Classify(poseFrame(BlazePose33, tt.shoulders, 100, 200, 0.9), BlazePose33)
		if result.Category != tt.want {
			t.Errorf("ratio %.2f: expected %s, got %s", tt.shoulders/100, tt.want, result.Category)
		}
	}
}

func TestClassifyBandWithoutWaistUsesRectangle(t *testing.T) {
	result := Classify(poseFrame(BlazePose33, 100, 100, 120, 0.9), BlazePose33)
	if result.Category != Rectangle {
		t.Fatalf("expected %s, got %s", Rectangle, result.Category)
	}
	if result.Measurements.WaistRatio != 1.2 {
		t.Fatalf("expected waist ratio 1.2, got %v", result.Measurements.WaistRatio)
	}
}

func TestClassifyLowConfidence(t *testing.T) {
	result := Classify(poseFrame(BlazePose33, 200, 160, 200, 0.3), BlazePose33)
	if result.Category != Unresolved {
		t.Fatalf("expected %s, got %s", Unresolved, result.Category)
	}
	if result.Reason != landmark.ReasonLowConfidence {
		t.Fatalf("expected reason %s, got %s", landmark.ReasonLowConfidence, result.Reason)
	}
	if result.Measurements != (Measurements{}) {
		t.Fatalf("expected no measurements, got %+v", result.Measurements)
	}
}

func TestClassifyMissingLandmark(t *testing.T) {
	frame := poseFrame(MoveNet17, 200, 160, 200, 0.9)

	result := Classify(frame, BlazePose33)
	if result.Category != Unresolved || result.Reason != landmark.ReasonMissingLandmark {
		t.Fatalf("expected unresolved missing landmark, got %s/%s", result.Category, result.Reason)
	}
}

func TestClassifyDegenerateMeasurement(t *testing.T) {
	tests := []struct {
		name  string
		frame landmark.Frame
	}{
		{name: "zero hip width", frame: poseFrame(BlazePose33, 200, 0, 200, 0.9)},
		{name: "zero shoulder width", frame: poseFrame(BlazePose33, 0, 200, 200, 0.9)},
		{name: "infinite coordinate", frame: poseFrame(BlazePose33, math.Inf(1), 200, 200, 0.9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(tt.frame, BlazePose33)
			if result.Category != Unresolved {
				t.Fatalf("expected %s, got %s", Unresolved, result.Category)
			}
			if result.Reason != landmark.ReasonDegenerateMeasurement {
				t.Fatalf("expected reason %s, got %s", landmark.ReasonDegenerateMeasurement, result.Reason)
			}
			if math.IsInf(result.Measurements.ShoulderHipRatio, 0) || math.IsNaN(result.Measurements.ShoulderHipRatio) {
				t.Fatalf("ratio must stay finite, got %v", result.Measurements.ShoulderHipRatio)
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	frame := poseFrame(MoveNet17, 130, 100, 180, 0.8)
	classifier := NewClassifier(MoveNet17)

	first := classifier.Classify(frame)
	second := classifier.Classify(frame)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
	if first.Category != InvertedTriangle {
		t.Fatalf("expected %s, got %s", InvertedTriangle, first.Category)
	}
}

func TestClassifierMinScoreOption(t *testing.T) {
	frame := poseFrame(BlazePose33, 200, 160, 200, 0.6)

	strict := NewClassifier(BlazePose33, WithMinScore(0.7))
	if got := strict.Classify(frame); got.Reason != landmark.ReasonLowConfidence {
		t.Fatalf("expected low confidence with strict threshold, got %s/%s", got.Category, got.Reason)
	}
	if got := NewClassifier(BlazePose33).Classify(frame); got.Category != InvertedTriangle {
		t.Fatalf("expected %s with default threshold, got %s", InvertedTriangle, got.Category)
	}
}

func TestOvalIsNeverProduced(t *testing.T) {
	for shoulders := 1.0; shoulders <= 400; shoulders += 3 {
		for _, torso := range []float64{10, 120, 400} {
			result := Classify(poseFrame(BlazePose33, shoulders, 100, torso, 0.9), BlazePose33)
			if result.Category == Oval {
				t.Fatalf("shoulders %v torso %v produced %s", shoulders, torso, Oval)
			}
			if !result.Resolved() {
				t.Fatalf("shoulders %v torso %v unresolved: %s", shoulders, torso, result.Reason)
			}
		}
	}
}

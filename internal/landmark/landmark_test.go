package landmark

import (
	"math"
	"testing"
)

func TestValidate(t *testing.T) {
	frame := Frame{
		{X: 1, Y: 1, Score: 0.9},
		{X: 2, Y: 2, Score: 0.5},
		{X: 3, Y: 3, Score: 0.49},
		{X: 4, Y: 4, Score: math.NaN()},
	}

	tests := []struct {
		name    string
		indices []int
		want    Reason
		wantOK  bool
	}{
		{name: "all confident", indices: []int{0, 1}, wantOK: true},
		{name: "threshold is inclusive", indices: []int{1}, wantOK: true},
		{name: "below threshold", indices: []int{0, 2}, want: ReasonLowConfidence},
		{name: "nan score", indices: []int{3}, want: ReasonLowConfidence},
		{name: "index past end", indices: []int{0, 4}, want: ReasonMissingLandmark},
		{name: "negative index", indices: []int{-1}, want: ReasonMissingLandmark},
		{name: "missing wins over low confidence", indices: []int{2, 9}, want: ReasonMissingLandmark},
		{name: "no indices", indices: nil, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(frame, tt.indices, DefaultMinScore)
			if got.OK != tt.wantOK {
				t.Fatalf("Validate() ok = %v, want %v", got.OK, tt.wantOK)
			}
			if got.Reason != tt.want {
				t.Errorf("Validate() reason = %q, want %q", got.Reason, tt.want)
			}
			if got.OK && len(got.Points) != len(tt.indices) {
				t.Errorf("expected %d points, got %d", len(tt.indices), len(got.Points))
			}
		})
	}
}

func TestValidatePreservesOrder(t *testing.T) {
	frame := Frame{{X: 10, Score: 1}, {X: 20, Score: 1}, {X: 30, Score: 1}}
	got := Validate(frame, []int{2, 0}, DefaultMinScore)
	if !got.OK {
		t.Fatalf("expected validation to pass, got %q", got.Reason)
	}
	if got.Points[0].X != 30 || got.Points[1].X != 10 {
		t.Errorf("points out of order: %+v", got.Points)
	}
}

func TestKeypointFinite(t *testing.T) {
	if !(Keypoint{X: 1, Y: 2}).Finite() {
		t.Error("expected finite keypoint")
	}
	if (Keypoint{X: math.Inf(1)}).Finite() {
		t.Error("expected infinite x to be rejected")
	}
	if (Keypoint{Y: math.NaN()}).Finite() {
		t.Error("expected NaN y to be rejected")
	}
}

func TestEstimateScaledTo(t *testing.T) {
	est := &Estimate{
		Pose:   Frame{{X: 320, Y: 240, Score: 0.8}},
		Face:   Frame{{X: 64, Y: 48, Score: 1}},
		Width:  640,
		Height: 480,
	}

	got := est.ScaledTo(320, 120)
	if got.Width != 320 || got.Height != 120 {
		t.Fatalf("unexpected size %dx%d", got.Width, got.Height)
	}
	if got.Pose[0] != (Keypoint{X: 160, Y: 60, Score: 0.8}) || got.Face[0] != (Keypoint{X: 32, Y: 12, Score: 1}) {
		t.Fatalf("unexpected scaled points %+v %+v", got.Pose, got.Face)
	}
	if est.Pose[0].X != 320 {
		t.Fatal("receiver must not be modified")
	}

	if est.ScaledTo(640, 480) != est {
		t.Fatal("matching size should return the receiver")
	}
	unsized := &Estimate{Face: Frame{{X: 1, Y: 1}}}
	if unsized.ScaledTo(100, 100) != unsized {
		t.Fatal("unsized estimate should be returned unchanged")
	}
}

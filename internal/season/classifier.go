// Package season maps a skin sample to one of four seasonal colour categories.
package season

import (
	"github.com/example/stylecoach/internal/colorspace"
	"github.com/example/stylecoach/internal/landmark"
	"github.com/example/stylecoach/internal/skin"
)

// Category is a warm/cool x light/dark skin-tone class.
type Category string

const (
	SpringWarm Category = "SPRING_WARM"
	SummerCool Category = "SUMMER_COOL"
	AutumnWarm Category = "AUTUMN_WARM"
	WinterCool Category = "WINTER_COOL"
	Unresolved Category = "UNRESOLVED"
)

// Categories lists the four resolvable seasons.
var Categories = []Category{SpringWarm, SummerCool, AutumnWarm, WinterCool}

// Label returns a human-readable name.
func (c Category) Label() string {
	switch c {
	case SpringWarm:
		return "Spring Warm"
	case SummerCool:
		return "Summer Cool"
	case AutumnWarm:
		return "Autumn Warm"
	case WinterCool:
		return "Winter Cool"
	default:
		return "Unresolved"
	}
}

// Valid reports whether c is one of the four seasons.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Features are the colour measurements policies decide on.
type Features struct {
	HSV        colorspace.HSV `json:"hsv"`
	Lab        colorspace.Lab `json:"lab"`
	Brightness float64        `json:"brightness"`
}

// FeaturesOf converts a sample's mean colour.
func FeaturesOf(s skin.Sample) Features {
	return Features{
		HSV:        colorspace.RGBToHSV(s.MeanR, s.MeanG, s.MeanB),
		Lab:        colorspace.RGBToLab(s.MeanR, s.MeanG, s.MeanB),
		Brightness: s.Brightness(),
	}
}

// Result is the outcome of one seasonal classification.
type Result struct {
	Category Category        `json:"category"`
	Reason   landmark.Reason `json:"reason,omitempty"`
	Policy   string          `json:"policy"`
	Warm     bool            `json:"warm"`
	Light    bool            `json:"light"`
	Features Features        `json:"features"`
	Sample   skin.Sample     `json:"sample"`
}

// Resolved reports whether a season was selected.
func (r Result) Resolved() bool {
	return r.Category != Unresolved
}

// Classify applies policy to a sample. A nil policy selects DefaultLabPolicy.
// An empty sample yields Unresolved with EMPTY_SAMPLE; any other sample yields
// exactly one of the four seasons.
func Classify(sample skin.Sample, policy Policy) Result {
	if policy == nil {
		policy = DefaultLabPolicy
	}
	result := Result{Category: Unresolved, Policy: policy.Name(), Sample: sample}
	if !sample.Valid() {
		result.Reason = landmark.ReasonEmptySample
		return result
	}

	f := FeaturesOf(sample)
	result.Features = f
	result.Warm = policy.Warm(f)
	result.Light = policy.Light(f)
	result.Category = combine(result.Warm, result.Light)
	return result
}

func combine(warm, light bool) Category {
	switch {
	case warm && light:
		return SpringWarm
	case light:
		return SummerCool
	case warm:
		return AutumnWarm
	default:
		return WinterCool
	}
}

package season

import (
	"fmt"
	"sort"
	"strings"
)

// Policy decides warm/cool and light/dark from colour features.
type Policy interface {
	Name() string
	Warm(f Features) bool
	Light(f Features) bool
}

// LabPolicy uses calibrated Lab thresholds only.
type LabPolicy struct {
	WarmB  float64
	LightL float64
}

// DefaultLabPolicy is the default policy.
var DefaultLabPolicy = LabPolicy{WarmB: 14.5, LightL: 62}

func (LabPolicy) Name() string { return "lab" }

func (p LabPolicy) Warm(f Features) bool {
	return f.Lab.B > p.WarmB
}

func (p LabPolicy) Light(f Features) bool {
	return f.Lab.L > p.LightL
}

// HybridPolicy combines Lab chroma with hue, brightness and HSV value.
type HybridPolicy struct {
	WarmA       float64
	WarmB       float64
	HueMin      float64
	HueMax      float64
	LightBright float64
	LightValue  float64
}

// DefaultHybridPolicy keeps the earlier hue/Lab rule set.
var DefaultHybridPolicy = HybridPolicy{
	WarmA:       5,
	WarmB:       10,
	HueMin:      10,
	HueMax:      50,
	LightBright: 160,
	LightValue:  0.7,
}

func (HybridPolicy) Name() string { return "hybrid" }

func (p HybridPolicy) Warm(f Features) bool {
	return f.Lab.A > p.WarmA || (f.Lab.B > p.WarmB && f.HSV.H >= p.HueMin && f.HSV.H <= p.HueMax)
}

func (p HybridPolicy) Light(f Features) bool {
	return f.Brightness > p.LightBright || f.HSV.V > p.LightValue
}

var builtinPolicies = map[string]Policy{
	DefaultLabPolicy.Name():    DefaultLabPolicy,
	DefaultHybridPolicy.Name(): DefaultHybridPolicy,
}

// PolicyByName resolves a built-in policy; an empty name selects the Lab policy.
func PolicyByName(name string) (Policy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultLabPolicy, nil
	}
	policy, ok := builtinPolicies[name]
	if !ok {
		return nil, fmt.Errorf("unknown season policy %q (known: %s)", name, strings.Join(PolicyNames(), ", "))
	}
	return policy, nil
}

// PolicyNames lists the built-in policy names.
func PolicyNames() []string {
	names := make([]string, 0, len(builtinPolicies))
	for name := range builtinPolicies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Package colorspace converts 8-bit sRGB values to HSV and CIE L*a*b* (D65).
//
// Seasonal thresholds are calibrated against exactly these formulas, so the
// constants below must not be swapped for a different approximation.
package colorspace

import "math"

// HSV holds hue in degrees [0,360) and saturation/value in [0,1].
type HSV struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

// Lab is a CIE L*a*b* color relative to the D65 white point.
type Lab struct {
	L float64 `json:"l"`
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// D65 reference white.
const (
	whiteX = 0.95047
	whiteY = 1.0
	whiteZ = 1.08883
)

const (
	labEpsilon = 0.008856
	labKappa   = 7.787
	labOffset  = 16.0 / 116.0
)

// RGBToHSV converts channel values in [0,255]. Hue is 0 for greys.
func RGBToHSV(r, g, b float64) HSV {
	r, g, b = r/255, g/255, b/255
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	diff := max - min

	hsv := HSV{V: max}
	if max != 0 {
		hsv.S = diff / max
	}
	if diff == 0 {
		return hsv
	}

	switch max {
	case r:
		hsv.H = 60 * math.Mod((g-b)/diff, 6)
	case g:
		hsv.H = 60 * ((b-r)/diff + 2)
	default:
		hsv.H = 60 * ((r-g)/diff + 4)
	}
	if hsv.H < 0 {
		hsv.H += 360
	}
	return hsv
}

// RGBToLab converts channel values in [0,255] through linear sRGB and XYZ.
func RGBToLab(r, g, b float64) Lab {
	lr, lg, lb := linearize(r/255), linearize(g/255), linearize(b/255)

	x := (lr*0.4124 + lg*0.3576 + lb*0.1805) / whiteX
	y := (lr*0.2126 + lg*0.7152 + lb*0.0722) / whiteY
	z := (lr*0.0193 + lg*0.1192 + lb*0.9505) / whiteZ

	fx, fy, fz := labF(x), labF(y), labF(z)
	return Lab{
		L: 116*fy - 16,
		A: 500 * (fx - fy),
		B: 200 * (fy - fz),
	}
}

func linearize(c float64) float64 {
	if c > 0.04045 {
		return math.Pow((c+0.055)/1.055, 2.4)
	}
	return c / 12.92
}

func labF(t float64) float64 {
	if t > labEpsilon {
		return math.Cbrt(t)
	}
	return labKappa*t + labOffset
}

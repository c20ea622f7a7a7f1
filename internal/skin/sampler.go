// Package skin estimates mean skin reflectance from pixels around facial landmarks.
package skin

import (
	"image"
	"image/color"
	"math"

	"github.com/example/stylecoach/internal/landmark"
)

// DefaultRadius gives a 7x7 neighbourhood per landmark.
const DefaultRadius = 3

// Sampling landmarks in the 468-point face mesh.
var (
	CheekIndices    = []int{50, 101, 118, 119, 280, 330, 347, 348}
	ForeheadIndices = []int{10, 67, 69, 104, 108, 151, 299, 337}
)

// DefaultIndices returns cheeks followed by forehead.
func DefaultIndices() []int {
	indices := make([]int, 0, len(CheekIndices)+len(ForeheadIndices))
	indices = append(indices, CheekIndices...)
	return append(indices, ForeheadIndices...)
}

// Sample is the per-channel mean of every pixel read.
type Sample struct {
	MeanR float64 `json:"mean_r"`
	MeanG float64 `json:"mean_g"`
	MeanB float64 `json:"mean_b"`
	Count int     `json:"sample_count"`
}

// Valid reports whether at least one pixel was read.
func (s Sample) Valid() bool {
	return s.Count > 0
}

// Brightness is the mean of the three channel means.
func (s Sample) Brightness() float64 {
	return (s.MeanR + s.MeanG + s.MeanB) / 3
}

type accumulator struct {
	r, g, b uint64
	count   int
}

func (a *accumulator) add(r, g, b uint8) {
	a.r += uint64(r)
	a.g += uint64(g)
	a.b += uint64(b)
	a.count++
}

func (a accumulator) sample() Sample {
	if a.count == 0 {
		return Sample{}
	}
	n := float64(a.count)
	return Sample{
		MeanR: float64(a.r) / n,
		MeanG: float64(a.g) / n,
		MeanB: float64(a.b) / n,
		Count: a.count,
	}
}

// SampleImage averages the (2*radius+1)^2 square around each listed face landmark,
// clipped to the image bounds. Landmarks absent from the frame or with non-finite
// coordinates are skipped; overlapping squares are counted once per landmark.
// The image must not be written to while sampling.
func SampleImage(img image.Image, face landmark.Frame, indices []int, radius int) Sample {
	if img == nil {
		return Sample{}
	}
	if radius < 0 {
		radius = 0
	}
	bounds := img.Bounds()
	read := pixelReader(img)

	var acc accumulator
	for _, idx := range indices {
		kp, ok := face.At(idx)
		if !ok || !kp.Finite() || !near(kp, bounds, radius) {
			continue
		}
		cx, cy := roundHalfUp(kp.X), roundHalfUp(kp.Y)
		rect := image.Rect(cx-radius, cy-radius, cx+radius+1, cy+radius+1).Intersect(bounds)
		if rect.Empty() {
			continue
		}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				acc.add(read(x, y))
			}
		}
	}
	return acc.sample()
}

// pixelReader returns a non-premultiplied 8-bit reader, reading Pix directly for
// the in-memory formats produced by canvas captures.
func pixelReader(img image.Image) func(x, y int) (uint8, uint8, uint8) {
	switch m := img.(type) {
	case *image.NRGBA:
		return func(x, y int) (uint8, uint8, uint8) {
			off := m.PixOffset(x, y)
			return m.Pix[off], m.Pix[off+1], m.Pix[off+2]
		}
	case *image.RGBA:
		return func(x, y int) (uint8, uint8, uint8) {
			off := m.PixOffset(x, y)
			a := m.Pix[off+3]
			if a == 0xff {
				return m.Pix[off], m.Pix[off+1], m.Pix[off+2]
			}
			c := color.NRGBAModel.Convert(color.RGBA{R: m.Pix[off], G: m.Pix[off+1], B: m.Pix[off+2], A: a}).(color.NRGBA)
			return c.R, c.G, c.B
		}
	default:
		return func(x, y int) (uint8, uint8, uint8) {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			return c.R, c.G, c.B
		}
	}
}

// near reports whether the landmark's square can touch bounds. Coordinates beyond
// that range are rejected before the int conversion, which overflows for huge values.
func near(kp landmark.Keypoint, bounds image.Rectangle, radius int) bool {
	pad := float64(radius + 1)
	return kp.X >= float64(bounds.Min.X)-pad && kp.X <= float64(bounds.Max.X)+pad &&
		kp.Y >= float64(bounds.Min.Y)-pad && kp.Y <= float64(bounds.Max.Y)+pad
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Package catalog holds the built-in styling advice for every body shape and season.
package catalog

import (
	"github.com/example/stylecoach/internal/bodyshape"
	"github.com/example/stylecoach/internal/season"
)

// Kind separates body-shape advice from seasonal colour advice.
type Kind string

const (
	KindBody   Kind = "body"
	KindSeason Kind = "season"
)

// Entry is one block of styling advice.
type Entry struct {
	Kind            Kind     `json:"kind"`
	Key             string   `json:"key"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Recommendations []string `json:"recommendations"`
	Avoid           []string `json:"avoid"`
	Palette         []string `json:"palette,omitempty"`
	ColorNames      []string `json:"color_names,omitempty"`
	Makeup          []string `json:"makeup,omitempty"`
}

var bodyEntries = []Entry{
	{
		Kind:        KindBody,
		Key:         string(bodyshape.InvertedTriangle),
		Name:        bodyshape.InvertedTriangle.Label(),
		Description: "Broad shoulders with narrower hips.",
		Recommendations: []string{
			"V-neck or round-neck tops to soften the shoulder line",
			"A-line skirts and trousers to add volume below the waist",
			"Lighter colours on the lower half to balance the eye",
			"Trousers with hip pockets",
			"Shoulder designs without padding",
		},
		Avoid: []string{"Boat necks", "Puff sleeves", "Shoulder pads"},
	},
	{
		Kind:        KindBody,
		Key:         string(bodyshape.Triangle),
		Name:        bodyshape.Triangle.Label(),
		Description: "Hips wider than the shoulders.",
		Recommendations: []string{
			"Boat necks and off-shoulder tops to widen the shoulder line",
			"Brighter tops to draw the eye upward",
			"Straight or boot-cut trousers",
			"A-line dresses",
			"Tops with detailing",
		},
		Avoid: []string{"Skinny jeans", "Bright bottoms", "Pencil skirts"},
	},
	{
		Kind:        KindBody,
		Key:         string(bodyshape.Rectangle),
		Name:        bodyshape.Rectangle.Label(),
		Description: "Shoulders and hips of similar width.",
		Recommendations: []string{
			"Belts at the waist to define the silhouette",
			"Peplum tops to add curves",
			"Wrap dresses and skirts",
			"Cropped tops with high-waisted bottoms",
			"Layered styling",
		},
		Avoid: []string{"Boxy silhouettes", "Straight shift dresses"},
	},
	{
		Kind:        KindBody,
		Key:         string(bodyshape.Hourglass),
		Name:        bodyshape.Hourglass.Label(),
		Description: "Balanced shoulders and hips with a defined waist.",
		Recommendations: []string{
			"Bodycon dresses that follow the silhouette",
			"Belts that mark the waistline",
			"Wrap-style tops",
			"High-waisted bottoms",
			"Fitted jackets",
		},
		Avoid: []string{"Boxy clothing", "Styles that hide the waist"},
	},
	{
		Kind:        KindBody,
		Key:         string(bodyshape.Oval),
		Name:        bodyshape.Oval.Label(),
		Description: "Volume concentrated through the midsection.",
		Recommendations: []string{
			"V-necks to lengthen the torso",
			"Vertical stripes",
			"Empire-line dresses",
			"Flared bottoms",
			"Long cardigans and jackets",
		},
		Avoid: []string{"Tight clothing", "Horizontal stripes", "Short tops"},
	},
}

var seasonEntries = []Entry{
	{
		Kind:        KindSeason,
		Key:         string(season.SpringWarm),
		Name:        season.SpringWarm.Label(),
		Description: "Bright, fresh warm tones.",
		Palette:     []string{"#FF6B6B", "#FFE66D", "#4ECDC4", "#95E1D3", "#F38181"},
		ColorNames:  []string{"Coral", "Lemon yellow", "Peach", "Ivory", "Salmon pink"},
		Recommendations: []string{
			"Peach, coral and salmon pink",
			"Bright orange and gold",
			"Ivory and camel",
			"Bright turquoise",
		},
		Avoid:  []string{"Black", "Pure white", "Burgundy", "Navy"},
		Makeup: []string{"Peach blush", "Coral lipstick", "Brown eyeshadow"},
	},
	{
		Kind:        KindSeason,
		Key:         string(season.SummerCool),
		Name:        season.SummerCool.Label(),
		Description: "Soft, elegant cool tones.",
		Palette:     []string{"#DDA0DD", "#E6E6FA", "#B0C4DE", "#FFC0CB", "#98D8C8"},
		ColorNames:  []string{"Lavender", "Rose pink", "Sky blue", "Mint", "Grey"},
		Recommendations: []string{
			"Lavender and rose pink",
			"Soft pastel tones",
			"Cool greys",
			"Light blue and mint",
		},
		Avoid:  []string{"Orange", "Mustard", "Khaki", "Gold"},
		Makeup: []string{"Rose blush", "Berry lipstick", "Pink eyeshadow"},
	},
	{
		Kind:        KindSeason,
		Key:         string(season.AutumnWarm),
		Name:        season.AutumnWarm.Label(),
		Description: "Deep, rich warm tones.",
		Palette:     []string{"#D2691E", "#8B4513", "#CD853F", "#DAA520", "#556B2F"},
		ColorNames:  []string{"Burgundy", "Mustard", "Camel", "Brown", "Olive"},
		Recommendations: []string{
			"Mustard, camel and brown",
			"Burgundy and terracotta",
			"Olive green",
			"Gold and bronze",
		},
		Avoid:  []string{"Pastels", "Pure white", "Neon colours"},
		Makeup: []string{"Brick blush", "Brown lipstick", "Gold eyeshadow"},
	},
	{
		Kind:        KindSeason,
		Key:         string(season.WinterCool),
		Name:        season.WinterCool.Label(),
		Description: "Clear, striking cool tones.",
		Palette:     []string{"#000000", "#FFFFFF", "#FF0000", "#0000FF", "#FF00FF"},
		ColorNames:  []string{"Black", "White", "Red", "Royal blue", "Hot pink"},
		Recommendations: []string{
			"Black and white pairings",
			"Vivid red and hot pink",
			"Royal blue and emerald",
			"Silver accessories",
		},
		Avoid:  []string{"Orange", "Beige", "Gold", "Muted colours"},
		Makeup: []string{"Pink blush", "Red lipstick", "Silver eyeshadow"},
	},
}

// Defaults returns a copy of every built-in entry, body shapes first.
func Defaults() []Entry {
	entries := make([]Entry, 0, len(bodyEntries)+len(seasonEntries))
	entries = append(entries, bodyEntries...)
	return append(entries, seasonEntries...)
}

// Body returns the built-in advice for a body-shape category.
func Body(category bodyshape.Category) (Entry, bool) {
	return lookup(bodyEntries, string(category))
}

// Season returns the built-in advice for a seasonal category.
func Season(category season.Category) (Entry, bool) {
	return lookup(seasonEntries, string(category))
}

func lookup(entries []Entry, key string) (Entry, bool) {
	for _, entry := range entries {
		if entry.Key == key {
			return entry, true
		}
	}
	return Entry{}, false
}

package bodyshape

// Category is a body silhouette class.
type Category string

const (
	InvertedTriangle Category = "INVERTED_TRIANGLE"
	Triangle         Category = "TRIANGLE"
	Rectangle        Category = "RECTANGLE"
	Hourglass        Category = "HOURGLASS"
	// Oval is part of the label and recommendation vocabulary but no geometric
	// rule produces it: shoulder and hip landmarks carry no information about
	// midsection volume.
	Oval       Category = "OVAL"
	Unresolved Category = "UNRESOLVED"
)

// Categories lists every resolvable category, including the unreachable Oval.
var Categories = []Category{InvertedTriangle, Triangle, Rectangle, Hourglass, Oval}

// Label returns a human-readable name.
func (c Category) Label() string {
	switch c {
	case InvertedTriangle:
		return "Inverted Triangle"
	case Triangle:
		return "Triangle (Pear)"
	case Rectangle:
		return "Rectangle"
	case Hourglass:
		return "Hourglass"
	case Oval:
		return "Oval"
	default:
		return "Unresolved"
	}
}

// Valid reports whether c names a known category other than Unresolved.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

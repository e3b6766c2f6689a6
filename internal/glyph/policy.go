package glyph

// SizePolicy maps canvas dimensions to a font size as a ratio of the
// smaller canvas side.
type SizePolicy struct {
	Landscape float64
	Portrait  float64
	Narrow    float64
	Medium    float64
	NarrowMax int
	MediumMax int
}

// DefaultSizePolicy returns the stock ratios and breakpoints.
func DefaultSizePolicy() SizePolicy {
	return SizePolicy{
		Landscape: 0.80,
		Portrait:  0.76,
		Narrow:    0.75,
		Medium:    0.78,
		NarrowMax: 480,
		MediumMax: 768,
	}
}

// FontSize returns the font size for a canvas of width x height shown in
// a viewport viewportWidth wide.
func (p SizePolicy) FontSize(width, height, viewportWidth int) float64 {
	if width <= 0 || height <= 0 {
		return 0
	}
	side := min(width, height)
	var ratio float64
	switch {
	case viewportWidth <= p.NarrowMax:
		ratio = p.Narrow
	case viewportWidth <= p.MediumMax:
		ratio = p.Medium
	case width >= height:
		ratio = p.Landscape
	default:
		ratio = p.Portrait
	}
	return float64(side) * ratio
}

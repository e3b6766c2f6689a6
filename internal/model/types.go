// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// Point is a pointer sample in canvas pixel coordinates.
type Point struct {
	X        float64
	Y        float64
	Pressure float64
}

// Stroke is one continuous pointer-down to pointer-up path.
type Stroke []Point

// Box is an axis-aligned rectangle in canvas pixel coordinates.
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Empty reports whether the box has no area.
func (b Box) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Contains reports whether p lies inside the box, edges included.
func (b Box) Contains(p Point) bool {
	return p.X >= b.X && p.X <= b.X+b.Width && p.Y >= b.Y && p.Y <= b.Y+b.Height
}

// Options are the measurement constants of a practice run.
type Options struct {
	CompletionThreshold float64
	BrushSize           float64
	AlphaThreshold      uint8
}

// DefaultOptions returns the stock measurement constants.
func DefaultOptions() Options {
	return Options{
		CompletionThreshold: 0.5,
		BrushSize:           12,
		AlphaThreshold:      50,
	}
}

// Validate checks that the options are usable for measurement.
func (o Options) Validate() error {
	if o.CompletionThreshold <= 0 || o.CompletionThreshold > 1 {
		return fmt.Errorf("completion threshold must be in (0, 1], got %v", o.CompletionThreshold)
	}
	if o.BrushSize <= 0 {
		return fmt.Errorf("brush size must be > 0, got %v", o.BrushSize)
	}
	return nil
}

// PracticeConfig defines practice settings.
type PracticeConfig struct {
	Options

	Char       string
	GlyphsPath string
	Script     string
	DotScale   int

	FocusWeak  bool
	WeakTop    int
	WeakFactor float64
	WeakWindow int
}

// TypefaceConfig defines typeface resolution settings.
type TypefaceConfig struct {
	Priority      []string
	Fallback      string
	Dirs          []string
	Overrides     map[string][]string
	ProbeTimeout  time.Duration
	MinDifference float64
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Glyph       string
	Since       *time.Time
	Last        int
	CurveWindow int
	Glyphs      string
}

// Attempt captures one practice session on a single glyph.
type Attempt struct {
	UUID       string
	StartedAt  time.Time
	EndedAt    time.Time
	Glyph      string
	Typeface   string
	Strokes    int
	GlyphInk   int
	CoveredInk int
	Coverage   float64
	Completed  bool
	Threshold  float64
	BrushSize  float64
	DurationMs int64

	// Progress holds the coverage after each finalized stroke.
	Progress []float64
}

// Aggregated per-glyph stats for selection or reporting.

// GlyphAggregate aggregates attempts on one glyph.
type GlyphAggregate struct {
	Glyph         string
	Attempts      int
	Completions   int
	CoverageSum   float64
	StrokeSum     int
	DurationSumMs int64
	LastAt        time.Time
}

// AttemptAggregate summarizes an attempt for reporting.
type AttemptAggregate struct {
	AttemptID  int64
	EndedAt    time.Time
	Glyph      string
	Coverage   float64
	Completed  bool
	Strokes    int
	DurationMs int64
}

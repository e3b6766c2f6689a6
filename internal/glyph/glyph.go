// Package glyph renders a practice glyph and derives the ink mask that
// coverage is measured against. Display and mask share one placement.
package glyph

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/gogpu/gg/text"

	"github.com/verte-zerg/tuitrace/internal/logging"
	"github.com/verte-zerg/tuitrace/internal/model"
	"github.com/verte-zerg/tuitrace/internal/typeface"
)

var (
	// ErrEmptyGlyph is returned when there is nothing to place.
	ErrEmptyGlyph = errors.New("glyph is empty")
	// ErrEmptyCanvas is returned for a canvas without area.
	ErrEmptyCanvas = errors.New("canvas has no area")
)

// Resolver picks a typeface name for a glyph.
type Resolver interface {
	Resolve(ctx context.Context, glyph string) typeface.Choice
}

// Loader turns typeface names into parsed typefaces.
type Loader interface {
	Get(ctx context.Context, name string) (*typeface.Typeface, error)
	Fallback() *typeface.Typeface
}

// Canvas describes the drawing surface in pixels.
type Canvas struct {
	Width         int
	Height        int
	ViewportWidth int
}

// Rasterizer places glyphs on a canvas.
type Rasterizer struct {
	resolver Resolver
	loader   Loader
	policy   SizePolicy
}

// NewRasterizer creates a rasterizer using the default size policy.
func NewRasterizer(resolver Resolver, loader Loader) *Rasterizer {
	return &Rasterizer{resolver: resolver, loader: loader, policy: DefaultSizePolicy()}
}

// WithPolicy returns a copy using policy.
func (r *Rasterizer) WithPolicy(policy SizePolicy) *Rasterizer {
	cp := *r
	cp.policy = policy
	return &cp
}

// Place resolves the typeface for s and centres it on the canvas.
func (r *Rasterizer) Place(ctx context.Context, s string, c Canvas) (*Target, error) {
	if s == "" {
		return nil, ErrEmptyGlyph
	}
	size := r.policy.FontSize(c.Width, c.Height, c.ViewportWidth)
	if size <= 0 {
		return nil, ErrEmptyCanvas
	}

	choice := r.resolver.Resolve(ctx, s)
	tf, err := r.loader.Get(ctx, choice.Name)
	if err != nil {
		logging.L().Warn("typeface unavailable, using fallback", "name", choice.Name, "err", err)
		tf = r.loader.Fallback()
	}
	if tf == nil || tf.Source == nil {
		return nil, fmt.Errorf("no typeface for %q", s)
	}
	return NewTarget(s, tf.Name, tf.Source.Face(size), c), nil
}

// Target is a glyph placed on a canvas.
type Target struct {
	Text     string
	Typeface string
	Face     text.Face
	Size     float64
	Center   model.Point
	Box      model.Box

	originX  float64
	baseline float64
}

// NewTarget centres s rendered with face on canvas c. The box spans the
// advance horizontally and the font size vertically.
func NewTarget(s, typefaceName string, face text.Face, c Canvas) *Target {
	size := face.Size()
	advance := face.Advance(s)
	m := face.Metrics()
	cx := float64(c.Width) / 2
	cy := float64(c.Height) / 2
	return &Target{
		Text:     s,
		Typeface: typefaceName,
		Face:     face,
		Size:     size,
		Center:   model.Point{X: cx, Y: cy},
		Box: model.Box{
			X:      cx - advance/2,
			Y:      cy - size/2,
			Width:  advance,
			Height: size,
		},
		originX:  cx - advance/2,
		baseline: cy + (m.Ascent-m.Descent)/2,
	}
}

// Draw renders the glyph into dst in canvas coordinates.
func (t *Target) Draw(dst draw.Image, col color.Color) {
	text.Draw(dst, t.Text, t.Face, t.originX, t.baseline, col)
}

// Contains reports whether p falls inside the glyph box.
func (t *Target) Contains(p model.Point) bool {
	if t == nil {
		return false
	}
	return t.Box.Contains(p)
}

// Mask rasterizes the glyph into an alpha image covering the box grown by
// pad pixels on every side.
func (t *Target) Mask(pad int) *Mask {
	if t == nil || t.Box.Empty() {
		return nil
	}
	if pad < 0 {
		pad = 0
	}
	frame := image.Rect(
		int(math.Floor(t.Box.X))-pad,
		int(math.Floor(t.Box.Y))-pad,
		int(math.Ceil(t.Box.X+t.Box.Width))+pad,
		int(math.Ceil(t.Box.Y+t.Box.Height))+pad,
	)
	alpha := image.NewAlpha(frame)
	t.Draw(alpha, color.Opaque)
	return &Mask{Frame: frame, Alpha: alpha}
}

// Mask is the rasterized ink of a glyph. Alpha bounds equal Frame.
type Mask struct {
	Frame image.Rectangle
	Alpha *image.Alpha
}

// Ink counts the pixels whose alpha exceeds threshold.
func (m *Mask) Ink(threshold uint8) int {
	if m == nil || m.Alpha == nil {
		return 0
	}
	n := 0
	for y := m.Frame.Min.Y; y < m.Frame.Max.Y; y++ {
		row := m.Alpha.Pix[m.Alpha.PixOffset(m.Frame.Min.X, y):]
		for x := 0; x < m.Frame.Dx(); x++ {
			if row[x] > threshold {
				n++
			}
		}
	}
	return n
}

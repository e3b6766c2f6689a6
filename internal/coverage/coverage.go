// Package coverage measures how much of a glyph's ink the user's strokes
// cover.
//
// The ratio is |strokeInk ∩ glyphInk| / |glyphInk| over the glyph mask's
// frame. Strokes are rendered with the brush width and round caps and
// joins; a pixel counts as ink when its alpha exceeds the threshold.
package coverage

import (
	"image"
	"image/draw"
	"math"

	"github.com/gogpu/gg"

	"github.com/verte-zerg/tuitrace/internal/glyph"
	"github.com/verte-zerg/tuitrace/internal/logging"
	"github.com/verte-zerg/tuitrace/internal/model"
)

// Result is one coverage measurement.
type Result struct {
	GlyphInk   int
	CoveredInk int
	Ratio      float64
}

// Engine renders strokes and compares them with glyph masks.
type Engine struct {
	brush   float64
	alpha   uint8
	padding int
}

// New creates an engine from the measurement options.
func New(opts model.Options) *Engine {
	brush := opts.BrushSize
	if brush <= 0 {
		brush = model.DefaultOptions().BrushSize
	}
	return &Engine{
		brush:   brush,
		alpha:   opts.AlphaThreshold,
		padding: int(math.Ceil(brush)),
	}
}

// Padding is the margin added around the glyph box when rasterizing its
// mask.
func (e *Engine) Padding() int { return e.padding }

// BrushSize returns the stroke width in pixels.
func (e *Engine) BrushSize() float64 { return e.brush }

// AlphaThreshold returns the ink threshold.
func (e *Engine) AlphaThreshold() uint8 { return e.alpha }

// Measure compares strokes with mask. A nil mask measures as zero.
func (e *Engine) Measure(mask *glyph.Mask, strokes []model.Stroke) Result {
	if mask == nil || mask.Alpha == nil || mask.Frame.Empty() {
		return Result{}
	}
	buf := e.RenderStrokes(mask.Frame, strokes)
	ink, covered := Count(mask.Alpha, buf, e.alpha)
	res := Result{GlyphInk: ink, CoveredInk: covered, Ratio: Ratio(covered, ink)}
	logging.L().Debug("coverage measured",
		"strokes", len(strokes),
		"glyph_ink", res.GlyphInk,
		"covered_ink", res.CoveredInk,
		"ratio", res.Ratio,
	)
	return res
}

// RenderStrokes draws strokes into an alpha image with bounds frame.
// Single-point strokes become dots of the brush diameter.
func (e *Engine) RenderStrokes(frame image.Rectangle, strokes []model.Stroke) *image.Alpha {
	out := image.NewAlpha(frame)
	if frame.Empty() || len(strokes) == 0 {
		return out
	}

	dc := gg.NewContext(frame.Dx(), frame.Dy())
	defer func() {
		// Best-effort release.
		_ = dc.Close()
	}()
	dc.Translate(-float64(frame.Min.X), -float64(frame.Min.Y))
	dc.SetRGBA(0, 0, 0, 1)
	dc.SetLineWidth(e.brush)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	drawn := false
	for _, s := range strokes {
		switch len(s) {
		case 0:
			continue
		case 1:
			dc.DrawCircle(s[0].X, s[0].Y, e.brush/2)
			if err := dc.Fill(); err != nil {
				logging.L().Warn("stroke dot fill failed", "err", err)
				continue
			}
		default:
			dc.MoveTo(s[0].X, s[0].Y)
			for _, p := range s[1:] {
				dc.LineTo(p.X, p.Y)
			}
			if err := dc.Stroke(); err != nil {
				logging.L().Warn("stroke render failed", "err", err)
				continue
			}
		}
		drawn = true
	}
	if !drawn {
		return out
	}
	_ = dc.FlushGPU()
	draw.Draw(out, frame, dc.Image(), image.Point{}, draw.Src)
	return out
}

// Count returns the glyph ink and the part of it the strokes cover. Both
// images must share bounds; pixels outside the glyph's bounds are ignored.
func Count(glyphInk, strokes *image.Alpha, threshold uint8) (ink, covered int) {
	if glyphInk == nil {
		return 0, 0
	}
	b := glyphInk.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if glyphInk.AlphaAt(x, y).A <= threshold {
				continue
			}
			ink++
			if strokes != nil && strokes.AlphaAt(x, y).A > threshold {
				covered++
			}
		}
	}
	return ink, covered
}

// Ratio returns covered/ink clamped to [0,1]; zero ink gives 0.
func Ratio(covered, ink int) float64 {
	if ink <= 0 || covered <= 0 {
		return 0
	}
	return math.Min(float64(covered)/float64(ink), 1)
}

// Probe measures strokes against one placed glyph, re-rasterizing the
// glyph mask on every call.
type Probe struct {
	engine *Engine
	target *glyph.Target
}

// Bind returns a probe for target. A nil target always measures zero.
func (e *Engine) Bind(target *glyph.Target) *Probe {
	return &Probe{engine: e, target: target}
}

// Target returns the bound glyph.
func (p *Probe) Target() *glyph.Target { return p.target }

// Measure implements the session meter.
func (p *Probe) Measure(strokes []model.Stroke) Result {
	if p == nil || p.target == nil {
		return Result{}
	}
	return p.engine.Measure(p.target.Mask(p.engine.padding), strokes)
}

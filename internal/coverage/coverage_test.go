package coverage

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuitrace/internal/glyph"
	"github.com/verte-zerg/tuitrace/internal/model"
	"github.com/verte-zerg/tuitrace/internal/typeface"
)

func fillRect(img *image.Alpha, r image.Rectangle, a uint8) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Pix[img.PixOffset(x, y)] = a
		}
	}
}

func blockMask(frame, ink image.Rectangle) *glyph.Mask {
	alpha := image.NewAlpha(frame)
	fillRect(alpha, ink, 255)
	return &glyph.Mask{Frame: frame, Alpha: alpha}
}

// hatch returns horizontal strokes spaced to leave no gaps for brush.
func hatch(r image.Rectangle, brush float64) []model.Stroke {
	var out []model.Stroke
	step := brush / 2
	for y := float64(r.Min.Y); y <= float64(r.Max.Y); y += step {
		out = append(out, model.Stroke{
			{X: float64(r.Min.X), Y: y},
			{X: float64(r.Max.X), Y: y},
		})
	}
	return out
}

func TestCountScenarios(t *testing.T) {
	frame := image.Rect(0, 0, 10, 10)
	cases := []struct {
		name    string
		glyph   image.Rectangle
		strokes image.Rectangle
		ink     int
		covered int
		ratio   float64
	}{
		{"full cover", frame, frame, 100, 100, 1},
		{"half cover", frame, image.Rect(0, 0, 5, 10), 100, 50, 0.5},
		{"stroke outside ink", image.Rect(0, 0, 5, 5), image.Rect(5, 5, 10, 10), 25, 0, 0},
		{"zero ink", image.Rectangle{}, frame, 0, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := image.NewAlpha(frame)
			fillRect(g, tc.glyph, 255)
			s := image.NewAlpha(frame)
			fillRect(s, tc.strokes, 255)

			ink, covered := Count(g, s, 50)
			assert.Equal(t, tc.ink, ink)
			assert.Equal(t, tc.covered, covered)
			assert.InDelta(t, tc.ratio, Ratio(covered, ink), 1e-9)
		})
	}
}

func TestCountThresholdIsStrict(t *testing.T) {
	frame := image.Rect(0, 0, 2, 1)
	g := image.NewAlpha(frame)
	g.Pix[0], g.Pix[1] = 50, 51
	s := image.NewAlpha(frame)
	s.Pix[0], s.Pix[1] = 255, 50
	ink, covered := Count(g, s, 50)
	assert.Equal(t, 1, ink)
	assert.Equal(t, 0, covered)
}

func TestRatioBounds(t *testing.T) {
	assert.Zero(t, Ratio(5, 0))
	assert.Zero(t, Ratio(0, 10))
	assert.Equal(t, 1.0, Ratio(12, 10))
	assert.InDelta(t, 0.3, Ratio(3, 10), 1e-9)
}

func TestRenderStrokes(t *testing.T) {
	e := New(model.DefaultOptions())
	frame := image.Rect(100, 100, 140, 140)
	buf := e.RenderStrokes(frame, []model.Stroke{
		{{X: 100, Y: 120}, {X: 140, Y: 120}},
		{{X: 110, Y: 105}},
	})
	require.Equal(t, frame, buf.Bounds())
	assert.Greater(t, buf.AlphaAt(120, 120).A, uint8(200))
	assert.Zero(t, buf.AlphaAt(120, 135).A)
	assert.Greater(t, buf.AlphaAt(110, 105).A, uint8(200), "single point renders as a dot")
	assert.Zero(t, buf.AlphaAt(130, 105).A)
}

func TestRenderStrokesEmpty(t *testing.T) {
	e := New(model.DefaultOptions())
	frame := image.Rect(0, 0, 8, 8)
	buf := e.RenderStrokes(frame, []model.Stroke{{}})
	for _, a := range buf.Pix {
		require.Zero(t, a)
	}
}

func TestMeasure(t *testing.T) {
	e := New(model.DefaultOptions())
	frame := image.Rect(0, 0, 60, 60)
	ink := image.Rect(20, 20, 40, 40)
	mask := blockMask(frame, ink)

	t.Run("nil mask", func(t *testing.T) {
		assert.Equal(t, Result{}, e.Measure(nil, hatch(frame, 12)))
	})
	t.Run("no strokes", func(t *testing.T) {
		res := e.Measure(mask, nil)
		assert.Equal(t, 400, res.GlyphInk)
		assert.Zero(t, res.Ratio)
	})
	t.Run("outside", func(t *testing.T) {
		res := e.Measure(mask, []model.Stroke{{{X: 2, Y: 2}, {X: 10, Y: 2}}})
		assert.Zero(t, res.CoveredInk)
		assert.Zero(t, res.Ratio)
	})
	t.Run("full", func(t *testing.T) {
		res := e.Measure(mask, hatch(frame, 12))
		assert.Equal(t, 400, res.CoveredInk)
		assert.Equal(t, 1.0, res.Ratio)
	})
	t.Run("left half", func(t *testing.T) {
		res := e.Measure(mask, hatch(image.Rect(0, 0, 24, 60), 12))
		assert.Greater(t, res.Ratio, 0.2)
		assert.Less(t, res.Ratio, 0.8)
	})
}

func TestMeasureMonotonicAndBounded(t *testing.T) {
	e := New(model.DefaultOptions())
	frame := image.Rect(0, 0, 60, 60)
	mask := blockMask(frame, image.Rect(10, 10, 50, 50))

	all := hatch(frame, 12)
	prev := 0.0
	for i := 1; i <= len(all); i++ {
		res := e.Measure(mask, all[:i])
		require.GreaterOrEqual(t, res.Ratio, prev)
		require.LessOrEqual(t, res.Ratio, 1.0)
		require.LessOrEqual(t, res.CoveredInk, res.GlyphInk)
		prev = res.Ratio
	}
	assert.Equal(t, 1.0, prev)
}

func TestMeasureIsDeterministic(t *testing.T) {
	e := New(model.DefaultOptions())
	frame := image.Rect(0, 0, 60, 60)
	mask := blockMask(frame, image.Rect(10, 10, 50, 50))
	strokes := []model.Stroke{{{X: 5, Y: 5}, {X: 55, Y: 40}, {X: 30, Y: 58}}}
	assert.Equal(t, e.Measure(mask, strokes), e.Measure(mask, strokes))
}

type fallbackResolver struct{}

func (fallbackResolver) Resolve(context.Context, string) typeface.Choice {
	return typeface.Choice{Name: typeface.FallbackName, Fallback: true}
}

func TestProbeAgainstPlacedGlyph(t *testing.T) {
	lib, err := typeface.NewLibrary(nil, typeface.WithSystemLookup(nil, nil))
	require.NoError(t, err)
	r := glyph.NewRasterizer(fallbackResolver{}, lib)
	target, err := r.Place(context.Background(), "H", glyph.Canvas{Width: 120, Height: 120, ViewportWidth: 1000})
	require.NoError(t, err)

	e := New(model.DefaultOptions())
	probe := e.Bind(target)
	assert.Same(t, target, probe.Target())

	empty := probe.Measure(nil)
	assert.Greater(t, empty.GlyphInk, 0)
	assert.Zero(t, empty.Ratio)

	frame := target.Mask(e.Padding()).Frame
	full := probe.Measure(hatch(frame, e.BrushSize()))
	assert.Equal(t, 1.0, full.Ratio)
	assert.Equal(t, empty.GlyphInk, full.GlyphInk)

	assert.Equal(t, Result{}, e.Bind(nil).Measure(hatch(frame, 12)))
}

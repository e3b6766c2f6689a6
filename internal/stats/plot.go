// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/verte-zerg/tuitrace/internal/canvas"
)

// Series represents a named data series for plotting. Percent series are
// drawn on a fixed 0-100 scale; others are scaled to their own range.
type Series struct {
	Name    string
	Values  []float64
	Percent bool
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisLabelTop        = "100%"
	axisLabelMid        = "50%"
	axisLabelBottom     = "0%"
	axisSeparator       = " │ "
	scaleNote           = "Percent series use 0-100%; others are scaled per series."
	terminalWidthBackup = 80
)

// dash patterns keep overlapping series apart without colour.
var dashes = []struct {
	name   string
	period int
	on     int
}{
	{"solid", 1, 1},
	{"dashed", 6, 3},
	{"dotted", 4, 1},
	{"dashdot", 8, 3},
}

var palette = []lipgloss.Color{"6", "5", "3", "2", "4"}

type valueRange struct {
	lo float64
	hi float64
}

// dot maps v to a dot row, 0 at the top.
func (r valueRange) dot(v float64, rows int) int {
	if rows <= 1 {
		return 0
	}
	pos := (v - r.lo) / (r.hi - r.lo)
	row := int(math.Round((1 - pos) * float64(rows-1)))
	return min(max(row, 0), rows-1)
}

type plot struct {
	width  int
	height int
	series []Series
	ranges []valueRange
	layers []*canvas.Grid
}

// PlotSeries renders a multi-line text plot for the provided series.
func PlotSeries(w io.Writer, title string, series []Series, width, height int) error {
	return plotSeries(w, title, series, width, height, false)
}

// PlotSeriesWithColor renders a multi-line text plot with optional forced color output.
func PlotSeriesWithColor(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	return plotSeries(w, title, series, width, height, forceColor)
}

func plotSeries(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	var kept []Series
	for _, s := range series {
		if len(s.Values) > 0 {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	p := newPlot(kept, max(width, minPlotWidth), height)
	p.draw()
	return p.write(w, title, newPainter(w, forceColor))
}

func newPlot(series []Series, width, height int) *plot {
	p := &plot{width: width, height: height}
	for _, s := range series {
		s.Values = resampleSeries(s.Values, width)
		p.series = append(p.series, s)
		p.ranges = append(p.ranges, rangeOf(s))
		p.layers = append(p.layers, canvas.NewGrid(width, height))
	}
	return p
}

func rangeOf(s Series) valueRange {
	if s.Percent {
		return valueRange{lo: 0, hi: 100}
	}
	r := valueRange{lo: math.Inf(1), hi: math.Inf(-1)}
	for _, v := range s.Values {
		r.lo = min(r.lo, v)
		r.hi = max(r.hi, v)
	}
	if math.Abs(r.hi-r.lo) < 1e-9 {
		r.lo--
		r.hi++
	}
	return r
}

// draw traces every series into its own layer, one column per value.
func (p *plot) draw() {
	rows := p.height * 4
	for i, s := range p.series {
		d := dashes[i%len(dashes)]
		layer := p.layers[i]
		set := func(x, y int) {
			if d.period <= 1 || x%d.period < d.on {
				layer.Set(x, y)
			}
		}
		for x, v := range s.Values {
			px, py := x*2, p.ranges[i].dot(v, rows)
			if x == 0 {
				set(px, py)
				continue
			}
			prev := (x - 1) * 2
			canvas.DrawLine(prev, p.ranges[i].dot(s.Values[x-1], rows), px, py, set)
		}
	}
}

// cell merges the layers at (x, y). The owner is the first layer with a
// dot there, or -1.
func (p *plot) cell(x, y int) (mask uint8, owner int) {
	owner = -1
	for i, layer := range p.layers {
		m := layer.Mask(x, y)
		if m == 0 {
			continue
		}
		if owner < 0 {
			owner = i
		}
		mask |= m
	}
	return mask, owner
}

func (p *plot) write(w io.Writer, title string, paint func(int, string) string) error {
	var b strings.Builder
	if title != "" {
		b.WriteString(title + "\n")
	}
	b.WriteString(scaleNote + "\n")
	for i, s := range p.series {
		fmt.Fprintf(&b, "%s: min=%.2f max=%.2f\n", s.Name, p.ranges[i].lo, p.ranges[i].hi)
	}
	labels := axisLabels(p.height)
	for y := 0; y < p.height; y++ {
		fmt.Fprintf(&b, "%*s%s", len(axisLabelTop), labels[y], axisSeparator)
		var run strings.Builder
		runOwner := -1
		for x := 0; x < p.width; x++ {
			mask, owner := p.cell(x, y)
			if owner != runOwner && run.Len() > 0 {
				b.WriteString(paint(runOwner, run.String()))
				run.Reset()
			}
			runOwner = owner
			run.WriteRune(canvas.Rune(mask))
		}
		b.WriteString(paint(runOwner, run.String()))
		b.WriteByte('\n')
	}

	legend := make([]string, len(p.series))
	for i, s := range p.series {
		legend[i] = paint(i, fmt.Sprintf("%c %s (%s)", canvas.Rune(0x01), s.Name, dashes[i%len(dashes)].name))
	}
	b.WriteString("Legend: " + strings.Join(legend, "  ") + "\n\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// newPainter colours text by series index. Without colour it is the
// identity.
func newPainter(w io.Writer, force bool) func(int, string) string {
	if !shouldUseColor(w, force) {
		return func(_ int, s string) string { return s }
	}
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.ANSI)
	styles := make([]lipgloss.Style, len(palette))
	for i, c := range palette {
		styles[i] = r.NewStyle().Foreground(c)
	}
	return func(i int, s string) string {
		if i < 0 {
			return s
		}
		return styles[i%len(styles)].Render(s)
	}
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	axisWidth := utf8.RuneCountInString(axisLabelTop) + utf8.RuneCountInString(axisSeparator)
	return max(totalWidth-axisWidth, minPlotWidth)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

func axisLabels(height int) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = axisLabelTop
	if height > 2 {
		labels[height/2] = axisLabelMid
	}
	if height > 1 {
		labels[height-1] = axisLabelBottom
	}
	return labels
}

// resampleSeries fits values to width points: buckets are averaged when
// shrinking and linearly interpolated when stretching.
func resampleSeries(values []float64, width int) []float64 {
	n := len(values)
	if n == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	switch {
	case n == width:
		copy(out, values)
	case n > width:
		for i := range out {
			start := i * n / width
			end := max((i+1)*n/width, start+1)
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case n == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		step := float64(n-1) / float64(width-1)
		for i := range out {
			pos := float64(i) * step
			idx := int(pos)
			if idx >= n-1 {
				out[i] = values[n-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

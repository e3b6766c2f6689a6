// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/tuitrace/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Summary holds headline numbers over a set of attempts.
type Summary struct {
	Attempts     int
	Completions  int
	Glyphs       int
	AvgCoverage  float64
	BestCoverage float64
	AvgDuration  time.Duration
	AvgStrokes   float64
}

// CompletionRate is the share of completed attempts.
func (s Summary) CompletionRate() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Completions) / float64(s.Attempts)
}

// Summarize computes the headline numbers for attempts.
func Summarize(attempts []model.AttemptAggregate) Summary {
	if len(attempts) == 0 {
		return Summary{}
	}
	var sum Summary
	var coverage float64
	var duration int64
	var strokes int
	glyphs := map[string]struct{}{}
	for _, a := range attempts {
		sum.Attempts++
		if a.Completed {
			sum.Completions++
		}
		coverage += a.Coverage
		if a.Coverage > sum.BestCoverage {
			sum.BestCoverage = a.Coverage
		}
		duration += a.DurationMs
		strokes += a.Strokes
		glyphs[a.Glyph] = struct{}{}
	}
	count := float64(len(attempts))
	sum.Glyphs = len(glyphs)
	sum.AvgCoverage = coverage / count
	sum.AvgDuration = time.Duration(float64(duration)/count) * time.Millisecond
	sum.AvgStrokes = float64(strokes) / count
	return sum
}

// GlyphMetrics derives completion rate, mean coverage and mean time for a
// glyph aggregate.
func GlyphMetrics(agg model.GlyphAggregate) (completion, avgCoverage float64, avgDuration time.Duration) {
	if agg.Attempts <= 0 {
		return 0, 0, 0
	}
	n := float64(agg.Attempts)
	completion = float64(agg.Completions) / n
	avgCoverage = agg.CoverageSum / n
	avgDuration = time.Duration(float64(agg.DurationSumMs)/n) * time.Millisecond
	return completion, avgCoverage, avgDuration
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for values in [0,1].
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	var b strings.Builder
	for _, v := range values {
		v = math.Max(0, math.Min(1, v))
		idx := int(math.Round(v * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints a summary block for attempts.
func RenderSummary(w io.Writer, attempts []model.AttemptAggregate) error {
	if len(attempts) == 0 {
		_, err := fmt.Fprintln(w, "No attempts found.")
		return err
	}
	sum := Summarize(attempts)
	lines := []string{
		"Summary",
		fmt.Sprintf("Attempts: %d", sum.Attempts),
		fmt.Sprintf("Glyphs: %d", sum.Glyphs),
		fmt.Sprintf("Completed: %d (%.1f%%)", sum.Completions, sum.CompletionRate()*100),
		fmt.Sprintf("Avg Coverage: %.1f%%", sum.AvgCoverage*100),
		fmt.Sprintf("Best Coverage: %.1f%%", sum.BestCoverage*100),
		fmt.Sprintf("Avg Strokes: %.1f", sum.AvgStrokes),
		fmt.Sprintf("Avg Time: %s", sum.AvgDuration.Round(100*time.Millisecond)),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurves prints learning curves for coverage and completion.
func RenderCurves(w io.Writer, attempts []model.AttemptAggregate, window int) error {
	return RenderCurvesWithSize(w, attempts, window, 0, 10, false)
}

// RenderCurvesWithSize prints learning curves sized to a given total width.
func RenderCurvesWithSize(w io.Writer, attempts []model.AttemptAggregate, window, totalWidth, height int, useColor bool) error {
	if len(attempts) == 0 {
		return nil
	}
	coverage, completion := attemptSeries(attempts)
	coverage = MovingAverage(coverage, window)
	completion = MovingAverage(completion, window)

	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeriesWithColor(w, "Learning Curves", []Series{
		{Name: "Coverage", Values: coverage, Percent: true},
		{Name: "Completion", Values: completion, Percent: true},
	}, width, height, useColor)
}

func attemptSeries(attempts []model.AttemptAggregate) (coverage, completion []float64) {
	coverage = make([]float64, len(attempts))
	completion = make([]float64, len(attempts))
	for i, a := range attempts {
		coverage[i] = a.Coverage * 100
		if a.Completed {
			completion[i] = 100
		}
	}
	return coverage, completion
}

// SortByWeakness orders aggregates by lowest completion rate, then lowest
// mean coverage.
func SortByWeakness(aggs []model.GlyphAggregate) []model.GlyphAggregate {
	out := append([]model.GlyphAggregate(nil), aggs...)
	sort.SliceStable(out, func(i, j int) bool {
		ci, vi, _ := GlyphMetrics(out[i])
		cj, vj, _ := GlyphMetrics(out[j])
		if ci != cj {
			return ci < cj
		}
		if vi != vj {
			return vi < vj
		}
		return out[i].Glyph < out[j].Glyph
	})
	return out
}

// RenderGlyphTable prints per-glyph aggregates, weakest first.
func RenderGlyphTable(w io.Writer, aggs []model.GlyphAggregate, now time.Time) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No glyph stats found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Per-Glyph (Windowed)"); err != nil {
		return err
	}

	headers := []string{"Glyph", "Completion", "Avg Coverage", "Attempts", "Avg Time", "Last"}
	rows := make([][]string, 0, len(aggs))
	for _, agg := range SortByWeakness(aggs) {
		completion, coverage, duration := GlyphMetrics(agg)
		rows = append(rows, []string{
			agg.Glyph,
			fmt.Sprintf("%.1f%%", completion*100),
			fmt.Sprintf("%.1f%%", coverage*100),
			fmt.Sprintf("%d", agg.Attempts),
			duration.Round(100 * time.Millisecond).String(),
			LastPracticed(agg.LastAt, now),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// LastPracticed renders a relative time such as "3 days ago".
func LastPracticed(at, now time.Time) string {
	if at.IsZero() {
		return "never"
	}
	return humanize.RelTime(at, now, "ago", "from now")
}

// RenderGlyphCurves prints a coverage curve per selected glyph over that
// glyph's own attempts.
func RenderGlyphCurves(w io.Writer, perGlyph map[string][]model.AttemptAggregate, glyphs []string, window int) error {
	return RenderGlyphCurvesWithSize(w, perGlyph, glyphs, window, 0, 10, false)
}

// RenderGlyphCurvesWithSize prints per-glyph curves sized to a given total width.
func RenderGlyphCurvesWithSize(w io.Writer, perGlyph map[string][]model.AttemptAggregate, glyphs []string, window, totalWidth, height int, useColor bool) error {
	if len(glyphs) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Per-Glyph Curves"); err != nil {
		return err
	}
	for _, g := range glyphs {
		attempts := perGlyph[g]
		if len(attempts) == 0 {
			if _, err := fmt.Fprintf(w, "Glyph %s: no attempts\n\n", g); err != nil {
				return err
			}
			continue
		}
		coverage, completion := attemptSeries(attempts)
		strokes := make([]float64, len(attempts))
		for i, a := range attempts {
			strokes[i] = float64(a.Strokes)
		}
		width := 0
		if totalWidth > 0 {
			width = PlotWidthFor(totalWidth)
		}
		if err := PlotSeriesWithColor(w, fmt.Sprintf("Glyph %s", g), []Series{
			{Name: "Coverage", Values: MovingAverage(coverage, window), Percent: true},
			{Name: "Completion", Values: MovingAverage(completion, window), Percent: true},
			{Name: "Strokes", Values: MovingAverage(strokes, window)},
		}, width, height, useColor); err != nil {
			return err
		}
	}
	return nil
}

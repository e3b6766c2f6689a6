package statsui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuitrace/internal/model"
	"github.com/verte-zerg/tuitrace/internal/stats"
)

type glyphColumn struct {
	title string
	width int
	cell  func(agg model.GlyphAggregate, now time.Time) string
}

var glyphColumns = []glyphColumn{
	{"Glyph", 5, func(a model.GlyphAggregate, _ time.Time) string { return a.Glyph }},
	{"Completion", 10, func(a model.GlyphAggregate, _ time.Time) string {
		completion, _, _ := stats.GlyphMetrics(a)
		return percent(completion)
	}},
	{"Avg Coverage", 12, func(a model.GlyphAggregate, _ time.Time) string {
		_, coverage, _ := stats.GlyphMetrics(a)
		return percent(coverage)
	}},
	{"Attempts", 8, func(a model.GlyphAggregate, _ time.Time) string { return fmt.Sprint(a.Attempts) }},
	{"Avg Strokes", 11, func(a model.GlyphAggregate, _ time.Time) string {
		if a.Attempts == 0 {
			return "0.0"
		}
		return fmt.Sprintf("%.1f", float64(a.StrokeSum)/float64(a.Attempts))
	}},
	{"Avg Time", 8, func(a model.GlyphAggregate, _ time.Time) string {
		_, _, d := stats.GlyphMetrics(a)
		return d.Round(100 * time.Millisecond).String()
	}},
	{"Last", 16, func(a model.GlyphAggregate, now time.Time) string { return stats.LastPracticed(a.LastAt, now) }},
}

func newGlyphTable() table.Model {
	cols := make([]table.Column, len(glyphColumns))
	for i, c := range glyphColumns {
		cols[i] = table.Column{Title: c.title, Width: c.width}
	}
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(dimBorder).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1, 0, 0)
	styles.Cell = styles.Cell.Padding(0, 1, 0, 0)
	styles.Selected = styles.Cell.Foreground(brightText).Bold(true)
	return table.New(table.WithColumns(cols), table.WithStyles(styles), table.WithHeight(1))
}

// glyphRows lists glyphs weakest first.
func glyphRows(aggs []model.GlyphAggregate, now time.Time) []table.Row {
	rows := make([]table.Row, 0, len(aggs))
	for _, agg := range stats.SortByWeakness(aggs) {
		row := make(table.Row, len(glyphColumns))
		for i, c := range glyphColumns {
			row[i] = c.cell(agg, now)
		}
		rows = append(rows, row)
	}
	return rows
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

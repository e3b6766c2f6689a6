// Package stats contains statistics calculations and reporting.
package stats

import (
	"sort"

	"github.com/verte-zerg/tuitrace/internal/model"
)

// TopGlyphsByFrequency returns the n most practised glyphs.
func TopGlyphsByFrequency(aggs []model.GlyphAggregate, n int) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	items := append([]model.GlyphAggregate(nil), aggs...)
	sort.Slice(items, func(i, j int) bool {
		if items[i].Attempts == items[j].Attempts {
			return items[i].Glyph < items[j].Glyph
		}
		return items[i].Attempts > items[j].Attempts
	})
	if n > len(items) {
		n = len(items)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, items[i].Glyph)
	}
	return out
}

package stats

import (
	"github.com/verte-zerg/tuitrace/internal/model"
)

// SelectWeakGlyphs selects the glyphs with the lowest completion rate,
// breaking ties by lowest mean coverage.
func SelectWeakGlyphs(aggs []model.GlyphAggregate, top int) map[string]struct{} {
	weakSet := map[string]struct{}{}
	if len(aggs) == 0 {
		return weakSet
	}
	candidates := SortByWeakness(aggs)
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	for i := 0; i < top; i++ {
		if candidates[i].Glyph != "" {
			weakSet[candidates[i].Glyph] = struct{}{}
		}
	}
	return weakSet
}

// Package generator picks the next glyph to practise.
package generator

import (
	"math/rand"
	"time"
)

// Generator produces a randomized glyph sequence.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Next selects a glyph uniformly, avoiding exclude when there is another
// choice. It returns "" for an empty list.
func (g *Generator) Next(glyphs []string, exclude string) string {
	pool := candidates(glyphs, exclude)
	if len(pool) == 0 {
		return ""
	}
	return pool[g.rnd.Intn(len(pool))]
}

// NextWeighted selects a glyph with a bias toward weak glyphs: a weak
// glyph weighs 1+factor, any other glyph 1.
func (g *Generator) NextWeighted(glyphs []string, exclude string, weakSet map[string]struct{}, factor float64) string {
	pool := candidates(glyphs, exclude)
	if len(pool) == 0 {
		return ""
	}
	if factor < 0 {
		factor = 0
	}
	weights := make([]float64, len(pool))
	total := 0.0
	for i, glyph := range pool {
		w := 1.0
		if _, ok := weakSet[glyph]; ok {
			w += factor
		}
		weights[i] = w
		total += w
	}

	r := g.rnd.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r < acc {
			return pool[i]
		}
	}
	return pool[len(pool)-1]
}

func candidates(glyphs []string, exclude string) []string {
	if exclude == "" || len(glyphs) < 2 {
		return glyphs
	}
	out := make([]string, 0, len(glyphs))
	for _, glyph := range glyphs {
		if glyph != exclude {
			out = append(out, glyph)
		}
	}
	if len(out) == 0 {
		return glyphs
	}
	return out
}

package typeface

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/verte-zerg/tuitrace/internal/logging"
)

// DefaultPriority lists the preferred oracle-bone typefaces in order.
var DefaultPriority = []string{"FangZhengOracle", "HYChenTiJiaGuWen", "ZhongYanYuan"}

const (
	// DefaultMinDifference is the rendering difference a candidate needs
	// before it counts as actually loaded.
	DefaultMinDifference = 0.05
	// DefaultProbeTimeout bounds each availability probe.
	DefaultProbeTimeout = 2 * time.Second

	probeLimit = 4
)

// Provider answers typeface availability questions.
type Provider interface {
	Usable(ctx context.Context, name string) bool
	GlyphDifference(ctx context.Context, glyph, candidate, fallback string) (float64, error)
}

// Probe reports how one candidate fared for a glyph.
type Probe struct {
	Name       string
	Usable     bool
	Difference float64
	Err        error
	Accepted   bool
}

// Choice is the typeface picked for a glyph.
type Choice struct {
	Name       string
	Difference float64
	Fallback   bool
}

// Resolver picks the typeface a glyph is rendered with. Candidates are
// probed concurrently but the winner is always the first accepted one in
// order, so equal availability gives equal choices.
type Resolver struct {
	provider      Provider
	priority      []string
	fallback      string
	overrides     map[string][]string
	minDifference float64
	probeTimeout  time.Duration
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithOverrides sets per-glyph candidates tried before the priority list.
func WithOverrides(overrides map[string][]string) Option {
	return func(r *Resolver) {
		r.overrides = make(map[string][]string, len(overrides))
		for glyph, names := range overrides {
			r.overrides[norm.NFC.String(glyph)] = names
		}
	}
}

// WithFallback sets the typeface used when no candidate is accepted.
func WithFallback(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.fallback = name
		}
	}
}

// WithMinDifference sets the acceptance threshold.
func WithMinDifference(d float64) Option {
	return func(r *Resolver) {
		if d >= 0 {
			r.minDifference = d
		}
	}
}

// WithProbeTimeout bounds each candidate probe.
func WithProbeTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.probeTimeout = d
		}
	}
}

// NewResolver creates a resolver over provider. A nil priority uses
// DefaultPriority.
func NewResolver(provider Provider, priority []string, opts ...Option) *Resolver {
	if priority == nil {
		priority = DefaultPriority
	}
	r := &Resolver{
		provider:      provider,
		priority:      priority,
		fallback:      FallbackName,
		minDifference: DefaultMinDifference,
		probeTimeout:  DefaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fallback returns the fallback typeface name.
func (r *Resolver) Fallback() string {
	return r.fallback
}

// Candidates returns the typefaces tried for glyph, overrides first,
// without duplicates.
func (r *Resolver) Candidates(glyph string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(names []string) {
		for _, name := range names {
			key := normalizeName(name)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, name)
		}
	}
	add(r.overrides[norm.NFC.String(glyph)])
	add(r.priority)
	return out
}

// Probe checks every candidate for glyph concurrently. The result keeps
// candidate order.
func (r *Resolver) Probe(ctx context.Context, glyph string) []Probe {
	names := r.Candidates(glyph)
	probes := make([]Probe, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(probeLimit)
	for i, name := range names {
		g.Go(func() error {
			probes[i] = r.probe(gctx, glyph, name)
			return nil
		})
	}
	// Probes record their own errors.
	_ = g.Wait()
	return probes
}

func (r *Resolver) probe(ctx context.Context, glyph, name string) Probe {
	ctx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	p := Probe{Name: name}
	p.Usable = r.provider.Usable(ctx, name)
	if !p.Usable {
		return p
	}
	p.Difference, p.Err = r.provider.GlyphDifference(ctx, glyph, name, r.fallback)
	p.Accepted = p.Err == nil && p.Difference > r.minDifference
	return p
}

// Resolve picks the typeface for glyph. It never fails: when no candidate
// is accepted the fallback is returned.
func (r *Resolver) Resolve(ctx context.Context, glyph string) Choice {
	for _, p := range r.Probe(ctx, glyph) {
		if p.Accepted {
			logging.L().Debug("typeface resolved", "glyph", glyph, "name", p.Name, "difference", p.Difference)
			return Choice{Name: p.Name, Difference: p.Difference}
		}
	}
	logging.L().Debug("typeface fallback", "glyph", glyph, "name", r.fallback)
	return Choice{Name: r.fallback, Fallback: true}
}

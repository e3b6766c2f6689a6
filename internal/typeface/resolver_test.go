package typeface

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu     sync.Mutex
	usable map[string]bool
	diff   map[string]float64
	errs   map[string]error
	block  map[string]bool
	calls  []string
}

func (f *fakeProvider) Usable(ctx context.Context, name string) bool {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	block := f.block[name]
	usable := f.usable[name]
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return false
	}
	return usable
}

func (f *fakeProvider) GlyphDifference(_ context.Context, _ string, candidate, _ string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[candidate]; err != nil {
		return 0, err
	}
	return f.diff[candidate], nil
}

func TestResolveFirstAcceptedInOrder(t *testing.T) {
	p := &fakeProvider{
		usable: map[string]bool{"A": true, "B": true, "C": true},
		diff:   map[string]float64{"A": 0.01, "B": 0.3, "C": 0.9},
	}
	r := NewResolver(p, []string{"A", "B", "C"})
	for i := 0; i < 20; i++ {
		got := r.Resolve(context.Background(), "木")
		require.Equal(t, Choice{Name: "B", Difference: 0.3}, got)
	}
}

func TestResolveFallback(t *testing.T) {
	p := &fakeProvider{
		usable: map[string]bool{"A": true},
		diff:   map[string]float64{"A": 0.05},
		errs:   map[string]error{"B": errors.New("boom")},
	}
	p.usable["B"] = true
	r := NewResolver(p, []string{"A", "B", "C"}, WithFallback("serif"))
	got := r.Resolve(context.Background(), "木")
	assert.Equal(t, Choice{Name: "serif", Fallback: true}, got)

	probes := r.Probe(context.Background(), "木")
	require.Len(t, probes, 3)
	assert.False(t, probes[0].Accepted, "difference equal to the minimum is not enough")
	assert.Error(t, probes[1].Err)
	assert.False(t, probes[2].Usable)
}

func TestResolveOverridesFirst(t *testing.T) {
	p := &fakeProvider{
		usable: map[string]bool{"A": true, "Special": true},
		diff:   map[string]float64{"A": 0.5, "Special": 0.5},
	}
	r := NewResolver(p, []string{"A"}, WithOverrides(map[string][]string{"手": {"Special", "A"}}))
	assert.Equal(t, []string{"Special", "A"}, r.Candidates("手"))
	assert.Equal(t, []string{"A"}, r.Candidates("木"))
	assert.Equal(t, "Special", r.Resolve(context.Background(), "手").Name)
	assert.Equal(t, "A", r.Resolve(context.Background(), "木").Name)
}

func TestCandidatesDedupe(t *testing.T) {
	r := NewResolver(&fakeProvider{}, []string{"Fang Zheng", "fangzheng", "", "Other"})
	assert.Equal(t, []string{"Fang Zheng", "Other"}, r.Candidates("x"))
}

func TestProbeTimeout(t *testing.T) {
	p := &fakeProvider{
		usable: map[string]bool{"Fast": true},
		diff:   map[string]float64{"Fast": 0.2},
		block:  map[string]bool{"Slow": true},
	}
	r := NewResolver(p, []string{"Slow", "Fast"}, WithProbeTimeout(20*time.Millisecond))
	start := time.Now()
	got := r.Resolve(context.Background(), "木")
	assert.Equal(t, "Fast", got.Name)
	assert.Less(t, time.Since(start), time.Second)
}

func TestResolveDefaultPriority(t *testing.T) {
	r := NewResolver(&fakeProvider{}, nil)
	assert.Equal(t, DefaultPriority, r.Candidates("木"))
	assert.Equal(t, FallbackName, r.Fallback())
}

func TestResolveWithLibrary(t *testing.T) {
	lib := newTestLibrary(t, t.TempDir())
	r := NewResolver(lib, nil)
	got := r.Resolve(context.Background(), "木")
	assert.True(t, got.Fallback)
	assert.Equal(t, FallbackName, got.Name)
}

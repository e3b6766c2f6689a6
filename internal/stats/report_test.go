package stats

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/tuitrace/internal/model"
	"github.com/verte-zerg/tuitrace/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tuitrace.db")
	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	var ids []int64
	glyphs := []string{"木", "人", "木"}
	for i, g := range glyphs {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Minute)
		end := start.Add(30 * time.Second)
		attempt := model.Attempt{
			UUID:       fmt.Sprintf("attempt-%d", i),
			StartedAt:  start,
			EndedAt:    end,
			Glyph:      g,
			Typeface:   "goregular",
			Strokes:    2,
			GlyphInk:   400,
			CoveredInk: 240,
			Coverage:   0.6,
			Completed:  true,
			Threshold:  0.5,
			BrushSize:  12,
			DurationMs: end.Sub(start).Milliseconds(),
			Progress:   []float64{0.3, 0.6},
		}
		id, err := st.InsertAttempt(ctx, attempt)
		if err != nil {
			t.Fatalf("insert attempt: %v", err)
		}
		ids = append(ids, id)
	}

	cfg := model.StatsConfig{
		Last:        2,
		CurveWindow: 1,
	}
	report, err := BuildReport(ctx, st, cfg)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(report.Attempts))
	}
	if report.Attempts[0].AttemptID != ids[1] || report.Attempts[1].AttemptID != ids[2] {
		t.Fatalf("unexpected attempt ids: %+v", report.Attempts)
	}
	if len(report.WindowAttemptIDs) != 1 || report.WindowAttemptIDs[0] != ids[2] {
		t.Fatalf("unexpected window attempt ids: %v", report.WindowAttemptIDs)
	}
	if len(report.GlyphAggsAll) != 2 {
		t.Fatalf("expected aggregates for 2 glyphs, got %d", len(report.GlyphAggsAll))
	}
	if len(report.GlyphAggsWindow) != 1 || report.GlyphAggsWindow[0].Glyph != "木" {
		t.Fatalf("unexpected window aggregates: %+v", report.GlyphAggsWindow)
	}

	cfg = model.StatsConfig{Glyph: "人"}
	report, err = BuildReport(ctx, st, cfg)
	if err != nil {
		t.Fatalf("build filtered report: %v", err)
	}
	if len(report.Attempts) != 1 || report.Attempts[0].Glyph != "人" {
		t.Fatalf("expected only 人 attempts, got %+v", report.Attempts)
	}
}

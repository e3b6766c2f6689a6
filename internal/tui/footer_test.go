package tui

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuitrace/internal/session"
)

var hexColor = regexp.MustCompile(`^#[0-9a-f]{6}$`)

func TestRenderFooterFormats(t *testing.T) {
	m := newTestModel(t, "木")
	m.resize(120, 8)
	m.sess.Retarget(fixedMeter{ink: 100, covered: 45})
	m.recent = []float64{0.2, 0.9}
	drawStroke(m, [][2]int{{1, 1}, {3, 1}})

	out := m.renderFooter()
	if out == "" {
		t.Fatalf("expected footer output")
	}
	if !containsAll(out, []string{"Progress 45%", "Strokes 1", "Recent", "q quit"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func TestRenderFooterBanner(t *testing.T) {
	m := newTestModel(t, "木")
	m.resize(120, 8)
	m.celebration = &session.Completion{Progress: 0.62, Strokes: 3, Elapsed: 4200 * time.Millisecond}
	out := m.renderFooter()
	if !containsAll(out, []string{"Well done!", "木", "62%", "3 strokes", "4.2s"}) {
		t.Fatalf("banner missing expected segments: %s", out)
	}
}

func TestRenderFooterTruncatesToWidth(t *testing.T) {
	m := newTestModel(t, "木")
	m.sess.Retarget(fixedMeter{ink: 100, covered: 45})
	m.recent = []float64{0.2, 0.9}
	drawStroke(m, [][2]int{{1, 1}, {3, 1}})

	out := m.renderFooter()
	if !strings.Contains(out, "Progress 45%") || !strings.Contains(out, "…") {
		t.Fatalf("expected truncated footer, got %q", out)
	}
	if strings.Contains(out, "q quit") {
		t.Fatalf("expected help text cut off at width %d: %q", m.width, out)
	}
	if w := lipgloss.Width(out); w > m.width {
		t.Fatalf("footer width %d exceeds %d: %q", w, m.width, out)
	}
}

func TestRenderBannerTruncatesToWidth(t *testing.T) {
	m := newTestModel(t, "木")
	m.celebration = &session.Completion{Progress: 0.62, Strokes: 3, Elapsed: 4200 * time.Millisecond}

	out := m.renderFooter()
	if !strings.Contains(out, "Well done!") || !strings.Contains(out, "…") {
		t.Fatalf("expected truncated banner, got %q", out)
	}
	if strings.Contains(out, "4.2s") {
		t.Fatalf("expected elapsed time cut off at width %d: %q", m.width, out)
	}
	if w := lipgloss.Width(out); w > m.width {
		t.Fatalf("banner width %d exceeds %d: %q", w, m.width, out)
	}
}

func TestFlickerColorIsHex(t *testing.T) {
	for _, c := range []string{flickerColor(flickerFill, 0), flickerColor(flickerEdge, time.Second)} {
		if !hexColor.MatchString(c) {
			t.Fatalf("expected #rrggbb colour, got %q", c)
		}
	}
	if got := flickerColor(flickerFill, 0); got != "#d9b700" {
		t.Fatalf("expected gold at 85%% opacity, got %s", got)
	}
}

func TestMustHexPanicsOnBadInput(t *testing.T) {
	if got := mustHex("#FF8C00").Hex(); got != "#ff8c00" {
		t.Fatalf("expected #ff8c00, got %s", got)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for malformed colour")
		}
	}()
	mustHex("gold")
}

func TestRenderFooterEditing(t *testing.T) {
	m := newTestModel(t, "木")
	m.Update(keyRunes("/"))
	if !strings.Contains(m.renderFooter(), "glyph>") {
		t.Fatalf("expected input prompt in footer: %s", m.renderFooter())
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

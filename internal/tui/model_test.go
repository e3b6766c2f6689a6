package tui

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuitrace/internal/coverage"
	"github.com/verte-zerg/tuitrace/internal/generator"
	"github.com/verte-zerg/tuitrace/internal/glyph"
	"github.com/verte-zerg/tuitrace/internal/model"
	"github.com/verte-zerg/tuitrace/internal/session"
	"github.com/verte-zerg/tuitrace/internal/store"
	"github.com/verte-zerg/tuitrace/internal/typeface"
)

type fixedMeter struct {
	ink     int
	covered int
}

func (f fixedMeter) Measure(strokes []model.Stroke) coverage.Result {
	if len(strokes) == 0 {
		return coverage.Result{}
	}
	return coverage.Result{
		GlyphInk:   f.ink,
		CoveredInk: f.covered,
		Ratio:      coverage.Ratio(f.covered, f.ink),
	}
}

type recordingMeter struct {
	strokes []model.Stroke
}

func (r *recordingMeter) Measure(strokes []model.Stroke) coverage.Result {
	r.strokes = strokes
	return coverage.Result{}
}

func testConfig(char string) model.PracticeConfig {
	return model.PracticeConfig{
		Options:  model.DefaultOptions(),
		Char:     char,
		DotScale: 2,
	}
}

func newTestModel(t *testing.T, char string) *Model {
	t.Helper()
	return newTestModelWithDeps(t, char, Deps{})
}

func newTestModelWithDeps(t *testing.T, char string, deps Deps) *Model {
	t.Helper()
	m := NewModel(testConfig(char), deps)
	if cmd := m.resize(20, 8); cmd != nil && deps.Rasterizer == nil {
		t.Fatalf("expected no placement without a rasterizer")
	}
	return m
}

// drawStroke presses, drags through and releases the given cells, which
// are canvas cells (header excluded).
func drawStroke(m *Model, cells [][2]int) tea.Cmd {
	var cmd tea.Cmd
	for i, c := range cells {
		msg := tea.MouseMsg{X: c[0], Y: c[1] + headerLines, Button: tea.MouseButtonLeft}
		if i == 0 {
			msg.Action = tea.MouseActionPress
		} else {
			msg.Action = tea.MouseActionMotion
		}
		m.Update(msg)
	}
	last := cells[len(cells)-1]
	_, cmd = m.Update(tea.MouseMsg{X: last[0], Y: last[1] + headerLines, Action: tea.MouseActionRelease})
	return cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestResizeSizesCanvas(t *testing.T) {
	m := newTestModel(t, "木")
	if m.cols != 20 || m.rows != 8-headerLines-footerLines {
		t.Fatalf("unexpected canvas size %dx%d", m.cols, m.rows)
	}
	c := m.canvasSize()
	if c.Width != 20*2*2 || c.Height != m.rows*4*2 || c.ViewportWidth != c.Width {
		t.Fatalf("unexpected pixel canvas %+v", c)
	}
	lines := strings.Split(m.View(), "\n")
	if len(lines) != 8 {
		t.Fatalf("expected 8 view lines, got %d", len(lines))
	}
}

func TestMouseMapsCellCentres(t *testing.T) {
	m := newTestModel(t, "木")
	meter := &recordingMeter{}
	m.sess.Retarget(meter)
	drawStroke(m, [][2]int{{3, 2}, {5, 2}})

	if len(meter.strokes) != 1 || len(meter.strokes[0]) != 2 {
		t.Fatalf("expected one stroke of two points, got %+v", meter.strokes)
	}
	got := meter.strokes[0][0]
	want := model.Point{X: float64((3*2 + 1) * 2), Y: float64((2*4 + 2) * 2)}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if m.ink.Mask(3, 2) == 0 || m.ink.Mask(4, 2) == 0 {
		t.Fatalf("expected painted ink along the stroke:\n%s", m.ink.String())
	}
}

func TestPressOutsideCanvasIgnored(t *testing.T) {
	m := newTestModel(t, "木")
	m.Update(tea.MouseMsg{X: 2, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if m.sess.Drawing() {
		t.Fatalf("expected header press to be ignored")
	}
	m.Update(tea.MouseMsg{X: 2, Y: 3, Action: tea.MouseActionPress, Button: tea.MouseButtonRight})
	if m.sess.Drawing() {
		t.Fatalf("expected right button press to be ignored")
	}
}

func TestLeavingCanvasEndsStroke(t *testing.T) {
	m := newTestModel(t, "木")
	m.Update(tea.MouseMsg{X: 2, Y: 3, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m.Update(tea.MouseMsg{X: 2, Y: 0, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	if m.sess.Drawing() {
		t.Fatalf("expected stroke to end when leaving the canvas")
	}
	if len(m.sess.Strokes()) != 1 {
		t.Fatalf("expected one finalized stroke, got %d", len(m.sess.Strokes()))
	}
}

func TestCompletionCelebratesOnce(t *testing.T) {
	var bell bytes.Buffer
	m := newTestModelWithDeps(t, "木", Deps{Bell: &bell})
	m.sess.Retarget(fixedMeter{ink: 100, covered: 80})

	cmd := drawStroke(m, [][2]int{{1, 1}, {2, 1}})
	if m.celebration == nil || cmd == nil {
		t.Fatalf("expected celebration after crossing the threshold")
	}
	if !m.sess.Completed() {
		t.Fatalf("expected completed session")
	}
	if bellCmd := m.bellCmd(); bellCmd != nil {
		bellCmd()
	}
	if bell.String() != "\a" {
		t.Fatalf("expected bell, got %q", bell.String())
	}

	m.celebration = nil
	if cmd := drawStroke(m, [][2]int{{4, 1}}); cmd != nil || m.celebration != nil {
		t.Fatalf("expected no second celebration")
	}

	id := m.sess.ID()
	m.celebration = &session.Completion{SessionID: id}
	m.Update(celebrationDoneMsg{sessionID: "other"})
	if m.celebration == nil {
		t.Fatalf("expected unrelated timer to keep the banner")
	}
	m.Update(celebrationDoneMsg{sessionID: id})
	if m.celebration != nil {
		t.Fatalf("expected celebration to end")
	}
}

func TestClearResetsAttempt(t *testing.T) {
	m := newTestModel(t, "木")
	m.sess.Retarget(fixedMeter{ink: 100, covered: 30})
	drawStroke(m, [][2]int{{1, 1}, {3, 1}})
	oldID := m.sess.ID()

	m.Update(keyRunes("c"))
	if len(m.sess.Strokes()) != 0 || m.sess.Progress() != 0 {
		t.Fatalf("expected empty session after clear")
	}
	if m.sess.ID() == oldID {
		t.Fatalf("expected a new session id after clear")
	}
	if strings.Trim(m.ink.String(), string(rune(0x2800))+"\n") != "" {
		t.Fatalf("expected blank ink after clear:\n%s", m.ink.String())
	}
}

func TestEnterGlyphUsesLastCharacter(t *testing.T) {
	m := newTestModel(t, "木")
	m.Update(keyRunes("/"))
	if !m.editing {
		t.Fatalf("expected editing mode")
	}
	m.Update(keyRunes("abc人"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.editing {
		t.Fatalf("expected editing to stop")
	}
	if m.char != "人" {
		t.Fatalf("expected glyph 人, got %q", m.char)
	}
	if m.info.Meaning == "" {
		t.Fatalf("expected metadata for 人")
	}
}

func TestEscCancelsEditing(t *testing.T) {
	m := newTestModel(t, "木")
	m.Update(keyRunes("/"))
	m.Update(keyRunes("人"))
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.editing || m.char != "木" {
		t.Fatalf("expected cancelled edit, editing=%v char=%q", m.editing, m.char)
	}
}

func TestNextGlyphAvoidsCurrent(t *testing.T) {
	deps := Deps{Generator: generator.NewWithSeed(1), Glyphs: []string{"木", "人"}}
	m := newTestModelWithDeps(t, "木", deps)
	m.Update(keyRunes("n"))
	if m.char != "人" {
		t.Fatalf("expected next glyph 人, got %q", m.char)
	}
}

func TestQuitPersistsAttempt(t *testing.T) {
	st, err := store.Open(t.TempDir() + "/tuitrace.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	m := newTestModelWithDeps(t, "木", Deps{Store: st})
	m.sess.Retarget(fixedMeter{ink: 100, covered: 40})
	drawStroke(m, [][2]int{{1, 1}, {3, 1}})

	_, cmd := m.Update(keyRunes("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	attempts, err := st.ListAttempts(context.Background(), model.StatsConfig{Glyph: "木"})
	if err != nil {
		t.Fatalf("list attempts: %v", err)
	}
	if len(attempts) != 1 || attempts[0].Coverage != 0.4 || attempts[0].Strokes != 1 {
		t.Fatalf("unexpected persisted attempts: %+v", attempts)
	}
	if len(m.recent) != 1 {
		t.Fatalf("expected recent coverage to refresh, got %v", m.recent)
	}
}

func TestEmptyAttemptNotPersisted(t *testing.T) {
	st, err := store.Open(t.TempDir() + "/tuitrace.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	m := newTestModelWithDeps(t, "木", Deps{Store: st})
	m.Update(keyRunes("c"))
	attempts, err := st.ListAttempts(context.Background(), model.StatsConfig{})
	if err != nil {
		t.Fatalf("list attempts: %v", err)
	}
	if len(attempts) != 0 {
		t.Fatalf("expected no attempts, got %+v", attempts)
	}
}

func TestPlacementWithFallbackTypeface(t *testing.T) {
	lib, err := typeface.NewLibrary(nil, typeface.WithSystemLookup(nil, nil))
	if err != nil {
		t.Fatalf("new library: %v", err)
	}
	resolver := typeface.NewResolver(lib, nil, typeface.WithProbeTimeout(time.Second))
	deps := Deps{
		Rasterizer: glyph.NewRasterizer(resolver, lib),
		Engine:     coverage.New(model.DefaultOptions()),
	}
	m := NewModel(testConfig("H"), deps)
	cmd := m.resize(40, 12)
	if cmd == nil {
		t.Fatalf("expected placement command")
	}
	msg, ok := cmd().(placedMsg)
	if !ok {
		t.Fatalf("expected placedMsg")
	}
	if msg.err != nil {
		t.Fatalf("placement failed: %v", msg.err)
	}

	stale := msg
	stale.gen--
	m.Update(stale)
	if m.target != nil {
		t.Fatalf("expected stale placement to be ignored")
	}

	m.Update(msg)
	if m.target == nil || m.placing {
		t.Fatalf("expected placed target")
	}
	if m.target.Typeface != typeface.FallbackName {
		t.Fatalf("expected fallback typeface, got %q", m.target.Typeface)
	}
	dots := 0
	for row := 0; row < m.rows; row++ {
		for col := 0; col < m.cols; col++ {
			if m.guide.Mask(col, row) != 0 {
				dots++
			}
		}
	}
	if dots == 0 {
		t.Fatalf("expected guide dots for the placed glyph")
	}
	if !strings.Contains(m.renderHeader(), typeface.FallbackName) {
		t.Fatalf("expected typeface in header: %s", m.renderHeader())
	}

	col := int(m.target.Center.X) / (2 * m.scale)
	row := int(m.target.Center.Y)/(4*m.scale) + headerLines
	m.Update(tea.MouseMsg{X: col, Y: row, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if !m.onGlyph || !strings.Contains(m.renderFooter(), "on glyph") {
		t.Fatalf("expected cursor on glyph: %s", m.renderFooter())
	}
	m.Update(tea.MouseMsg{X: col, Y: row, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	if m.onGlyph {
		t.Fatalf("expected on-glyph flag cleared after release")
	}
}

func TestFlickerOpacityBounds(t *testing.T) {
	for ms := 0; ms < 10000; ms += 37 {
		o := flickerOpacity(time.Duration(ms) * time.Millisecond)
		if o < 0.7-1e-9 || o > 1+1e-9 {
			t.Fatalf("opacity %v out of range at %dms", o, ms)
		}
	}
	if got := flickerColor(flickerFill, 0); !strings.HasPrefix(got, "#") || len(got) != 7 {
		t.Fatalf("unexpected colour %q", got)
	}
}

func TestClassifyCells(t *testing.T) {
	cases := []struct {
		guide uint8
		ink   uint8
		want  cellKind
	}{
		{0, 0, cellEmpty},
		{0xFF, 0, cellGuide},
		{0x0F, 0, cellGuideEdge},
		{0, 0x01, cellInk},
		{0x01, 0x01, cellCovered},
	}
	for _, tc := range cases {
		if got := classify(tc.guide, tc.ink); got != tc.want {
			t.Fatalf("classify(%#x, %#x) = %v, want %v", tc.guide, tc.ink, got, tc.want)
		}
	}
}

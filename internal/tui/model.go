// Package tui provides the Bubble Tea tracing interface.
package tui

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuitrace/internal/canvas"
	"github.com/verte-zerg/tuitrace/internal/charinfo"
	"github.com/verte-zerg/tuitrace/internal/coverage"
	"github.com/verte-zerg/tuitrace/internal/generator"
	"github.com/verte-zerg/tuitrace/internal/glyph"
	"github.com/verte-zerg/tuitrace/internal/logging"
	"github.com/verte-zerg/tuitrace/internal/model"
	"github.com/verte-zerg/tuitrace/internal/session"
	statsPkg "github.com/verte-zerg/tuitrace/internal/stats"
	"github.com/verte-zerg/tuitrace/internal/store"
)

const (
	headerLines     = 1
	footerLines     = 1
	defaultDotScale = 4
	flickerEvery    = 80 * time.Millisecond
	celebrateFor    = 2500 * time.Millisecond
	placeTimeout    = 10 * time.Second
	recentAttempts  = 16
)

// Deps are the collaborators of the practice UI. Only CharInfo is
// defaulted; a nil Store disables persistence and a nil Rasterizer
// disables placement.
type Deps struct {
	Store             *store.Store
	Rasterizer        *glyph.Rasterizer
	Engine            *coverage.Engine
	CharInfo          *charinfo.DB
	Generator         *generator.Generator
	Glyphs            []string
	WeakSet           map[string]struct{}
	WeakNoticePrinted bool
	Bell              io.Writer
}

type placedMsg struct {
	gen    int
	target *glyph.Target
	err    error
}

type flickerMsg time.Time

type celebrationDoneMsg struct {
	sessionID string
}

// Model implements the Bubble Tea tracing UI.
type Model struct {
	config model.PracticeConfig
	deps   Deps
	now    func() time.Time

	width  int
	height int
	cols   int
	rows   int
	scale  int

	char     string
	info     charinfo.Info
	target   *glyph.Target
	placeGen int
	placing  bool
	placeErr error

	sess    *session.Session
	pending *session.Completion
	onGlyph bool
	guide   *canvas.Grid
	ink     *canvas.Grid

	input   textinput.Model
	editing bool

	startedAt   time.Time
	phase       time.Duration
	celebration *session.Completion

	recent            []float64
	weakSet           map[string]struct{}
	weakNoticePrinted bool
}

// NewModel constructs a tracing TUI model. The first glyph is the last
// character of cfg.Char, or a generated pick when it is empty.
func NewModel(cfg model.PracticeConfig, deps Deps) *Model {
	if deps.CharInfo == nil {
		deps.CharInfo = charinfo.Default()
	}
	scale := cfg.DotScale
	if scale < 1 {
		scale = defaultDotScale
	}
	input := textinput.New()
	input.Prompt = "glyph> "
	input.Placeholder = "type a character, enter to practise"
	input.CharLimit = 64

	m := &Model{
		config:            cfg,
		deps:              deps,
		now:               time.Now,
		scale:             scale,
		guide:             canvas.NewGrid(0, 0),
		ink:               canvas.NewGrid(0, 0),
		input:             input,
		weakSet:           deps.WeakSet,
		weakNoticePrinted: deps.WeakNoticePrinted,
	}
	if m.weakSet == nil {
		m.weakSet = map[string]struct{}{}
	}
	m.sess = session.New(nil, cfg.CompletionThreshold, session.WithListener(m.onComplete))
	m.startedAt = m.now()

	first := charinfo.LastGlyph(cfg.Char)
	if first == "" {
		first = m.nextGlyph()
	}
	m.char = first
	m.info = deps.CharInfo.Resolve(first)
	m.loadRecent()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return flickerTick()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m, m.resize(msg.Width, msg.Height)
	case placedMsg:
		m.applyPlacement(msg)
		return m, nil
	case flickerMsg:
		m.phase = time.Time(msg).Sub(m.startedAt)
		return m, flickerTick()
	case celebrationDoneMsg:
		if m.celebration != nil && m.celebration.SessionID == msg.sessionID {
			m.celebration = nil
		}
		return m, nil
	case tea.MouseMsg:
		return m, m.handleMouse(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func flickerTick() tea.Cmd {
	return tea.Tick(flickerEvery, func(t time.Time) tea.Msg {
		return flickerMsg(t)
	})
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		switch msg.Type {
		case tea.KeyCtrlC:
			m.finishAttempt()
			return m, tea.Quit
		case tea.KeyEsc:
			m.stopEditing()
			return m, nil
		case tea.KeyEnter:
			next := charinfo.LastGlyph(m.input.Value())
			m.stopEditing()
			if next == "" {
				return m, nil
			}
			return m, m.setGlyph(next)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+c", "q":
		m.finishAttempt()
		return m, tea.Quit
	case "c", "esc":
		m.clear()
		return m, nil
	case "n":
		return m, m.setGlyph(m.nextGlyph())
	case "/", "i":
		m.editing = true
		m.input.SetValue("")
		return m, m.input.Focus()
	default:
		return m, nil
	}
}

func (m *Model) stopEditing() {
	m.editing = false
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.editing {
		return nil
	}
	p, inside := m.pointAt(msg.X, msg.Y)
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !inside {
			return nil
		}
		m.sess.Begin(p)
		m.onGlyph = m.target != nil && m.target.Contains(p)
		m.paint(p, p)
		return nil
	case tea.MouseActionMotion:
		if !m.sess.Drawing() {
			return nil
		}
		if !inside {
			return m.endStroke()
		}
		prev := p
		if cur := m.sess.Current(); len(cur) > 0 {
			prev = cur[len(cur)-1]
		}
		m.sess.Move(p)
		m.onGlyph = m.target != nil && m.target.Contains(p)
		m.paint(prev, p)
		return nil
	case tea.MouseActionRelease:
		if !m.sess.Drawing() {
			return nil
		}
		return m.endStroke()
	default:
		return nil
	}
}

// pointAt maps a terminal cell to the canvas pixel at the centre of its
// braille block.
func (m *Model) pointAt(x, y int) (model.Point, bool) {
	col := x
	row := y - headerLines
	if col < 0 || row < 0 || col >= m.cols || row >= m.rows {
		return model.Point{}, false
	}
	return model.Point{
		X: float64((col*2 + 1) * m.scale),
		Y: float64((row*4 + 2) * m.scale),
	}, true
}

func (m *Model) paint(from, to model.Point) {
	s := float64(m.scale)
	r := m.config.BrushSize / (2 * s)
	canvas.DrawLine(int(from.X/s), int(from.Y/s), int(to.X/s), int(to.Y/s), func(x, y int) {
		m.ink.Disc(x, y, r)
	})
}

func (m *Model) endStroke() tea.Cmd {
	m.sess.End()
	m.onGlyph = false
	if m.pending == nil {
		return nil
	}
	c := *m.pending
	m.pending = nil
	m.celebration = &c
	return tea.Batch(m.bellCmd(), tea.Tick(celebrateFor, func(time.Time) tea.Msg {
		return celebrationDoneMsg{sessionID: c.SessionID}
	}))
}

func (m *Model) onComplete(c session.Completion) {
	logging.L().Info("glyph completed", "glyph", m.char, "progress", c.Progress, "strokes", c.Strokes)
	m.pending = &c
}

func (m *Model) bellCmd() tea.Cmd {
	bell := m.deps.Bell
	if bell == nil {
		return nil
	}
	return func() tea.Msg {
		if _, err := io.WriteString(bell, "\a"); err != nil {
			// Best-effort bell.
			_ = err
		}
		return nil
	}
}

func (m *Model) resize(width, height int) tea.Cmd {
	m.width = width
	m.height = height
	rows := height - headerLines - footerLines
	if rows < 0 {
		rows = 0
	}
	if width == m.cols && rows == m.rows {
		return nil
	}
	// Strokes are in pixel space, so a new layout starts a new attempt.
	m.finishAttempt()
	m.cols = width
	m.rows = rows
	m.resetCanvas()
	return m.placeCmd()
}

func (m *Model) canvasSize() glyph.Canvas {
	w := m.cols * 2 * m.scale
	return glyph.Canvas{
		Width:         w,
		Height:        m.rows * 4 * m.scale,
		ViewportWidth: w,
	}
}

func (m *Model) placeCmd() tea.Cmd {
	m.placeGen++
	if m.deps.Rasterizer == nil || m.cols == 0 || m.rows == 0 || m.char == "" {
		m.placing = false
		return nil
	}
	m.placing = true
	m.placeErr = nil
	gen := m.placeGen
	ref := m.info.Reference
	c := m.canvasSize()
	r := m.deps.Rasterizer
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), placeTimeout)
		defer cancel()
		target, err := r.Place(ctx, ref, c)
		return placedMsg{gen: gen, target: target, err: err}
	}
}

func (m *Model) applyPlacement(msg placedMsg) {
	if msg.gen != m.placeGen {
		return
	}
	m.placing = false
	if msg.err != nil {
		m.placeErr = msg.err
		logging.L().Warn("glyph placement failed", "glyph", m.char, "err", msg.err)
		return
	}
	m.target = msg.target
	var meter session.Meter
	if m.deps.Engine != nil {
		meter = m.deps.Engine.Bind(msg.target)
	}
	m.sess.Retarget(meter)
	m.ink.Clear()
	m.guide = canvas.NewGrid(m.cols, m.rows)
	if mask := msg.target.Mask(0); mask != nil {
		m.guide.Sample(mask.Alpha, m.scale, m.config.AlphaThreshold)
	}
}

func (m *Model) setGlyph(next string) tea.Cmd {
	if next == "" {
		return nil
	}
	m.finishAttempt()
	m.char = next
	m.info = m.deps.CharInfo.Resolve(next)
	m.resetCanvas()
	m.loadRecent()
	return m.placeCmd()
}

func (m *Model) nextGlyph() string {
	if m.deps.Generator == nil || len(m.deps.Glyphs) == 0 {
		return m.char
	}
	if m.config.FocusWeak && len(m.weakSet) > 0 {
		return m.deps.Generator.NextWeighted(m.deps.Glyphs, m.char, m.weakSet, m.config.WeakFactor)
	}
	return m.deps.Generator.Next(m.deps.Glyphs, m.char)
}

// clear starts a new attempt on the same placed glyph.
func (m *Model) clear() {
	m.finishAttempt()
	m.sess.Reset()
	m.ink.Clear()
	m.pending = nil
	m.celebration = nil
}

// resetCanvas drops the placement; measurement is zero until the next
// placement arrives.
func (m *Model) resetCanvas() {
	m.sess.Retarget(nil)
	m.target = nil
	m.placeErr = nil
	m.pending = nil
	m.celebration = nil
	m.guide = canvas.NewGrid(m.cols, m.rows)
	m.ink = canvas.NewGrid(m.cols, m.rows)
}

func (m *Model) typefaceName() string {
	if m.target == nil {
		return ""
	}
	return m.target.Typeface
}

// finishAttempt persists the running session when it has strokes.
func (m *Model) finishAttempt() {
	if m.sess.Drawing() {
		m.sess.End()
	}
	if len(m.sess.Strokes()) == 0 {
		return
	}
	attempt := m.sess.Snapshot(m.char, m.typefaceName(), m.config.BrushSize)
	if m.deps.Store == nil {
		return
	}
	ctx := context.Background()
	if _, err := m.deps.Store.InsertAttempt(ctx, attempt); err != nil {
		logging.L().Error("failed to save attempt", "glyph", attempt.Glyph, "err", err)
		return
	}
	m.loadRecent()
	if m.config.FocusWeak {
		m.refreshWeakSet()
	}
}

func (m *Model) loadRecent() {
	m.recent = nil
	if m.deps.Store == nil || m.char == "" {
		return
	}
	recent, err := m.deps.Store.RecentCoverage(context.Background(), m.char, recentAttempts)
	if err != nil {
		logging.L().Error("failed to load recent coverage", "glyph", m.char, "err", err)
		return
	}
	m.recent = recent
}

func (m *Model) refreshWeakSet() {
	ctx := context.Background()
	aggs, err := m.deps.Store.GetWeakGlyphs(ctx, m.config.WeakWindow)
	if err != nil {
		logging.L().Error("failed to load weak glyphs", "err", err)
		return
	}
	if len(aggs) == 0 {
		if !m.weakNoticePrinted {
			logging.L().Info("no stats available for weak-glyph focus yet; using uniform picks")
			m.weakNoticePrinted = true
		}
		m.weakSet = map[string]struct{}{}
		return
	}
	m.weakSet = statsPkg.SelectWeakGlyphs(aggs, m.config.WeakTop)
}

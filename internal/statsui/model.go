// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuitrace/internal/glyphset"
	"github.com/verte-zerg/tuitrace/internal/model"
	"github.com/verte-zerg/tuitrace/internal/stats"
	"github.com/verte-zerg/tuitrace/internal/store"
)

type tab int

const (
	tabOverview tab = iota
	tabGlyphTable
	tabGlyphCurves
	tabCount
)

var tabTitles = [tabCount]string{"Overview", "Glyph Table", "Glyph Curves"}

const (
	defaultCurveN = 3
	fallbackWidth = 80
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	store *store.Store
	cfg   model.StatsConfig
	now   func() time.Time
	keys  keyMap
	help  help.Model

	report       stats.Report
	lastProgress []float64
	errMsg       string

	activeTab  tab
	viewports  [tabCount]viewport.Model
	glyphTable table.Model
	settings   settingsForm

	// curve glyphs; picked by hand or the most practised ones.
	glyphSelection       []string
	glyphSelectionCustom bool
	glyphAttempts        map[string][]model.AttemptAggregate
	glyphErrMsg          string
	picking              bool
	glyphInput           textinput.Model

	width  int
	height int
}

// NewModel constructs a stats UI model.
func NewModel(st *store.Store, cfg model.StatsConfig) *Model {
	m := &Model{
		store:      st,
		cfg:        cfg,
		now:        time.Now,
		keys:       newKeyMap(),
		help:       help.New(),
		glyphTable: newGlyphTable(),
		settings:   newSettingsForm(),
		glyphInput: newInput("Glyphs: "),
	}
	m.glyphInput.Placeholder = "木人手"
	m.glyphSelection = glyphset.Split(cfg.Glyphs)
	m.glyphSelectionCustom = len(m.glyphSelection) > 0
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch {
		case m.settings.open:
			return m, m.updateSettings(msg)
		case m.picking:
			return m, m.updatePicker(msg)
		}
		return m, m.browse(msg)
	}
	return m, nil
}

func (m *Model) browse(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Prev):
		m.moveTab(-1)
		return tea.ClearScreen
	case key.Matches(msg, m.keys.Next):
		m.moveTab(1)
		return tea.ClearScreen
	case key.Matches(msg, m.keys.Widen):
		m.setCurveWindow(stepWindow(m.cfg.CurveWindow, 1))
	case key.Matches(msg, m.keys.Narrow):
		m.setCurveWindow(stepWindow(m.cfg.CurveWindow, -1))
	case key.Matches(msg, m.keys.Settings):
		return m.settings.start(m.cfg)
	case key.Matches(msg, m.keys.Pick) && m.activeTab == tabGlyphCurves:
		m.picking = true
		m.glyphInput.SetValue(strings.Join(m.glyphSelection, ""))
		return m.glyphInput.Focus()
	case m.activeTab == tabGlyphTable:
		var cmd tea.Cmd
		m.glyphTable, cmd = m.glyphTable.Update(msg)
		return cmd
	case key.Matches(msg, m.keys.Top):
		m.viewports[m.activeTab].GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.viewports[m.activeTab].GotoBottom()
	default:
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) updateSettings(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.settings.close()
	case key.Matches(msg, m.keys.Apply):
		cfg, err := m.settings.submit(m.cfg)
		if err != nil {
			m.settings.err = err.Error()
			return nil
		}
		m.settings.close()
		m.cfg = cfg
		m.refreshReport()
		m.updateLayout()
	case key.Matches(msg, m.keys.NextField):
		return m.settings.focusAt(m.settings.focus + 1)
	case key.Matches(msg, m.keys.PrevField):
		return m.settings.focusAt(m.settings.focus - 1)
	default:
		return m.settings.update(msg)
	}
	return nil
}

func (m *Model) updatePicker(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.picking = false
	case key.Matches(msg, m.keys.Apply):
		m.picking = false
		m.selectGlyphs(glyphset.Split(m.glyphInput.Value()))
		m.loadGlyphAttempts()
		m.renderTabContents()
	default:
		var cmd tea.Cmd
		m.glyphInput, cmd = m.glyphInput.Update(msg)
		return cmd
	}
	return nil
}

// selectGlyphs pins the curve glyphs. An empty selection falls back to the
// most practised glyphs of the report.
func (m *Model) selectGlyphs(glyphs []string) {
	m.glyphSelectionCustom = len(glyphs) > 0
	if m.glyphSelectionCustom {
		m.glyphSelection = glyphs
		return
	}
	m.glyphSelection = stats.TopGlyphsByFrequency(m.report.GlyphAggsAll, defaultCurveN)
}

func (m *Model) moveTab(delta int) {
	m.activeTab = (m.activeTab + tab(delta) + tabCount) % tabCount
	if m.activeTab == tabGlyphTable {
		m.glyphTable.Focus()
	} else {
		m.glyphTable.Blur()
	}
}

func (m *Model) setCurveWindow(n int) {
	m.cfg.CurveWindow = n
	m.refreshReport()
	m.updateLayout()
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	body := m.bodyHeight()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = body
	}
	m.glyphTable.SetWidth(m.width)
	m.glyphTable.SetHeight(body)
	m.settings.setWidth(m.width)
	m.help.Width = m.width
	m.glyphInput.Width = max(10, modalInnerWidth(m.width)-len(m.glyphInput.Prompt))
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		m.renderTabContents()
		return
	}
	m.errMsg = ""
	m.report = report
	if !m.glyphSelectionCustom {
		m.selectGlyphs(nil)
	}
	m.loadGlyphAttempts()
	m.loadLastProgress()
	m.glyphTable.SetRows(glyphRows(report.GlyphAggsAll, m.now()))
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = fallbackWidth
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report.Attempts, m.lastProgress, m.cfg.CurveWindow, width))
	m.viewports[tabGlyphCurves].SetContent(renderGlyphCurves(m.report.Attempts, m.glyphSelection, m.glyphAttempts, m.cfg.CurveWindow, width, m.glyphErrMsg))
}

// loadLastProgress fetches the per-stroke coverage of the newest attempt.
func (m *Model) loadLastProgress() {
	m.lastProgress = nil
	n := len(m.report.Attempts)
	if n == 0 {
		return
	}
	progress, err := m.store.AttemptProgress(context.Background(), m.report.Attempts[n-1].AttemptID)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.lastProgress = progress
}

func (m *Model) loadGlyphAttempts() {
	m.glyphErrMsg = ""
	m.glyphAttempts = nil
	if len(m.report.Attempts) == 0 || len(m.glyphSelection) == 0 {
		return
	}
	ids := stats.AttemptIDs(m.report.Attempts)
	perGlyph, err := m.store.ListGlyphAttempts(context.Background(), ids, m.glyphSelection)
	if err != nil {
		m.glyphErrMsg = err.Error()
		return
	}
	m.glyphAttempts = perGlyph
}

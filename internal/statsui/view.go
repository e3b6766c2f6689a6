package statsui

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/tuitrace/internal/model"
	"github.com/verte-zerg/tuitrace/internal/stats"
)

const (
	plotHeight    = 10
	cardsPerRow   = 4
	narrowCardMax = 80
)

var (
	accent     = lipgloss.Color("#C89A3A")
	dimBorder  = lipgloss.Color("#4A4A4A")
	brightText = lipgloss.Color("#F0F0F0")

	activeTabStyle   = boxStyle(accent).Foreground(brightText).Bold(true)
	inactiveTabStyle = boxStyle(dimBorder).Foreground(lipgloss.Color("#B0B0B0"))
	cardStyle        = boxStyle(dimBorder)
	modalStyle       = boxStyle(accent).Padding(1, 2)

	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(brightText).Bold(true)
	tableStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

func boxStyle(border lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.picking {
		return fit(m.renderPicker(), m.width, m.height)
	}
	head, foot := m.chromeHeights()
	return strings.Join([]string{
		fit(m.renderHeader(), m.width, head),
		fit(m.renderBody(), m.width, m.bodyHeight()),
		fit(m.renderFooter(), m.width, foot),
	}, "\n")
}

// chromeHeights is the height of the tab bar with the settings line, and of
// the footer.
func (m *Model) chromeHeights() (head, foot int) {
	head = lipgloss.Height(activeTabStyle.Render("X")) + 1
	foot = 1
	if m.errMsg != "" && !m.settings.open {
		foot++
	}
	return head, foot
}

func (m *Model) bodyHeight() int {
	head, foot := m.chromeHeights()
	return max(1, m.height-head-foot)
}

func (m *Model) renderHeader() string {
	tabs := make([]string, len(tabTitles))
	for i, title := range tabTitles {
		style := inactiveTabStyle
		if tab(i) == m.activeTab {
			style = activeTabStyle
		}
		tabs[i] = style.Render(title)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n" + mutedStyle.Render(clip(m.describeFilters(), m.width))
}

func (m *Model) describeFilters() string {
	glyph, since, last := "any", "any", "all"
	if m.cfg.Glyph != "" {
		glyph = m.cfg.Glyph
	}
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format(sinceLayout)
	}
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	return fmt.Sprintf("Settings: glyph=%s  since=%s  last=%s  window=%d", glyph, since, last, m.cfg.CurveWindow)
}

func (m *Model) renderFooter() string {
	if m.settings.open {
		return m.help.ShortHelpView(m.keys.editing())
	}
	line := m.help.ShortHelpView(m.keys.browsing(m.activeTab))
	if m.errMsg != "" {
		line += "\n" + errorStyle.Render(m.errMsg)
	}
	return line
}

func (m *Model) renderBody() string {
	switch {
	case m.settings.open:
		return m.settings.view()
	case m.activeTab != tabGlyphTable:
		return m.viewports[m.activeTab].View()
	case len(m.report.Attempts) == 0:
		return "No attempts found."
	case len(m.report.GlyphAggsAll) == 0:
		return "No glyph stats found."
	}
	return tableStyle.Render(m.glyphTable.View())
}

func (m *Model) renderPicker() string {
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join([]string{
		cardValueStyle.Render("Select Glyphs"),
		m.glyphInput.View(),
		mutedStyle.Render("Type glyphs; spaces and commas are ignored. Empty picks the most practised."),
		mutedStyle.Render("Enter to apply / Esc to cancel"),
	}, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func renderOverview(attempts []model.AttemptAggregate, lastProgress []float64, window, width int) string {
	if len(attempts) == 0 {
		return "No attempts found."
	}
	parts := []string{renderSummaryCards(stats.Summarize(attempts), width)}
	if line := renderLastAttempt(attempts[len(attempts)-1], lastProgress); line != "" {
		parts = append(parts, line)
	}
	var buf bytes.Buffer
	if err := stats.RenderCurvesWithSize(&buf, attempts, window, width, plotHeight, true); err != nil {
		parts = append(parts, fmt.Sprintf("Failed to render curves: %v", err))
	} else {
		parts = append(parts, buf.String())
	}
	return strings.TrimRight(strings.Join(parts, "\n\n"), "\n")
}

// renderLastAttempt shows how coverage grew stroke by stroke in the most
// recent attempt.
func renderLastAttempt(last model.AttemptAggregate, progress []float64) string {
	if len(progress) == 0 {
		return ""
	}
	return fmt.Sprintf("Last attempt %s: %s %.0f%% after %d strokes",
		last.Glyph, stats.Sparkline(progress), last.Coverage*100, len(progress))
}

// renderSummaryCards lays the cards out in rows, or stacked when narrow.
func renderSummaryCards(sum stats.Summary, width int) string {
	cards := []string{
		card("Attempts", strconv.Itoa(sum.Attempts)),
		card("Completed", percent(sum.CompletionRate())),
		card("Avg Coverage", percent(sum.AvgCoverage)),
		card("Best Coverage", percent(sum.BestCoverage)),
		card("Avg Strokes", fmt.Sprintf("%.1f", sum.AvgStrokes)),
		card("Avg Time", sum.AvgDuration.Round(100*time.Millisecond).String()),
		card("Glyphs", strconv.Itoa(sum.Glyphs)),
	}
	if width < narrowCardMax {
		return lipgloss.JoinVertical(lipgloss.Left, cards...)
	}
	var rows []string
	for start := 0; start < len(cards); start += cardsPerRow {
		end := min(start+cardsPerRow, len(cards))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[start:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func card(label, value string) string {
	return cardStyle.Render(cardTitleStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func renderGlyphCurves(attempts []model.AttemptAggregate, glyphs []string, perGlyph map[string][]model.AttemptAggregate, window, width int, errMsg string) string {
	switch {
	case len(attempts) == 0:
		return "No attempts found."
	case errMsg != "":
		return "Failed to load glyph curves: " + errMsg
	case len(glyphs) == 0:
		return "No glyphs selected. Press Enter to set glyphs."
	}
	var buf bytes.Buffer
	buf.WriteString(mutedStyle.Render("Glyphs: "+strings.Join(glyphs, ", ")) + "\n")
	if err := stats.RenderGlyphCurvesWithSize(&buf, perGlyph, glyphs, window, width, plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render glyph curves: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func modalWidth(width int) int {
	return max(40, min(width-4, 80))
}

// modalInnerWidth drops the modal border and padding.
func modalInnerWidth(width int) int {
	return max(10, modalWidth(width)-modalStyle.GetHorizontalFrameSize())
}

// fit pads or clips s to exactly width by height cells.
func fit(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	return lipgloss.NewStyle().
		Width(width).MaxWidth(width).
		Height(height).MaxHeight(height).
		Render(s)
}

// clip cuts s to width terminal cells.
func clip(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

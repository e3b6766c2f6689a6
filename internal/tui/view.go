package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/tuitrace/internal/canvas"
	"github.com/verte-zerg/tuitrace/internal/session"
	statsPkg "github.com/verte-zerg/tuitrace/internal/stats"
)

type cellKind int

const (
	cellEmpty cellKind = iota
	cellGuide
	cellGuideEdge
	cellInk
	cellCovered
)

const (
	helpText     = "n next · c clear · / glyph · q quit"
	confettiStep = 120 * time.Millisecond
)

var (
	inkStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	coveredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#32CD32"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	bannerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true)

	flickerFill = mustHex("#FFD700")
	flickerEdge = mustHex("#FF8C00")
	backdrop    = colorful.Color{}

	confettiRunes  = []rune("*+·✦•")
	confettiColors = []string{"#FFD700", "#FFA500", "#FF6347", "#32CD32", "#1E90FF", "#FF69B4", "#9370DB", "#00CED1"}
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	lines := make([]string, 0, m.rows+headerLines+footerLines)
	lines = append(lines, m.renderHeader())
	lines = append(lines, m.renderCanvas()...)
	lines = append(lines, m.renderFooter())
	return strings.Join(lines, "\n")
}

func (m *Model) renderHeader() string {
	segments := []string{m.char}
	if m.info.Pronunciation != "" {
		segments = append(segments, m.info.Pronunciation)
	}
	if m.info.Meaning != "" {
		segments = append(segments, m.info.Meaning)
	}
	switch {
	case m.placeErr != nil:
		line := runewidth.Truncate(strings.Join(segments, " · ")+"  placement failed: "+m.placeErr.Error(), m.width, "…")
		return errorStyle.Render(line)
	case m.placing:
		segments = append(segments, "resolving typeface…")
	case m.target != nil:
		segments = append(segments, "["+m.target.Typeface+"]")
	}
	line := runewidth.Truncate(strings.Join(segments, " · "), m.width, "…")
	return headerStyle.Render(line)
}

func (m *Model) renderCanvas() []string {
	lines := make([]string, 0, m.rows)
	fill := lipgloss.NewStyle().Foreground(lipgloss.Color(flickerColor(flickerFill, m.phase)))
	edge := lipgloss.NewStyle().Foreground(lipgloss.Color(flickerColor(flickerEdge, m.phase)))
	for row := 0; row < m.rows; row++ {
		var b strings.Builder
		var run strings.Builder
		kind := cellEmpty
		flush := func() {
			if run.Len() == 0 {
				return
			}
			switch kind {
			case cellGuide:
				b.WriteString(fill.Render(run.String()))
			case cellGuideEdge:
				b.WriteString(edge.Render(run.String()))
			case cellInk:
				b.WriteString(inkStyle.Render(run.String()))
			case cellCovered:
				b.WriteString(coveredStyle.Render(run.String()))
			default:
				b.WriteString(run.String())
			}
			run.Reset()
		}
		for col := 0; col < m.cols; col++ {
			g := m.guide.Mask(col, row)
			k := m.ink.Mask(col, row)
			next := classify(g, k)
			if next != kind {
				flush()
				kind = next
			}
			if next == cellEmpty {
				run.WriteByte(' ')
				continue
			}
			run.WriteRune(canvas.Rune(g | k))
		}
		flush()
		lines = append(lines, b.String())
	}
	return lines
}

func classify(guide, ink uint8) cellKind {
	switch {
	case guide != 0 && ink != 0:
		return cellCovered
	case ink != 0:
		return cellInk
	case guide == 0xFF:
		return cellGuide
	case guide != 0:
		return cellGuideEdge
	default:
		return cellEmpty
	}
}

// flickerOpacity oscillates between 0.7 and 1.0.
func flickerOpacity(t time.Duration) float64 {
	return 0.7 + 0.3*(math.Sin(2*t.Seconds())+1)/2
}

// mustHex parses a "#rrggbb" literal and panics on malformed input.
func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(fmt.Sprintf("tui: bad colour %q: %v", s, err))
	}
	return c
}

func flickerColor(c colorful.Color, t time.Duration) string {
	return backdrop.BlendRgb(c, flickerOpacity(t)).Clamped().Hex()
}

func (m *Model) progressPercent() int {
	return int(math.Floor(m.sess.Progress() * 100))
}

func (m *Model) renderFooter() string {
	if m.editing {
		return m.input.View()
	}
	if m.celebration != nil {
		return renderBanner(m.char, *m.celebration, m.phase, m.width)
	}
	segments := []string{
		fmt.Sprintf("Progress %d%%", m.progressPercent()),
		fmt.Sprintf("Strokes %d", len(m.sess.Strokes())),
	}
	if m.sess.Drawing() {
		if m.onGlyph {
			segments = append(segments, "on glyph")
		} else {
			segments = append(segments, "off glyph")
		}
	}
	if spark := statsPkg.Sparkline(m.recent); spark != "" {
		segments = append(segments, "Recent "+spark)
	}
	segments = append(segments, helpText)
	footer := strings.Join(segments, "  ")
	if m.width > 0 {
		footer = runewidth.Truncate(footer, m.width, "…")
	}
	return footerStyle.Render(footer)
}

func renderBanner(char string, c session.Completion, phase time.Duration, width int) string {
	msg := fmt.Sprintf(" Well done! %s traced %d%% in %d strokes (%s) ",
		char, int(math.Floor(c.Progress*100)), c.Strokes, c.Elapsed.Round(100*time.Millisecond))
	side := (width - runewidth.StringWidth(msg)) / 2
	if side <= 0 {
		return bannerStyle.Render(runewidth.Truncate(msg, width, "…"))
	}
	step := int(phase / confettiStep)
	return confetti(side, step) + bannerStyle.Render(msg) + confetti(side, step+side)
}

func confetti(n, step int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		idx := i + step
		if idx < 0 {
			idx = -idx
		}
		r := confettiRunes[idx%len(confettiRunes)]
		col := confettiColors[(idx*3)%len(confettiColors)]
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(col)).Render(string(r)))
	}
	return b.String()
}

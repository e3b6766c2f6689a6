package statsui

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuitrace/internal/glyphset"
	"github.com/verte-zerg/tuitrace/internal/model"
)

const sinceLayout = "2006-01-02"

const (
	fieldGlyph = iota
	fieldSince
	fieldLast
	fieldWindow
)

var (
	errSince  = errors.New("invalid since date (expected YYYY-MM-DD)")
	errLast   = errors.New("invalid last value (use 0 or a positive integer)")
	errWindow = errors.New("invalid curve window (use an integer >= 1)")
)

// settingField binds one text input to one report filter.
type settingField struct {
	input textinput.Model
	load  func(model.StatsConfig) string
	save  func(*model.StatsConfig, string) error
}

// settingsForm edits the report filters. Values are only written back to
// the config when every field parses.
type settingsForm struct {
	fields []settingField
	focus  int
	open   bool
	err    string
}

func newSettingsForm() settingsForm {
	return settingsForm{fields: []settingField{
		fieldGlyph:  {input: newInput("Glyph: "), load: loadGlyph, save: saveGlyph},
		fieldSince:  {input: newInput("Since (YYYY-MM-DD): "), load: loadSince, save: saveSince},
		fieldLast:   {input: newInput("Last: "), load: loadLast, save: saveLast},
		fieldWindow: {input: newInput("Curve window: "), load: loadWindow, save: saveWindow},
	}}
}

func newInput(prompt string) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	return in
}

func (f *settingsForm) start(cfg model.StatsConfig) tea.Cmd {
	f.open = true
	f.err = ""
	for i := range f.fields {
		f.fields[i].input.SetValue(f.fields[i].load(cfg))
	}
	return f.focusAt(0)
}

func (f *settingsForm) close() {
	f.open = false
	f.err = ""
}

// focusAt moves focus to field i, wrapping at both ends.
func (f *settingsForm) focusAt(i int) tea.Cmd {
	n := len(f.fields)
	f.focus = (i%n + n) % n
	var cmd tea.Cmd
	for j := range f.fields {
		if j == f.focus {
			cmd = f.fields[j].input.Focus()
			continue
		}
		f.fields[j].input.Blur()
	}
	return cmd
}

func (f *settingsForm) submit(cfg model.StatsConfig) (model.StatsConfig, error) {
	for _, field := range f.fields {
		if err := field.save(&cfg, strings.TrimSpace(field.input.Value())); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func (f *settingsForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

func (f *settingsForm) setWidth(width int) {
	for i := range f.fields {
		in := &f.fields[i].input
		in.Width = max(10, width-lipgloss.Width(in.Prompt)-2)
	}
}

func (f settingsForm) view() string {
	lines := []string{"Settings"}
	for _, field := range f.fields {
		lines = append(lines, field.input.View())
	}
	if f.err != "" {
		lines = append(lines, errorStyle.Render(f.err))
	}
	return strings.Join(lines, "\n")
}

func loadGlyph(c model.StatsConfig) string { return c.Glyph }

// saveGlyph keeps the last glyph typed, so "人木" filters on 木.
func saveGlyph(c *model.StatsConfig, s string) error {
	c.Glyph = ""
	if parts := glyphset.Split(s); len(parts) > 0 {
		c.Glyph = parts[len(parts)-1]
	}
	return nil
}

func loadSince(c model.StatsConfig) string {
	if c.Since == nil {
		return ""
	}
	return c.Since.Format(sinceLayout)
}

func saveSince(c *model.StatsConfig, s string) error {
	if s == "" {
		c.Since = nil
		return nil
	}
	t, err := time.ParseInLocation(sinceLayout, s, time.Local)
	if err != nil {
		return errSince
	}
	c.Since = &t
	return nil
}

func loadLast(c model.StatsConfig) string {
	if c.Last <= 0 {
		return ""
	}
	return strconv.Itoa(c.Last)
}

func saveLast(c *model.StatsConfig, s string) error {
	if s == "" {
		c.Last = 0
		return nil
	}
	n, ok := atLeast(s, 0)
	if !ok {
		return errLast
	}
	c.Last = n
	return nil
}

func loadWindow(c model.StatsConfig) string { return strconv.Itoa(c.CurveWindow) }

// saveWindow leaves the window unchanged when the field is blank.
func saveWindow(c *model.StatsConfig, s string) error {
	if s == "" {
		return nil
	}
	n, ok := atLeast(s, 1)
	if !ok {
		return errWindow
	}
	c.CurveWindow = n
	return nil
}

func atLeast(s string, lo int) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil && n >= lo
}

// stepWindow moves the curve window to the next multiple of five in
// direction dir, never below one.
func stepWindow(n, dir int) int {
	if dir > 0 {
		return (max(n, 0)/5 + 1) * 5
	}
	return max(1, (n-1)/5*5)
}

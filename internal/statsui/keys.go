package statsui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Prev     key.Binding
	Next     key.Binding
	Narrow   key.Binding
	Widen    key.Binding
	Settings key.Binding
	Pick     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Quit     key.Binding

	NextField key.Binding
	PrevField key.Binding
	Apply     key.Binding
	Cancel    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Prev:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev")),
		Next:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
		Narrow:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "narrow")),
		Widen:    key.NewBinding(key.WithKeys("=", "+"), key.WithHelp("=", "widen")),
		Settings: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "settings")),
		Pick:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit glyphs")),
		Top:      key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:   key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Quit:     key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),

		NextField: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		PrevField: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev field")),
		Apply:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// browsing lists the bindings shown while no form is open. Glyph picking
// only exists on the curves tab.
func (k keyMap) browsing(active tab) []key.Binding {
	b := []key.Binding{k.Prev, k.Next, k.Narrow, k.Widen, k.Settings}
	if active == tabGlyphCurves {
		b = append(b, k.Pick)
	}
	return append(b, k.Quit)
}

func (k keyMap) editing() []key.Binding {
	return []key.Binding{k.NextField, k.PrevField, k.Apply, k.Cancel}
}

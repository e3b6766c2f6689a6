package glyphset

import (
	"fmt"
	"strings"

	"github.com/go-text/typesetting/language"
)

// FilterFunc returns true when a glyph should be kept.
type FilterFunc func(string) bool

var scripts = map[string]language.Script{
	"han":      language.Han,
	"latin":    language.Latin,
	"hiragana": language.Hiragana,
	"katakana": language.Katakana,
	"hangul":   language.Hangul,
	"cyrillic": language.Cyrillic,
	"greek":    language.Greek,
	"arabic":   language.Arabic,
}

// ScriptNames lists the accepted script filter names.
func ScriptNames() []string {
	return []string{"any", "han", "latin", "hiragana", "katakana", "hangul", "cyrillic", "greek", "arabic"}
}

// FilterForScript keeps glyphs written in the named script. "" and "any"
// keep everything.
func FilterForScript(name string) (FilterFunc, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "any" {
		return func(string) bool { return true }, nil
	}
	script, ok := scripts[name]
	if !ok {
		return nil, fmt.Errorf("unknown script %q", name)
	}
	return func(glyph string) bool {
		if glyph == "" {
			return false
		}
		matched := false
		for _, r := range glyph {
			switch s := language.LookupScript(r); s {
			case script:
				matched = true
			case language.Common, language.Inherited:
			default:
				return false
			}
		}
		return matched
	}, nil
}

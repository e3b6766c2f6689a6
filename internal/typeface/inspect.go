package typeface

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"golang.org/x/image/font/gofont/goregular"
)

// RuneCoverage tells whether a font maps a rune to a glyph.
type RuneCoverage struct {
	Rune    rune
	Present bool
	Script  language.Script
}

// Inspect reads the character map of the font file at path.
func Inspect(path string, runes []rune) ([]RuneCoverage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open font: %w", err)
	}
	out, err := inspect(data, runes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}
	return out, nil
}

// InspectFallback reads the character map of the embedded fallback.
func InspectFallback(runes []rune) ([]RuneCoverage, error) {
	return inspect(goregular.TTF, runes)
}

func inspect(data []byte, runes []rune) ([]RuneCoverage, error) {
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	out := make([]RuneCoverage, 0, len(runes))
	for _, ru := range runes {
		_, ok := face.NominalGlyph(ru)
		out = append(out, RuneCoverage{
			Rune:    ru,
			Present: ok,
			Script:  language.LookupScript(ru),
		})
	}
	return out, nil
}

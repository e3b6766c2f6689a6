// Package charinfo stores per-character metadata: pronunciation, meaning
// and the reference form that is drawn for practice.
package charinfo

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

const (
	unknownPronunciation = "未知"
	unknownMeaning       = "暂无信息"
)

//go:embed chars.toml
var defaultChars []byte

// Info describes one character.
type Info struct {
	Char          string
	Pronunciation string
	Meaning       string
	Reference     string
	Known         bool
}

type entry struct {
	Pronunciation string `toml:"pronunciation"`
	Meaning       string `toml:"meaning"`
	Reference     string `toml:"reference"`
}

type file struct {
	Chars map[string]entry `toml:"chars"`
}

// DB is a read-only character table.
type DB struct {
	chars map[string]entry
}

var builtin = mustParse(defaultChars)

func mustParse(data []byte) map[string]entry {
	chars, err := parse(string(data))
	if err != nil {
		panic(fmt.Sprintf("charinfo: invalid embedded table: %v", err))
	}
	return chars
}

func parse(data string) (map[string]entry, error) {
	var f file
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, err
	}
	out := make(map[string]entry, len(f.Chars))
	for k, v := range f.Chars {
		key := norm.NFC.String(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		out[key] = v
	}
	return out, nil
}

// Default returns the embedded table.
func Default() *DB {
	chars := make(map[string]entry, len(builtin))
	for k, v := range builtin {
		chars[k] = v
	}
	return &DB{chars: chars}
}

// Load returns the embedded table overlaid with the entries of path.
// A missing file yields the embedded table.
func Load(path string) (*DB, error) {
	db := Default()
	if path == "" {
		return db, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return db, nil
		}
		return nil, fmt.Errorf("failed to read character table: %w", err)
	}
	chars, err := parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode character table: %w", err)
	}
	for k, v := range chars {
		db.chars[k] = v
	}
	return db, nil
}

// Lookup returns the metadata for char if present.
func (db *DB) Lookup(char string) (Info, bool) {
	key := norm.NFC.String(char)
	e, ok := db.chars[key]
	if !ok {
		return Info{}, false
	}
	ref := e.Reference
	if ref == "" {
		ref = key
	}
	return Info{
		Char:          key,
		Pronunciation: e.Pronunciation,
		Meaning:       e.Meaning,
		Reference:     ref,
		Known:         true,
	}, true
}

// Resolve always returns metadata; unknown characters are drawn as
// themselves.
func (db *DB) Resolve(char string) Info {
	if info, ok := db.Lookup(char); ok {
		return info
	}
	key := norm.NFC.String(char)
	return Info{
		Char:          key,
		Pronunciation: unknownPronunciation,
		Meaning:       unknownMeaning,
		Reference:     key,
	}
}

// Chars returns the known characters sorted.
func (db *DB) Chars() []string {
	out := make([]string, 0, len(db.chars))
	for k := range db.chars {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Has reports whether char is in the table.
func (db *DB) Has(char string) bool {
	_, ok := db.chars[norm.NFC.String(char)]
	return ok
}

// LastGlyph returns the last grapheme cluster of the trimmed input.
func LastGlyph(input string) string {
	input = strings.TrimSpace(input)
	var last string
	g := uniseg.NewGraphemes(input)
	for g.Next() {
		last = g.Str()
	}
	return norm.NFC.String(last)
}

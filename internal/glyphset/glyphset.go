// Package glyphset loads the lists of glyphs offered for practice.
package glyphset

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

//go:embed default.txt
var defaultList []byte

// Set is an ordered list of distinct glyphs with optional categories.
type Set struct {
	Glyphs     []string
	categories []string
	category   map[string]string
	index      map[string]struct{}
}

// Default returns the embedded practice list.
func Default() *Set {
	s, err := Parse(bytes.NewReader(defaultList))
	if err != nil {
		panic(fmt.Sprintf("glyphset: invalid embedded list: %v", err))
	}
	return s
}

// Load reads a glyph list file.
func Load(path string) (*Set, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only glyph list.
			_ = cerr
		}
	}()
	return Parse(file)
}

// Parse reads glyphs separated by whitespace. Each grapheme cluster is one
// glyph; duplicates keep their first position.
func Parse(r io.Reader) (*Set, error) {
	s := &Set{category: make(map[string]string), index: make(map[string]struct{})}
	current := ""
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			current = strings.TrimSpace(line[1 : len(line)-1])
			if current != "" {
				s.categories = append(s.categories, current)
			}
			continue
		}
		for _, glyph := range Split(line) {
			if _, ok := s.index[glyph]; ok {
				continue
			}
			s.index[glyph] = struct{}{}
			s.Glyphs = append(s.Glyphs, glyph)
			if current != "" {
				s.category[glyph] = current
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(s.Glyphs) == 0 {
		return nil, fmt.Errorf("glyph list is empty")
	}
	return s, nil
}

// Split breaks s into NFC grapheme clusters, skipping whitespace and
// commas. Order and duplicates are kept.
func Split(s string) []string {
	var out []string
	g := uniseg.NewGraphemes(norm.NFC.String(s))
	for g.Next() {
		cluster := g.Str()
		if cluster == "," || strings.TrimSpace(cluster) == "" {
			continue
		}
		out = append(out, cluster)
	}
	return out
}

// Category returns the category of glyph, or "".
func (s *Set) Category(glyph string) string {
	return s.category[glyph]
}

// Categories returns the category names in file order.
func (s *Set) Categories() []string {
	return append([]string(nil), s.categories...)
}

// Contains reports whether glyph is in the set.
func (s *Set) Contains(glyph string) bool {
	_, ok := s.index[glyph]
	return ok
}

// Filter returns the glyphs kept by keep, preserving order.
func (s *Set) Filter(keep FilterFunc) []string {
	out := make([]string, 0, len(s.Glyphs))
	for _, g := range s.Glyphs {
		if keep(g) {
			out = append(out, g)
		}
	}
	return out
}

// Compare splits glyphs into those known to has and the rest, in order.
func Compare(glyphs []string, has func(string) bool) (present, missing []string) {
	for _, g := range glyphs {
		if has(g) {
			present = append(present, g)
		} else {
			missing = append(missing, g)
		}
	}
	return present, missing
}

// Group buckets glyphs by category. Glyphs without one go under "".
func (s *Set) Group(glyphs []string) map[string][]string {
	out := make(map[string][]string)
	for _, g := range glyphs {
		c := s.category[g]
		out[c] = append(out[c], g)
	}
	return out
}

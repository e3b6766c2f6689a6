// Package typeface locates, loads and chooses the typefaces glyphs are
// rendered with.
package typeface

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flopp/go-findfont"
	"github.com/gogpu/gg/text"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/verte-zerg/tuitrace/internal/logging"
)

// FallbackName names the embedded typeface that is always available.
const FallbackName = "goregular"

const (
	defaultCacheSize  = 16
	defaultSampleSize = 64
	inkThreshold      = 50
)

// ErrNotFound is returned when no font file matches a typeface name.
var ErrNotFound = errors.New("typeface not found")

var fontExtensions = map[string]bool{".ttf": true, ".otf": true}

// Typeface is a parsed font ready for rendering.
type Typeface struct {
	Name   string
	Path   string
	Source *text.FontSource
}

// Entry is a font file known to the library.
type Entry struct {
	Name   string
	Path   string
	System bool
}

// Library finds typefaces in font directories and among system fonts.
// It is safe for concurrent use.
type Library struct {
	dirs       []string
	find       func(string) (string, error)
	list       func() []string
	cache      *lru.Cache[string, *Typeface]
	fallback   *Typeface
	sampleSize float64
}

// LibraryOption configures a Library.
type LibraryOption func(*Library)

// WithSystemLookup replaces the system font lookup. Passing nil find
// disables system fonts.
func WithSystemLookup(find func(string) (string, error), list func() []string) LibraryOption {
	return func(l *Library) {
		l.find = find
		l.list = list
	}
}

// WithSampleSize sets the pixel size used to compare glyph renderings.
func WithSampleSize(size float64) LibraryOption {
	return func(l *Library) {
		if size > 0 {
			l.sampleSize = size
		}
	}
}

// NewLibrary creates a library searching dirs before system fonts.
func NewLibrary(dirs []string, opts ...LibraryOption) (*Library, error) {
	src, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fallback font: %w", err)
	}
	cache, err := lru.New[string, *Typeface](defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create font cache: %w", err)
	}
	l := &Library{
		dirs:       dirs,
		find:       findfont.Find,
		list:       findfont.List,
		cache:      cache,
		fallback:   &Typeface{Name: FallbackName, Source: src},
		sampleSize: defaultSampleSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Fallback returns the embedded typeface.
func (l *Library) Fallback() *Typeface {
	return l.fallback
}

// Promise is a typeface being loaded in the background.
type Promise interface {
	Await(ctx context.Context) (*Typeface, error)
}

type loader struct {
	await func(ctx context.Context) (*Typeface, error)
}

func (p loader) Await(ctx context.Context) (*Typeface, error) {
	return p.await(ctx)
}

type typefacePlusErr struct {
	face *Typeface
	err  error
}

// Load starts loading the named typeface. A cancelled Await does not stop
// the load; a later Load finds the result in the cache.
func (l *Library) Load(name string) Promise {
	ch := make(chan typefacePlusErr, 1)
	go func(ch chan<- typefacePlusErr) {
		face, err := l.load(name)
		ch <- typefacePlusErr{face: face, err: err}
		close(ch)
	}(ch)
	return loader{
		await: func(ctx context.Context) (*Typeface, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case r := <-ch:
				return r.face, r.err
			}
		},
	}
}

func (l *Library) load(name string) (*Typeface, error) {
	key := normalizeName(name)
	if key == "" {
		return nil, fmt.Errorf("%w: empty name", ErrNotFound)
	}
	if key == FallbackName {
		return l.fallback, nil
	}
	if face, ok := l.cache.Get(key); ok {
		return face, nil
	}
	path := l.locate(name)
	if path == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	src, err := text.NewFontSourceFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load typeface %s: %w", name, err)
	}
	face := &Typeface{Name: name, Path: path, Source: src}
	l.cache.Add(key, face)
	logging.L().Debug("typeface loaded", "name", name, "path", path)
	return face, nil
}

// Locate returns the font file a typeface name resolves to. The embedded
// fallback has no file and yields ErrNotFound.
func (l *Library) Locate(name string) (string, error) {
	if path := l.locate(name); path != "" {
		return path, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

func (l *Library) locate(name string) string {
	key := normalizeName(name)
	for _, dir := range l.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !isFontFile(e.Name()) {
				continue
			}
			if normalizeName(e.Name()) == key {
				return filepath.Join(dir, e.Name())
			}
		}
	}
	if l.find == nil {
		return ""
	}
	path, err := l.find(name)
	if err != nil || path == "" {
		return ""
	}
	if !isFontFile(path) {
		return ""
	}
	return path
}

// List returns the font files in the library directories followed by the
// system fonts.
func (l *Library) List() []Entry {
	var out []Entry
	for _, dir := range l.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !isFontFile(e.Name()) {
				continue
			}
			out = append(out, Entry{Name: trimExt(e.Name()), Path: filepath.Join(dir, e.Name())})
		}
	}
	if l.list != nil {
		system := l.list()
		sort.Strings(system)
		for _, path := range system {
			if !isFontFile(path) {
				continue
			}
			out = append(out, Entry{Name: trimExt(filepath.Base(path)), Path: path, System: true})
		}
	}
	return out
}

// Usable reports whether the typeface loads before ctx is done.
func (l *Library) Usable(ctx context.Context, name string) bool {
	_, err := l.Load(name).Await(ctx)
	return err == nil
}

// Get loads a typeface and waits for it.
func (l *Library) Get(ctx context.Context, name string) (*Typeface, error) {
	return l.Load(name).Await(ctx)
}

// GlyphDifference renders glyph with candidate and fallback at the sample
// size and returns the share of ink pixels that differ. A candidate that
// lacks the glyph scores 0.
func (l *Library) GlyphDifference(ctx context.Context, glyph, candidate, fallback string) (float64, error) {
	if glyph == "" {
		return 0, nil
	}
	cand, err := l.Get(ctx, candidate)
	if err != nil {
		return 0, err
	}
	fb, err := l.Get(ctx, fallback)
	if err != nil {
		return 0, err
	}
	cf := cand.Source.Face(l.sampleSize)
	for _, r := range glyph {
		if !cf.HasGlyph(r) {
			return 0, nil
		}
	}
	a := renderSample(glyph, cf, l.sampleSize)
	b := renderSample(glyph, fb.Source.Face(l.sampleSize), l.sampleSize)
	return inkDifference(a, b, inkThreshold), nil
}

func renderSample(glyph string, face text.Face, size float64) *image.Alpha {
	n := int(size * 2)
	img := image.NewAlpha(image.Rect(0, 0, n, n))
	m := face.Metrics()
	x := (float64(n) - face.Advance(glyph)) / 2
	y := float64(n)/2 + (m.Ascent-m.Descent)/2
	text.Draw(img, glyph, face, x, y, image.Opaque.C)
	return img
}

func inkDifference(a, b *image.Alpha, threshold uint8) float64 {
	var diff, union int
	for i := range a.Pix {
		ia := a.Pix[i] > threshold
		ib := b.Pix[i] > threshold
		if ia || ib {
			union++
		}
		if ia != ib {
			diff++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(diff) / float64(union)
}

func isFontFile(name string) bool {
	return fontExtensions[strings.ToLower(filepath.Ext(name))]
}

func trimExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = filepath.Base(name)
	if isFontFile(name) {
		name = trimExt(name)
	}
	name = strings.ToLower(name)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, name)
}

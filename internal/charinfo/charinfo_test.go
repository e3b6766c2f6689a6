package charinfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable(t *testing.T) {
	db := Default()
	assert.Len(t, db.Chars(), 14)
	info, ok := db.Lookup("木")
	require.True(t, ok)
	assert.Equal(t, "mù", info.Pronunciation)
	assert.Equal(t, "树木、木材", info.Meaning)
	assert.Equal(t, "木", info.Reference)
	assert.True(t, info.Known)
}

func TestResolveUnknown(t *testing.T) {
	info := Default().Resolve("龘")
	assert.Equal(t, "龘", info.Reference)
	assert.Equal(t, unknownPronunciation, info.Pronunciation)
	assert.Equal(t, unknownMeaning, info.Meaning)
	assert.False(t, info.Known)
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chars.toml")
	data := `
[chars."手"]
pronunciation = "shǒu"
meaning = "手"
reference = "又"

[chars."木"]
pronunciation = "mu4"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	db, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, db.Chars(), 15)
	assert.Equal(t, "又", db.Resolve("手").Reference)
	assert.Equal(t, "mu4", db.Resolve("木").Pronunciation)
	// The embedded table is not modified by an overlay.
	assert.Equal(t, "mù", Default().Resolve("木").Pronunciation)
}

func TestLoadMissingAndInvalid(t *testing.T) {
	db, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.True(t, db.Has("人"))

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[chars\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestNormalizedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chars.toml")
	// TOML escape for a decomposed "é".
	require.NoError(t, os.WriteFile(path, []byte(`[chars."e\u0301"]`+"\nmeaning = \"accent\"\n"), 0o644))
	db, err := Load(path)
	require.NoError(t, err)
	assert.True(t, db.Has("\u00e9"))
}

func TestLastGlyph(t *testing.T) {
	cases := map[string]string{
		"":                      "",
		"  ":                    "",
		"木":                     "木",
		"山水 ":                   "水",
		"abc":                   "c",
		"e\u0301":               "\u00e9",
		"人\U0001F44D\U0001F3FD": "\U0001F44D\U0001F3FD",
	}
	for in, want := range cases {
		assert.Equal(t, want, LastGlyph(in), "input %q", in)
	}
}

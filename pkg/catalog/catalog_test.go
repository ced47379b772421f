package catalog

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bastiangx/bardbook/pkg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDecode(t *testing.T) {
	input := `[
		{"t": "Vicious Mockery", "s": "cantrip", "a": "PHB"},
		"Your mother was a hamster",
		{"s": "no title"},
		{"t": ""},
		{"t": 5},
		42,
		null
	]`

	entries, err := Decode(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 7)

	assert.Equal(t, search.Card{Title: "Vicious Mockery", Subtitle: "cantrip", Attribution: "PHB"}, entries[0])
	assert.Equal(t, search.Line("Your mother was a hamster"), entries[1])
	for i := 2; i < 7; i++ {
		assert.IsType(t, Unknown{}, entries[i], "element %d", i)
		assert.False(t, search.Evaluate(search.Query{Text: "x"}, entries[i]))
	}
}

func TestDecodeRejectsNonArray(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"t": "not a list"}`))
	assert.True(t, errors.Is(err, ErrInvalidFormat))
}

func TestEncodeRoundTrip(t *testing.T) {
	entries := []search.Entry{
		search.Card{Title: "Thunderwave", Subtitle: "1st level"},
		&search.Card{Title: "Shatter"},
		search.Line("Hold my lute"),
		Unknown{Raw: []byte(`42`)},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, entries))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	require.Len(t, decoded, 4)
	assert.Equal(t, search.Card{Title: "Thunderwave", Subtitle: "1st level"}, decoded[0])
	assert.Equal(t, search.Card{Title: "Shatter"}, decoded[1])
	assert.Equal(t, search.Line("Hold my lute"), decoded[2])
	assert.IsType(t, Unknown{}, decoded[3])
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_spells.json", `[{"t": "Vicious Mockery"}, {"t": "Thunderwave"}]`)
	writeFile(t, dir, "a_insults.txt", "You fight like a dairy farmer\n\n  How appropriate  \n")
	writeFile(t, dir, "c_broken.json", `{"oops": true}`)
	writeFile(t, dir, "notes.md", "ignored")
	writeFile(t, dir, ".hidden.json", `["ignored"]`)

	c, err := Load(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, c.Sections, 2)
	assert.Equal(t, "a_insults", c.Sections[0].Name)
	assert.Equal(t, "b_spells", c.Sections[1].Name)
	assert.Equal(t, 4, c.Len())

	items := c.All()
	assert.Equal(t, search.Line("How appropriate"), items[1].Entry)
	assert.Equal(t, "b_spells", items[2].Section)
	assert.Equal(t, 0, items[2].Index)

	section, ok := c.Section("b_spells")
	require.True(t, ok)
	assert.Len(t, section.Entries, 2)

	assert.Equal(t, 4, len(c.Entries()))
	assert.Equal(t, 0, c.Stats()["malformed"])
}

func TestLoadEmptyDir(t *testing.T) {
	_, err := Load(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestLoadCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "spells.json", `["x"]`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ok.json", "\n  [\"x\"]")
	writeFile(t, dir, "tiny.json", "[")
	writeFile(t, dir, "object.json", `{"t": "x"}`)
	writeFile(t, dir, "lines.txt", "x")

	assert.NoError(t, ValidateFile(filepath.Join(dir, "ok.json")))
	assert.NoError(t, ValidateFile(filepath.Join(dir, "lines.txt")))
	assert.ErrorIs(t, ValidateFile(filepath.Join(dir, "tiny.json")), ErrInvalidFormat)
	assert.ErrorIs(t, ValidateFile(filepath.Join(dir, "object.json")), ErrInvalidFormat)
	assert.ErrorIs(t, ValidateFile(filepath.Join(dir, "x.yaml")), ErrInvalidFormat)
}

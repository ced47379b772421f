package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"vicious", "mockery"}, Words("  Vicious   Mockery! "))
	assert.Equal(t, []string{"don't", "x-ray"}, Words("\"Don't\" (x-ray)"))
	assert.Empty(t, Words("... !!"))
}

func TestFormatWithCommas(t *testing.T) {
	testCases := map[int]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		12345:    "12,345",
		123456:   "123,456",
		-1234567: "-1,234,567",
	}
	for n, want := range testCases {
		assert.Equal(t, want, FormatWithCommas(n), "n=%d", n)
	}
}

func TestIsValidPrefix(t *testing.T) {
	assert.True(t, IsValidPrefix("vic"))
	assert.True(t, IsValidPrefix("don't"))
	assert.False(t, IsValidPrefix(""))
	assert.False(t, IsValidPrefix("123"))
	assert.False(t, IsValidPrefix("ab$"))
	assert.False(t, IsValidPrefix("ddd"))
}

func TestSuggestionFilter(t *testing.T) {
	f := NewSuggestionFilter("Vic")
	assert.False(t, f.ShouldInclude("vic"))
	assert.True(t, f.ShouldInclude("vicious"))
	assert.False(t, f.ShouldInclude("Vicious"))
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.bin")
	require.NoError(t, WriteFileAtomic(path, []byte("one"), 0o600))
	require.NoError(t, WriteFileAtomic(path, []byte("two"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should not be left behind")
}

func TestExtractHelpers(t *testing.T) {
	data := map[string]any{
		"addr":    "127.0.0.1:8080",
		"limit":   int64(7),
		"color":   true,
		"origins": []any{"https://a.example", 3, "https://b.example"},
	}

	s, ok := ExtractString(data, "addr")
	assert.True(t, ok)
	assert.Equal(t, "127.0.0.1:8080", s)

	n, ok := ExtractInt64(data, "limit")
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	b, ok := ExtractBool(data, "color")
	assert.True(t, ok)
	assert.True(t, b)

	origins, ok := ExtractStringSlice(data, "origins")
	assert.True(t, ok)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, origins)

	_, ok = ExtractString(data, "limit")
	assert.False(t, ok)
}

package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestMemoryStore(t *testing.T) {
	var s Store = NewMemoryStore()

	_, ok, err := s.Get("fuzzySearchEnabled")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("fuzzySearchEnabled", "false"))
	v, ok, err := s.Get("fuzzySearchEnabled")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "false", v)
}

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.msgpack")

	s, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("fuzzySearchEnabled", "false"))

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	v, ok, err := reopened.Get("fuzzySearchEnabled")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "false", v)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]string
	require.NoError(t, msgpack.Unmarshal(data, &raw))
	assert.Equal(t, "false", raw["blingus_fuzzySearchEnabled"], "keys are prefixed on disk")
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.msgpack")
	require.NoError(t, os.WriteFile(path, []byte{0xc1, 0xff, 0x00}, 0o600))

	s, err := OpenFile(path)
	require.NoError(t, err)
	_, ok, _ := s.Get("fuzzySearchEnabled")
	assert.False(t, ok)

	require.NoError(t, s.Set("fuzzySearchEnabled", "true"))
	reopened, err := OpenFile(path)
	require.NoError(t, err)
	v, _, _ := reopened.Get("fuzzySearchEnabled")
	assert.Equal(t, "true", v)
}

func TestFileStoreRollsBackOnWriteError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "sub")

	s, err := OpenFile(filepath.Join(blocker, "prefs.msgpack"))
	require.NoError(t, err)

	// a plain file where the directory should be makes the write fail
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	assert.Error(t, s.Set("fuzzySearchEnabled", "false"))
	_, ok, _ := s.Get("fuzzySearchEnabled")
	assert.False(t, ok)
}

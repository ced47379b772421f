// Package prefs is the small key-value store behind persisted UI preferences.
// Keys are namespaced with KeyPrefix on disk so several apps can share a file.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/bastiangx/bardbook/internal/utils"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// KeyPrefix namespaces every stored key.
const KeyPrefix = "blingus_"

// Store reads and writes string preferences.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// MemoryStore keeps preferences for the life of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[KeyPrefix+key]
	return v, ok, nil
}

// Set stores value under key.
func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[KeyPrefix+key] = value
	return nil
}

// FileStore persists preferences as a msgpack map, rewriting the whole file
// atomically on every Set.
type FileStore struct {
	path   string
	mu     sync.RWMutex
	values map[string]string
}

// OpenFile loads the store at path. A missing file is an empty store; a
// corrupt one is logged and replaced on the next Set.
func OpenFile(path string) (*FileStore, error) {
	fs := &FileStore{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences %s: %w", path, err)
	}
	if len(data) == 0 {
		return fs, nil
	}
	if err := msgpack.Unmarshal(data, &fs.values); err != nil {
		log.Warnf("Preferences file %s is corrupt, starting empty: %v", path, err)
		fs.values = make(map[string]string)
	}
	return fs, nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Get returns the value stored under key.
func (f *FileStore) Get(key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[KeyPrefix+key]
	return v, ok, nil
}

// Set stores value under key and flushes the file. On a write error the
// in-memory value is rolled back.
func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := KeyPrefix + key
	old, had := f.values[k]
	f.values[k] = value

	data, err := msgpack.Marshal(f.values)
	if err == nil {
		err = utils.WriteFileAtomic(f.path, data, 0o600)
	}
	if err != nil {
		if had {
			f.values[k] = old
		} else {
			delete(f.values, k)
		}
		return fmt.Errorf("failed to save preference %s: %w", key, err)
	}
	return nil
}

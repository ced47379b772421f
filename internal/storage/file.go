package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bastiangx/bardbook/internal/utils"
	"github.com/charmbracelet/log"
)

// DataFileName is the document file inside the data dir.
const DataFileName = "blingus-data.json"

// FileStore keeps the document as one pretty-printed JSON file.
type FileStore struct {
	path     string
	maxBytes int
	clock    Clock

	mu sync.Mutex
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithClock overrides the time source.
func WithClock(c Clock) FileOption {
	return func(f *FileStore) { f.clock = c }
}

// WithMaxBytes overrides the document size limit.
func WithMaxBytes(n int) FileOption {
	return func(f *FileStore) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// NewFileStore creates the data dir if needed and returns a store writing
// DataFileName inside it.
func NewFileStore(dir string, opts ...FileOption) (*FileStore, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}
	f := &FileStore{path: filepath.Join(dir, DataFileName), maxBytes: DefaultMaxBytes}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Path returns the document path.
func (f *FileStore) Path() string {
	return f.path
}

// Save implements Backend.
func (f *FileStore) Save(ctx context.Context, data map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	stamp := f.clock.stamp()
	doc, err := json.MarshalIndent(stamped(data, stamp), "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to encode data: %w", err)
	}
	if len(doc) > f.maxBytes {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(doc), f.maxBytes)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := utils.WriteFileAtomic(f.path, doc, 0o644); err != nil {
		return "", fmt.Errorf("failed to save data: %w", err)
	}
	log.Debugf("Saved %d bytes to %s", len(doc), f.path)
	return stamp, nil
}

// Load implements Backend.
func (f *FileStore) Load(ctx context.Context) (map[string]any, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	f.mu.Lock()
	raw, err := os.ReadFile(f.path)
	f.mu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read data: %w", err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, "", fmt.Errorf("saved data is corrupt: %w", err)
	}
	if data == nil {
		return nil, "", ErrNotFound
	}
	return data, timestampOf(data), nil
}

// Close implements Backend.
func (f *FileStore) Close() error {
	return nil
}

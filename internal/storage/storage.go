// Package storage implements the save/load backends behind the sync endpoints.
//
// A saved document is a JSON object of user data. Every save stamps it with
// a server timestamp; loads return the document and its best timestamp.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("no saved data found")

// ErrTooLarge is returned by Save when the encoded document exceeds the size limit.
var ErrTooLarge = errors.New("data too large")

// DefaultMaxBytes caps a saved document.
const DefaultMaxBytes = 10 << 20

const (
	// KeyTimestamp is the client-supplied save time.
	KeyTimestamp = "timestamp"
	// KeyServerTimestamp is stamped by the backend on every save.
	KeyServerTimestamp = "serverTimestamp"
)

// TimestampLayout is ISO-8601 with a numeric zone offset.
const TimestampLayout = "2006-01-02T15:04:05-07:00"

// AllowedKeys are the document keys the SQLite backend persists.
var AllowedKeys = []string{
	"favorites", "userItems", "deletedDefaults", "history",
	"voicePresets", "generators", "editedGeneratorDefaults",
	"deletedGeneratorDefaults", "darkMode", "version",
	KeyTimestamp, KeyServerTimestamp,
}

// Backend persists one user data document.
type Backend interface {
	// Save stores data and returns the server timestamp it was stamped with.
	Save(ctx context.Context, data map[string]any) (stamp string, err error)
	// Load returns the stored document and its timestamp, or ErrNotFound.
	Load(ctx context.Context) (data map[string]any, stamp string, err error)
	Close() error
}

// Clock returns the current time.
type Clock func() time.Time

func (c Clock) stamp() string {
	if c == nil {
		return time.Now().Format(TimestampLayout)
	}
	return c().Format(TimestampLayout)
}

// stamped returns a shallow copy of data with the server timestamp set.
func stamped(data map[string]any, stamp string) map[string]any {
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out[KeyServerTimestamp] = stamp
	return out
}

// timestampOf returns the server timestamp, else the client timestamp, else "".
func timestampOf(data map[string]any) string {
	for _, key := range []string{KeyServerTimestamp, KeyTimestamp} {
		if s, ok := data[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Backend kinds accepted by Open.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Open returns the backend of the given kind rooted at dir.
func Open(ctx context.Context, kind, dir string) (Backend, error) {
	switch kind {
	case KindFile, "":
		return NewFileStore(dir)
	case KindSQLite:
		return OpenSQLiteDir(ctx, dir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}

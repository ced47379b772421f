package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bastiangx/bardbook/internal/utils"
	"github.com/charmbracelet/log"
)

// DBFileName is the SQLite database inside the data dir.
const DBFileName = "blingus-sync.db"

// DefaultUserID owns every row until per-user auth exists.
const DefaultUserID = "default"

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLiteStore keeps one row per allow-listed document key.
type SQLiteStore struct {
	db     *sql.DB
	userID string
	clock  Clock
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithSQLiteClock overrides the time source.
func WithSQLiteClock(c Clock) SQLiteOption {
	return func(s *SQLiteStore) { s.clock = c }
}

// WithUserID scopes the store to one user.
func WithUserID(id string) SQLiteOption {
	return func(s *SQLiteStore) {
		if id != "" {
			s.userID = id
		}
	}
}

// openDatabase opens a SQLite connection with the pragmas the store relies on.
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// WAL is not available for in-memory databases; SQLite keeps "memory" there
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// single writer; also keeps ":memory:" on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

// OpenSQLiteDir opens DBFileName inside dir, creating the dir if needed.
func OpenSQLiteDir(ctx context.Context, dir string, opts ...SQLiteOption) (*SQLiteStore, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}
	return NewSQLiteStore(ctx, filepath.Join(dir, DBFileName), opts...)
}

// NewSQLiteStore opens the database at dbPath (":memory:" works) and applies
// pending migrations.
func NewSQLiteStore(ctx context.Context, dbPath string, opts ...SQLiteOption) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := ApplyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	s := &SQLiteStore{db: db, userID: DefaultUserID}
	for _, opt := range opts {
		opt(s)
	}
	log.Debugf("SQLite store ready at %s (driver %s, %s)", dbPath, DriverName, BuildMode)
	return s, nil
}

// DB exposes the underlying handle for maintenance tasks.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Save implements Backend. Keys outside AllowedKeys are dropped. All rows are
// written in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, data map[string]any) (stamp string, err error) {
	stamp = s.clock.stamp()
	doc := stamped(data, stamp)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Errorf("Rollback failed: %v", rbErr)
			}
		}
	}()

	if err = s.saveKeys(ctx, tx, doc); err != nil {
		return "", err
	}
	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return stamp, nil
}

func (s *SQLiteStore) saveKeys(ctx context.Context, q querier, doc map[string]any) error {
	const upsert = `INSERT OR REPLACE INTO user_data (user_id, data_key, data_value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)`

	written := 0
	for _, key := range AllowedKeys {
		value, ok := doc[key]
		if !ok || value == nil {
			continue
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		if _, err := q.ExecContext(ctx, upsert, s.userID, key, string(encoded)); err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
		written++
	}
	if dropped := len(doc) - written; dropped > 0 {
		log.Debugf("Dropped %d keys outside the allow-list", dropped)
	}
	return nil
}

// Load implements Backend.
func (s *SQLiteStore) Load(ctx context.Context) (map[string]any, string, error) {
	data, err := s.loadKeys(ctx, s.db)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", ErrNotFound
	}
	return data, timestampOf(data), nil
}

func (s *SQLiteStore) loadKeys(ctx context.Context, q querier) (map[string]any, error) {
	rows, err := q.QueryContext(ctx, "SELECT data_key, data_value FROM user_data WHERE user_id = ?", s.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	defer rows.Close()

	data := make(map[string]any)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		data[key] = value
	}
	return data, rows.Err()
}

// Close implements Backend.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jrsteele09/fpl-companion/storage"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS mirror_entries (
	entry_key   TEXT PRIMARY KEY,
	payload     BLOB NOT NULL,
	updated_at  INTEGER NOT NULL
)`

var _ storage.Store = (*Store)(nil)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Store provides SQLite-backed persistence for mirrored entities.
type Store struct {
	sqlDB   *sql.DB
	timeout time.Duration
}

// Open opens and migrates a mirror SQLite store.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB, timeout: 5 * time.Second}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Get(key string) ([]byte, bool, error) {
	key, err := storage.ValidateKey(key)
	if err != nil {
		return nil, false, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, false, fmt.Errorf("storage is not configured")
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var payload []byte
	row := s.sqlDB.QueryRowContext(ctx, `SELECT payload FROM mirror_entries WHERE entry_key = ?`, key)
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get mirror entry: %w", err)
	}
	return payload, true, nil
}

func (s *Store) Set(key string, value []byte) error {
	key, err := storage.ValidateKey(key)
	if err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if value == nil {
		value = []byte{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO mirror_entries (entry_key, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(entry_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, value, NowTimeFunc().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put mirror entry: %w", err)
	}
	return nil
}

func (s *Store) Remove(key string) error {
	key, err := storage.ValidateKey(key)
	if err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM mirror_entries WHERE entry_key = ?`, key); err != nil {
		return fmt.Errorf("delete mirror entry: %w", err)
	}
	return nil
}

// UpdatedAt reports when key was last written.
func (s *Store) UpdatedAt(key string) (time.Time, bool, error) {
	key, err := storage.ValidateKey(key)
	if err != nil {
		return time.Time{}, false, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var millis int64
	row := s.sqlDB.QueryRowContext(ctx, `SELECT updated_at FROM mirror_entries WHERE entry_key = ?`, key)
	if err := row.Scan(&millis); err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("get mirror timestamp: %w", err)
	}
	return time.UnixMilli(millis).UTC(), true, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"github.com/serroba/link-registry/internal/registry"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
);
`

const sqliteEntriesKey = "shortened_urls"

// SQLiteStore keeps the serialized collection in a single row of a local SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLiteStore opens (or creates) the database at path and applies the schema.
func OpenSQLiteStore(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// One connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	_, _ = db.Exec("PRAGMA busy_timeout = 5000;")
	_, _ = db.Exec("PRAGMA journal_mode = WAL;")

	if _, err = db.Exec(sqliteSchema); err != nil {
		_ = db.Close()

		return nil, err
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) ([]registry.Entry, error) {
	var data []byte

	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, sqliteEntriesKey).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []registry.Entry{}, nil
		}

		return nil, registry.ReadFailed(err)
	}

	return decodeOrEmpty(data, s.logger, "sqlite"), nil
}

func (s *SQLiteStore) Save(ctx context.Context, entries []registry.Entry) error {
	data, err := registry.EncodeEntries(entries)
	if err != nil {
		return registry.WriteFailed(err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		sqliteEntriesKey, data,
	)
	if err != nil {
		return registry.WriteFailed(err)
	}

	return nil
}

// Ping checks the database file is usable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Shutdown closes the database.
func (s *SQLiteStore) Shutdown() error {
	return s.db.Close()
}

var _ registry.Store = (*SQLiteStore)(nil)

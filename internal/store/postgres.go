package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/link-registry/internal/registry"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS entries (
	id               TEXT PRIMARY KEY,
	position         INTEGER NOT NULL,
	short_code       TEXT NOT NULL UNIQUE,
	original_url     TEXT NOT NULL,
	custom_code      TEXT,
	created_at       TIMESTAMPTZ NOT NULL,
	expires_at       TIMESTAMPTZ NOT NULL,
	validity_minutes INTEGER NOT NULL,
	CHECK (expires_at > created_at)
);

CREATE TABLE IF NOT EXISTS clicks (
	entry_id   TEXT NOT NULL REFERENCES entries (id) ON DELETE CASCADE,
	seq        INTEGER NOT NULL,
	clicked_at TIMESTAMPTZ NOT NULL,
	source     TEXT NOT NULL,
	location   TEXT NOT NULL,
	PRIMARY KEY (entry_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_entries_expires_at ON entries (expires_at);
`

// PostgresStore is a PostgreSQL implementation of registry.Store.
// Entries and clicks are stored as rows; Save replaces them inside one transaction.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed entry store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the schema if it does not exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, postgresSchema)

	return err
}

func (p *PostgresStore) Load(ctx context.Context) ([]registry.Entry, error) {
	query := `
		SELECT id, short_code, original_url, COALESCE(custom_code, ''),
		       created_at, expires_at, validity_minutes
		FROM entries
		ORDER BY position
	`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, registry.ReadFailed(err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (registry.Entry, error) {
		var e registry.Entry

		err := row.Scan(
			&e.ID,
			&e.ShortCode,
			&e.OriginalURL,
			&e.CustomCode,
			&e.CreatedAt,
			&e.ExpiresAt,
			&e.ValidityMinutes,
		)
		e.CreatedAt = e.CreatedAt.UTC()
		e.ExpiresAt = e.ExpiresAt.UTC()
		e.Clicks = []registry.Click{}

		return e, err
	})
	if err != nil {
		return nil, registry.ReadFailed(err)
	}

	if err = p.loadClicks(ctx, entries); err != nil {
		return nil, registry.ReadFailed(err)
	}

	return entries, nil
}

func (p *PostgresStore) loadClicks(ctx context.Context, entries []registry.Entry) error {
	query := `
		SELECT entry_id, clicked_at, source, location
		FROM clicks
		ORDER BY entry_id, seq
	`

	index := make(map[string]int, len(entries))
	for i := range entries {
		index[entries[i].ID] = i
	}

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			entryID string
			click   registry.Click
		)

		if err = rows.Scan(&entryID, &click.Timestamp, &click.Referrer, &click.Location); err != nil {
			return err
		}

		if i, ok := index[entryID]; ok {
			click.Timestamp = click.Timestamp.UTC()
			entries[i].Clicks = append(entries[i].Clicks, click)
		}
	}

	return rows.Err()
}

func (p *PostgresStore) Save(ctx context.Context, entries []registry.Entry) error {
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM entries"); err != nil {
			return err
		}

		entryRows := make([][]any, 0, len(entries))
		clickRows := make([][]any, 0)

		for i := range entries {
			e := &entries[i]
			entryRows = append(entryRows, []any{
				e.ID, i, string(e.ShortCode), e.OriginalURL, nullableString(e.CustomCode),
				e.CreatedAt, e.ExpiresAt, e.ValidityMinutes,
			})

			for seq, c := range e.Clicks {
				clickRows = append(clickRows, []any{e.ID, seq, c.Timestamp, c.Referrer, c.Location})
			}
		}

		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"entries"},
			[]string{
				"id", "position", "short_code", "original_url", "custom_code",
				"created_at", "expires_at", "validity_minutes",
			},
			pgx.CopyFromRows(entryRows),
		); err != nil {
			return fmt.Errorf("copy entries: %w", err)
		}

		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"clicks"},
			[]string{"entry_id", "seq", "clicked_at", "source", "location"},
			pgx.CopyFromRows(clickRows),
		); err != nil {
			return fmt.Errorf("copy clicks: %w", err)
		}

		return nil
	})
	if err != nil {
		return registry.WriteFailed(err)
	}

	return nil
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return p.pool.Ping(ctx)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

var _ registry.Store = (*PostgresStore)(nil)

package kv

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// DefaultPostgresDSN is used when no DSN is configured
const DefaultPostgresDSN = "postgres://localhost:5432/ironvault?sslmode=disable"

var postgresDialect = dialect{
	nextRevision:   `SELECT nextval('kv_revision_seq')`,
	get:            `SELECT value, revision, updated_at FROM kv WHERE key = $1`,
	upsert:         `INSERT INTO kv (key, value, revision, updated_at) VALUES ($1, $2, $3, $4) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, revision = EXCLUDED.revision, updated_at = EXCLUDED.updated_at`,
	insertIfAbsent: `INSERT INTO kv (key, value, revision, updated_at) VALUES ($1, $2, $3, $4) ON CONFLICT (key) DO NOTHING`,
	updateIf:       `UPDATE kv SET value = $2, revision = $3, updated_at = $4 WHERE key = $1 AND revision = $5`,
	remove:         `DELETE FROM kv WHERE key = $1`,
	removeIf:       `DELETE FROM kv WHERE key = $1 AND revision = $2`,
}

var postgresMigrations = []string{
	`CREATE SEQUENCE IF NOT EXISTS kv_revision_seq;`,
	`CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value BYTEA NOT NULL,
    revision BIGINT NOT NULL,
    updated_at TEXT NOT NULL
);`,
}

// OpenPostgres connects to Postgres, letting several hosts share one vault
func OpenPostgres(ctx context.Context, dsn string) (Storage, error) {
	if dsn == "" {
		dsn = DefaultPostgresDSN
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := migrate(db, postgresMigrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &sqlStore{db: db, d: postgresDialect}, nil
}

package kv

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DefaultSQLitePath returns the default database path (~/.ironvault/vault.db)
func DefaultSQLitePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".ironvault", "vault.db"), nil
}

var sqliteDialect = dialect{
	nextRevision:   `UPDATE kv_sequence SET value = value + 1 WHERE id = 1 RETURNING value`,
	get:            `SELECT value, revision, updated_at FROM kv WHERE key = ?`,
	upsert:         `INSERT INTO kv (key, value, revision, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value, revision = excluded.revision, updated_at = excluded.updated_at`,
	insertIfAbsent: `INSERT INTO kv (key, value, revision, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT(key) DO NOTHING`,
	updateIf:       `UPDATE kv SET value = ?2, revision = ?3, updated_at = ?4 WHERE key = ?1 AND revision = ?5`,
	remove:         `DELETE FROM kv WHERE key = ?`,
	removeIf:       `DELETE FROM kv WHERE key = ? AND revision = ?`,
}

// OpenSQLite opens or creates the SQLite database at path
func OpenSQLite(path string) (Storage, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps pragmas in effect and serialises writers of
	// this process; other processes wait on busy_timeout.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode = WAL"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := migrate(db, sqliteMigrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &sqlStore{db: db, d: sqliteDialect}, nil
}

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    revision INTEGER NOT NULL,
    updated_at TEXT NOT NULL
);`,
	`CREATE TABLE IF NOT EXISTS kv_sequence (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    value INTEGER NOT NULL
);`,
	`INSERT OR IGNORE INTO kv_sequence (id, value) VALUES (1, 0);`,
}

// migrate runs all migrations in order
func migrate(db *sql.DB, migrations []string) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

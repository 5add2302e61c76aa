// Package sqlite stores collections as whole JSON values in a single
// sqlite database file, one row per collection. Useful for deployments
// that prefer a single db file over a directory of JSON files; the
// whole-collection semantics are identical.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Backend implements storage.Backend over sqlite.
type Backend struct {
	db *sql.DB
}

// New opens (or creates) the database at path, verifies the connection
// and ensures the collections table exists. The caller should Close the
// backend when done.
func New(path string) (*Backend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			data BLOB NOT NULL
		)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Backend{db: db}, nil
}

// Close closes the underlying database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// Read returns the stored value for a collection, or nil if it has never
// been written.
func (b *Backend) Read(ctx context.Context, collection string) ([]byte, error) {
	var data []byte
	err := b.db.QueryRowContext(ctx,
		`SELECT data FROM collections WHERE name = ?`, collection,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write upserts the whole collection value.
func (b *Backend) Write(ctx context.Context, collection string, data []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO collections (name, data)
		VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET data = excluded.data`,
		collection, data,
	)
	return err
}

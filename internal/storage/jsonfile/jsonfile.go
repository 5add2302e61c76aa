// Package jsonfile stores each collection as <name>.json in a data
// directory, replaced atomically via temp file + rename.
package jsonfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Backend implements storage.Backend over a directory of JSON files.
type Backend struct {
	dir string
}

// New creates the data directory if needed and returns a Backend.
func New(dir string) (*Backend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Backend{dir: dir}, nil
}

func (b *Backend) path(collection string) string {
	return filepath.Join(b.dir, collection+".json")
}

// Read returns the raw file contents, or nil if the collection has never
// been written.
func (b *Backend) Read(ctx context.Context, collection string) ([]byte, error) {
	data, err := os.ReadFile(b.path(collection))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Write replaces the collection file. The temp file + rename keeps the
// previous contents intact if the process dies mid-write.
func (b *Backend) Write(ctx context.Context, collection string, data []byte) error {
	tmp, err := os.CreateTemp(b.dir, collection+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path(collection)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

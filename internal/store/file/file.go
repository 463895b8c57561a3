// Package file stores documents as JSON files in a local directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"keuangan/internal/store"
)

// Documents reads and writes <dir>/<name>.
type Documents struct {
	dir string
}

func NewDocuments(dir string) (*Documents, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Documents{dir: dir}, nil
}

// New returns a store that creates missing documents on first load.
func New(dir string) (*store.JSONStore, error) {
	docs, err := NewDocuments(dir)
	if err != nil {
		return nil, err
	}
	return store.NewJSONStore(docs, store.SeedMissing()), nil
}

func (d *Documents) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(filepath.Join(d.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, store.ErrNoDocument
	}
	return b, err
}

// Put replaces the file through a temporary sibling and a rename so readers
// never observe a half-written document.
func (d *Documents) Put(ctx context.Context, name string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(d.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(d.dir, name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

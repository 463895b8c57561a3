// Package sqlite keeps the ledger documents in a single-file SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"keuangan/internal/store"
)

const (
	getDocument = `SELECT body FROM documents WHERE name = ?`
	putDocument = `INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`
)

// Repository implements store.Documents on a documents table.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{db: db, now: time.Now}, nil
}

// New opens dbPath and returns a JSON store over it with the repository's
// Close for cleanup.
func New(dbPath string) (*store.JSONStore, func() error, error) {
	repo, err := NewRepository(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return store.NewJSONStore(repo), repo.Close, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, name string) ([]byte, error) {
	var body []byte
	err := r.db.QueryRowContext(ctx, getDocument, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("select document %s: %w", name, err)
	}
	return body, nil
}

func (r *Repository) Put(ctx context.Context, name string, body []byte) error {
	_, err := r.db.ExecContext(ctx, putDocument, name, body, r.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", name, err)
	}
	return nil
}

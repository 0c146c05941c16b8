package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS inspections (
	iid                INTEGER PRIMARY KEY AUTOINCREMENT,
	number             TEXT NOT NULL UNIQUE,
	transformer_number TEXT NOT NULL DEFAULT '',
	inspection_date    TEXT NOT NULL DEFAULT '',
	maintenance_date   TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL DEFAULT '',
	inspector          TEXT NOT NULL DEFAULT '',
	ref_image          TEXT NOT NULL DEFAULT '',
	anomalies          TEXT NOT NULL DEFAULT '[]',
	anomalies_log      TEXT NOT NULL DEFAULT '[]',
	version            INTEGER NOT NULL DEFAULT 1,
	created_at         INTEGER NOT NULL
);`

// NewSQLiteInspectionRepository открывает файл SQLite и применяет схему.
func NewSQLiteInspectionRepository(ctx context.Context, path string) (*SQLInspectionRepository, error) {
	if path == "" {
		path = "vision-inspector.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite держит одного писателя.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}

	repo, err := newSQLInspectionRepository(ctx, db, dialect{name: "sqlite", schema: sqliteSchema})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

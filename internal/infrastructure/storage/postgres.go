package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const (
	postgresDriver = "pgx"
	defaultDSN     = "postgres://localhost/vision_inspector?sslmode=disable"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS inspections (
	iid                BIGSERIAL PRIMARY KEY,
	number             TEXT NOT NULL UNIQUE,
	transformer_number TEXT NOT NULL DEFAULT '',
	inspection_date    TEXT NOT NULL DEFAULT '',
	maintenance_date   TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL DEFAULT '',
	inspector          TEXT NOT NULL DEFAULT '',
	ref_image          TEXT NOT NULL DEFAULT '',
	anomalies          JSONB NOT NULL DEFAULT '[]'::jsonb,
	anomalies_log      JSONB NOT NULL DEFAULT '[]'::jsonb,
	version            BIGINT NOT NULL DEFAULT 1,
	created_at         BIGINT NOT NULL
)`

// NewPostgresInspectionRepository подключается к Postgres и применяет схему.
func NewPostgresInspectionRepository(ctx context.Context, dsn string) (*SQLInspectionRepository, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sql.Open(postgresDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	repo, err := newSQLInspectionRepository(ctx, db, dialect{
		name:     "postgres",
		schema:   postgresSchema,
		jsonCast: "::jsonb",
		numbered: true,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

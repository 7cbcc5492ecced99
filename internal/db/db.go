// Package db provides PostgreSQL-backed state storage: the last-known
// inventory map, the post map, cached sticker documents, the run lease, and
// the append-only run event log.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// schemaStatements creates the tables the engine needs. Statements are
// idempotent so Init can run on every start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS inventory (
		stock_id   TEXT PRIMARY KEY,
		vin        TEXT NOT NULL,
		price      BIGINT NOT NULL,
		year       INT,
		make       TEXT,
		model      TEXT,
		trim       TEXT,
		mileage    INT,
		url        TEXT,
		photo_urls TEXT[],
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		stock_id   TEXT PRIMARY KEY,
		post_id    TEXT NOT NULL,
		base_text  TEXT NOT NULL,
		state      TEXT NOT NULL,
		last_price BIGINT NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS stickers (
		vin          TEXT PRIMARY KEY,
		storage_path TEXT NOT NULL,
		content      BYTEA NOT NULL,
		fetched_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS run_events (
		run_id      UUID PRIMARY KEY,
		started_at  TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		dry_run     BOOLEAN NOT NULL,
		report      JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS run_lease (
		id         INT PRIMARY KEY,
		holder     TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
}

// Init creates the tables the engine needs when they do not exist yet.
func (db *DB) Init(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

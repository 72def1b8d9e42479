// Package db is the persistence adapter: an opaque store keyed by analysis
// id with idempotent upserts keyed by the core's stable node/edge ids.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// DB wraps the database connection pool
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Str("host", config.ConnConfig.Host).Msg("connected to database")

	return &DB{pool: pool}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	db.pool.Close()
}

// Pool returns the underlying connection pool
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// HealthCheck verifies database connectivity
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Migrate creates the schema when it does not exist yet
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id          UUID PRIMARY KEY,
	source      TEXT NOT NULL,
	repo_url    TEXT,
	commit_sha  TEXT,
	status      TEXT NOT NULL DEFAULT 'pending',
	error       TEXT,
	summary     JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS graph_nodes (
	analysis_id UUID NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
	id          TEXT NOT NULL,
	path        TEXT NOT NULL,
	name        TEXT NOT NULL,
	folder      TEXT NOT NULL DEFAULT '',
	language    TEXT NOT NULL,
	role        TEXT,
	category    TEXT,
	description TEXT,
	imports     JSONB,
	size        BIGINT NOT NULL DEFAULT 0,
	lines       INT NOT NULL DEFAULT 0,
	PRIMARY KEY (analysis_id, id)
);

CREATE TABLE IF NOT EXISTS graph_edges (
	analysis_id UUID NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
	id          TEXT NOT NULL,
	source      TEXT NOT NULL,
	target      TEXT NOT NULL,
	kind        TEXT NOT NULL,
	label       TEXT,
	PRIMARY KEY (analysis_id, id)
);

CREATE TABLE IF NOT EXISTS function_tiers (
	analysis_id    UUID NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
	file           TEXT NOT NULL,
	qualified_name TEXT NOT NULL,
	start_line     INT NOT NULL DEFAULT 0,
	node_id        TEXT,
	kind           TEXT,
	score          DOUBLE PRECISION NOT NULL,
	tier           TEXT NOT NULL,
	percentile     DOUBLE PRECISION NOT NULL,
	internal_calls INT NOT NULL DEFAULT 0,
	external_calls INT NOT NULL DEFAULT 0,
	PRIMARY KEY (analysis_id, file, qualified_name, start_line)
);
`

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a PostgreSQL connection pool using pgx and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN must not be empty")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}

	// Sane defaults for a batch-plus-API workload.
	cfg.MaxConnLifetime = 1 * time.Hour
	cfg.MaxConnIdleTime = 15 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS listings (
        id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
        title TEXT NOT NULL,
        price_amount DOUBLE PRECISION,
        price_currency TEXT,
        price_original TEXT,
        location TEXT,
        area TEXT,
        rooms TEXT,
        url TEXT NOT NULL,
        source TEXT NOT NULL,
        description TEXT,
        similarity_score DOUBLE PRECISION,
        duplicate_of UUID REFERENCES listings(id),
        scraped_at TIMESTAMPTZ,
        scraper_version TEXT,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        UNIQUE (url, source)
    )`,
	`CREATE INDEX IF NOT EXISTS listings_duplicate_of_idx ON listings (duplicate_of) WHERE duplicate_of IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS structured_addresses (
        id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
        listing_id UUID NOT NULL UNIQUE REFERENCES listings(id) ON DELETE CASCADE,
        full_address TEXT NOT NULL,
        street_name TEXT,
        district TEXT,
        sub_district TEXT,
        city TEXT,
        province TEXT,
        latitude DOUBLE PRECISION,
        longitude DOUBLE PRECISION,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS structured_addresses_missing_coords_idx
        ON structured_addresses (created_at) WHERE latitude IS NULL OR longitude IS NULL`,
}

// Migrate creates the pipeline tables when they do not exist yet. Statements
// are idempotent so repeated startups are safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}

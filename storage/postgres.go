package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"oto_scraper/models"
)

// PostgresStore mirrors canonical records into Postgres for relational
// access. Optional: the pipeline only writes here when POSTGRES_URL is set.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS canonical_records (
			slug TEXT PRIMARY KEY,
			price DOUBLE PRECISION,
			property_size_m2 DOUBLE PRECISION,
			city_name TEXT,
			province_code TEXT,
			record JSONB NOT NULL,
			first_seen_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// UpsertRecord writes one canonical record keyed by slug. Re-processing the
// same offer replaces the prior row (at-least-once, idempotent by key).
func (s *PostgresStore) UpsertRecord(ctx context.Context, rec *models.CanonicalRecord) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO canonical_records (slug, price, property_size_m2, city_name, province_code, record, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (slug) DO UPDATE SET
			price = EXCLUDED.price,
			property_size_m2 = EXCLUDED.property_size_m2,
			city_name = EXCLUDED.city_name,
			province_code = EXCLUDED.province_code,
			record = EXCLUDED.record,
			updated_at = now()`,
		rec.Slug, rec.Price, rec.PropertySizeM2, rec.CityName, rec.ProvinceCode, doc)
	if err != nil {
		return fmt.Errorf("upsert record %s: %w", rec.Slug, err)
	}
	return nil
}

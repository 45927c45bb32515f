package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gvsturm-ai/rental-hunter/models"
)

// PostgresStore is the SeenStore for deployments that point DATABASE_URL
// at a shared Postgres instead of a local SQLite file. Semantics match
// SQLiteStore; ON CONFLICT on canonical_key enforces uniqueness.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("%w: parse config: %v", ErrStore, err)
	}

	config.MaxConns = 5
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: create pool: %v", ErrStore, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrStore, err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: migrate: %v", ErrStore, err)
	}

	return store, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS seen_listings (
		id UUID PRIMARY KEY,
		canonical_key TEXT UNIQUE NOT NULL,
		address TEXT NOT NULL,
		source TEXT NOT NULL,
		price INTEGER,
		url TEXT,
		first_seen_at TIMESTAMPTZ NOT NULL,
		last_seen_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scan_runs (
		id BIGSERIAL PRIMARY KEY,
		started_at TIMESTAMPTZ,
		finished_at TIMESTAMPTZ,
		status TEXT,
		listings_found INTEGER,
		matched INTEGER,
		new_listings INTEGER,
		notified INTEGER,
		sources_failed INTEGER,
		errors_count INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_seen_source ON seen_listings(source);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *PostgresStore) Has(ctx context.Context, canonicalKey string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM seen_listings WHERE canonical_key = $1`, canonicalKey).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: has: %v", ErrStore, err)
	}
	return true, nil
}

func (s *PostgresStore) Record(ctx context.Context, rec *SeenRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO seen_listings (id, canonical_key, address, source, price, url, first_seen_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (canonical_key) DO UPDATE SET
			last_seen_at = EXCLUDED.last_seen_at,
			price = EXCLUDED.price`,
		rec.ID, rec.CanonicalKey, rec.Address, string(rec.Source),
		rec.Price, rec.URL, rec.FirstSeenAt, rec.LastSeenAt)
	if err != nil {
		return fmt.Errorf("%w: record %s: %v", ErrStore, rec.CanonicalKey, err)
	}
	return nil
}

func (s *PostgresStore) Stats(ctx context.Context) (*StoreStats, error) {
	stats := &StoreStats{BySource: make(map[models.Source]int)}

	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), MIN(first_seen_at) FROM seen_listings`).
		Scan(&stats.TotalRecords, &stats.OldestFirstSeen)
	if err != nil {
		return nil, fmt.Errorf("%w: stats: %v", ErrStore, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT source, COUNT(*) FROM seen_listings
		GROUP BY source ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: stats by source: %v", ErrStore, err)
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("%w: stats scan: %v", ErrStore, err)
		}
		stats.BySource[models.Source(source)] = count
	}
	return stats, rows.Err()
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]SeenRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, canonical_key, address, source, price, url, first_seen_at, last_seen_at
		FROM seen_listings ORDER BY first_seen_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: recent: %v", ErrStore, err)
	}
	defer rows.Close()

	var records []SeenRecord
	for rows.Next() {
		var rec SeenRecord
		var source string
		if err := rows.Scan(&rec.ID, &rec.CanonicalKey, &rec.Address, &source,
			&rec.Price, &rec.URL, &rec.FirstSeenAt, &rec.LastSeenAt); err != nil {
			return nil, fmt.Errorf("%w: recent scan: %v", ErrStore, err)
		}
		rec.Source = models.Source(source)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) CreateRun(ctx context.Context, run *models.ScanRun) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO scan_runs (started_at, status, listings_found, matched, new_listings, notified, sources_failed, errors_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		run.StartedAt, string(run.Status), run.ListingsFound, run.Matched,
		run.NewListings, run.Notified, run.SourcesFailed, run.ErrorsCount).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: create run: %v", ErrStore, err)
	}
	return id, nil
}

func (s *PostgresStore) LastRunTime(ctx context.Context) (time.Time, error) {
	var t *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT MAX(started_at) FROM scan_runs`).Scan(&t)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: last run: %v", ErrStore, err)
	}
	if t == nil {
		return time.Time{}, nil
	}
	return *t, nil
}

func (s *PostgresStore) UpdateRun(ctx context.Context, run *models.ScanRun) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE scan_runs SET finished_at = $1, status = $2, listings_found = $3,
			matched = $4, new_listings = $5, notified = $6, sources_failed = $7, errors_count = $8
		WHERE id = $9`,
		run.FinishedAt, string(run.Status), run.ListingsFound, run.Matched,
		run.NewListings, run.Notified, run.SourcesFailed, run.ErrorsCount, run.ID)
	if err != nil {
		return fmt.Errorf("%w: update run: %v", ErrStore, err)
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/gvsturm-ai/rental-hunter/models"
)

// SQLiteStore is the default SeenStore, backed by a local file.
// WAL mode plus a busy timeout serializes overlapping scheduled runs
// against the same database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStore, dbPath, err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate: %v", ErrStore, err)
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS seen_listings (
		id TEXT PRIMARY KEY,
		canonical_key TEXT UNIQUE NOT NULL,
		address TEXT NOT NULL,
		source TEXT NOT NULL,
		price INTEGER,
		url TEXT,
		first_seen_at DATETIME NOT NULL,
		last_seen_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scan_runs (
		id INTEGER PRIMARY KEY,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		listings_found INTEGER,
		matched INTEGER,
		new_listings INTEGER,
		notified INTEGER,
		sources_failed INTEGER,
		errors_count INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_seen_key ON seen_listings(canonical_key);
	CREATE INDEX IF NOT EXISTS idx_seen_source ON seen_listings(source);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON scan_runs(status, started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Has(ctx context.Context, canonicalKey string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM seen_listings WHERE canonical_key = ?`, canonicalKey).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: has: %v", ErrStore, err)
	}
	return true, nil
}

func (s *SQLiteStore) Record(ctx context.Context, rec *SeenRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO seen_listings (id, canonical_key, address, source, price, url, first_seen_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(canonical_key) DO UPDATE SET
			last_seen_at = excluded.last_seen_at,
			price = excluded.price`,
		rec.ID.String(), rec.CanonicalKey, rec.Address, string(rec.Source),
		rec.Price, rec.URL, rec.FirstSeenAt, rec.LastSeenAt)
	if err != nil {
		return fmt.Errorf("%w: record %s: %v", ErrStore, rec.CanonicalKey, err)
	}
	return nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (*StoreStats, error) {
	stats := &StoreStats{BySource: make(map[models.Source]int)}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seen_listings`).Scan(&stats.TotalRecords)
	if err != nil {
		return nil, fmt.Errorf("%w: stats: %v", ErrStore, err)
	}

	rows, err := s.db.QueryContext(ctx, `
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: stats rows: %v", ErrStore, err)
	}

	var oldest sql.NullTime
	err = s.db.QueryRowContext(ctx,
		`SELECT MIN(first_seen_at) FROM seen_listings`).Scan(&oldest)
	if err != nil {
		return nil, fmt.Errorf("%w: stats oldest: %v", ErrStore, err)
	}
	if oldest.Valid {
		t := oldest.Time
		stats.OldestFirstSeen = &t
	}

	return stats, nil
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]SeenRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, canonical_key, address, source, price, url, first_seen_at, last_seen_at
		FROM seen_listings ORDER BY first_seen_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: recent: %v", ErrStore, err)
	}
	defer rows.Close()

	var records []SeenRecord
	for rows.Next() {
		var rec SeenRecord
		var id, source string
		if err := rows.Scan(&id, &rec.CanonicalKey, &rec.Address, &source,
			&rec.Price, &rec.URL, &rec.FirstSeenAt, &rec.LastSeenAt); err != nil {
			return nil, fmt.Errorf("%w: recent scan: %v", ErrStore, err)
		}
		rec.ID, _ = uuid.Parse(id)
		rec.Source = models.Source(source)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run *models.ScanRun) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_runs (started_at, status, listings_found, matched, new_listings, notified, sources_failed, errors_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt, string(run.Status), run.ListingsFound, run.Matched,
		run.NewListings, run.Notified, run.SourcesFailed, run.ErrorsCount)
	if err != nil {
		return 0, fmt.Errorf("%w: create run: %v", ErrStore, err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) UpdateRun(ctx context.Context, run *models.ScanRun) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE scan_runs SET finished_at = ?, status = ?, listings_found = ?,
			matched = ?, new_listings = ?, notified = ?, sources_failed = ?, errors_count = ?
		WHERE id = ?`,
		run.FinishedAt, string(run.Status), run.ListingsFound, run.Matched,
		run.NewListings, run.Notified, run.SourcesFailed, run.ErrorsCount, run.ID)
	if err != nil {
		return fmt.Errorf("%w: update run: %v", ErrStore, err)
	}
	return nil
}

// LastRunTime returns when the most recent scan started.
func (s *SQLiteStore) LastRunTime(ctx context.Context) (time.Time, error) {
	var t sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(started_at) FROM scan_runs`).Scan(&t)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: last run: %v", ErrStore, err)
	}
	return t.Time, nil
}

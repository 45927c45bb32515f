package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gvsturm-ai/rental-hunter/models"
)

func newTestSQLite(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listings.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, path
}

func TestSQLiteStoreDurability(t *testing.T) {
	ctx := context.Background()
	store, path := newTestSQLite(t)
	now := time.Now().UTC().Truncate(time.Second)

	if err := store.Record(ctx, seenRecord("100 elm street", models.SourceRealtor, 3000, now)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen: Has must not produce a false negative across restarts.
	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	ok, err := reopened.Has(ctx, "100 elm street")
	if err != nil {
		t.Fatalf("Has after reopen: %v", err)
	}
	if !ok {
		t.Fatal("record lost across restart")
	}
}

func TestSQLiteStoreKeyUniqueness(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestSQLite(t)
	now := time.Now().UTC()

	keys := []string{"100 elm street", "100 elm street", "100 elm street", "200 pine avenue"}
	for i, key := range keys {
		rec := seenRecord(key, models.SourceZillow, 3000+i*100, now)
		if err := store.Record(ctx, rec); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalRecords != 2 {
		t.Fatalf("expected 2 records after repeated inserts, got %d", stats.TotalRecords)
	}
}

func TestSQLiteStoreStatsAndRecent(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestSQLite(t)

	oldest := time.Now().UTC().Add(-72 * time.Hour).Truncate(time.Second)
	store.Record(ctx, seenRecord("100 elm street", models.SourceRealtor, 3000, oldest))
	store.Record(ctx, seenRecord("200 pine avenue", models.SourceRedfin, 4500, time.Now().UTC()))

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalRecords != 2 {
		t.Errorf("expected 2 records, got %d", stats.TotalRecords)
	}
	if stats.BySource[models.SourceRealtor] != 1 || stats.BySource[models.SourceRedfin] != 1 {
		t.Errorf("unexpected by-source counts: %v", stats.BySource)
	}
	if stats.OldestFirstSeen == nil {
		t.Fatal("missing oldest first-seen")
	}

	recent, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 recent record, got %d", len(recent))
	}
	if recent[0].CanonicalKey != "200 pine avenue" {
		t.Errorf("expected newest record first, got %q", recent[0].CanonicalKey)
	}
}

func TestSQLiteStoreRunRecords(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestSQLite(t)

	run := &models.ScanRun{
		StartedAt:     time.Now().UTC(),
		Status:        models.RunStatusRunning,
		ListingsFound: 12,
	}
	id, err := store.CreateRun(ctx, run)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	run.ID = id

	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Status = models.RunStatusCompleted
	run.NewListings = 2
	if err := store.UpdateRun(ctx, run); err != nil {
		t.Fatalf("UpdateRun: %v", err)
	}

	last, err := store.LastRunTime(ctx)
	if err != nil {
		t.Fatalf("LastRunTime: %v", err)
	}
	if last.IsZero() {
		t.Error("expected non-zero last run time")
	}
}

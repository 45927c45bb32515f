package storage

import (
	"context"
	"testing"
	"time"

	"github.com/gvsturm-ai/rental-hunter/models"
)

func seenRecord(key string, source models.Source, price int, seenAt time.Time) *SeenRecord {
	return &SeenRecord{
		CanonicalKey: key,
		Address:      "100 Elm St",
		Source:       source,
		Price:        price,
		URL:          "https://example.com/listing",
		FirstSeenAt:  seenAt,
		LastSeenAt:   seenAt,
	}
}

func TestMemoryStoreHasAndRecord(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	ok, err := store.Has(ctx, "100 elm street")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if ok {
		t.Fatal("empty store reported a record")
	}

	if err := store.Record(ctx, seenRecord("100 elm street", models.SourceRealtor, 3000, now)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	ok, err = store.Has(ctx, "100 elm street")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if !ok {
		t.Fatal("recorded key not found")
	}
}

func TestMemoryStoreKeyUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	first := time.Now().Add(-time.Hour)
	second := time.Now()

	if err := store.Record(ctx, seenRecord("100 elm street", models.SourceRealtor, 3000, first)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	// Second record for the same key must update, never duplicate.
	if err := store.Record(ctx, seenRecord("100 elm street", models.SourceZillow, 3100, second)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalRecords != 1 {
		t.Fatalf("expected 1 record, got %d", stats.TotalRecords)
	}

	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recent))
	}
	// First-seen source wins; price follows the latest observation.
	if recent[0].Source != models.SourceRealtor {
		t.Errorf("first-seen source overwritten: %s", recent[0].Source)
	}
	if recent[0].Price != 3100 {
		t.Errorf("expected refreshed price 3100, got %d", recent[0].Price)
	}
	if !recent[0].FirstSeenAt.Equal(first) {
		t.Errorf("first_seen_at changed on re-record")
	}
}

func TestMemoryStoreStats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	oldest := time.Now().Add(-48 * time.Hour)

	store.Record(ctx, seenRecord("100 elm street", models.SourceRealtor, 3000, oldest))
	store.Record(ctx, seenRecord("200 pine avenue", models.SourceRealtor, 4000, time.Now().Add(-time.Hour)))
	store.Record(ctx, seenRecord("300 beach drive", models.SourceRedfin, 5000, time.Now()))

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalRecords != 3 {
		t.Errorf("expected 3 records, got %d", stats.TotalRecords)
	}
	if stats.BySource[models.SourceRealtor] != 2 || stats.BySource[models.SourceRedfin] != 1 {
		t.Errorf("unexpected by-source counts: %v", stats.BySource)
	}
	if stats.OldestFirstSeen == nil || !stats.OldestFirstSeen.Equal(oldest) {
		t.Errorf("unexpected oldest first-seen: %v", stats.OldestFirstSeen)
	}
}

func TestMemoryStoreLastRunTime(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	last, err := store.LastRunTime(ctx)
	if err != nil {
		t.Fatalf("LastRunTime: %v", err)
	}
	if !last.IsZero() {
		t.Errorf("expected zero time before any run, got %v", last)
	}

	earlier := time.Now().Add(-time.Hour)
	latest := time.Now()
	store.CreateRun(ctx, &models.ScanRun{StartedAt: earlier, Status: models.RunStatusCompleted})
	store.CreateRun(ctx, &models.ScanRun{StartedAt: latest, Status: models.RunStatusRunning})

	last, err = store.LastRunTime(ctx)
	if err != nil {
		t.Fatalf("LastRunTime: %v", err)
	}
	if !last.Equal(latest) {
		t.Errorf("LastRunTime = %v, want %v", last, latest)
	}
}

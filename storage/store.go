package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gvsturm-ai/rental-hunter/models"
)

// ErrStore wraps any persistence failure. A store failure is fatal to
// the scan: without durable dedup state the next run would re-alert
// everything, so callers abort instead of notifying.
var ErrStore = errors.New("seen store error")

// SeenRecord is the persisted evidence that a listing has already
// triggered a notification. At most one record exists per canonical
// key.
type SeenRecord struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	CanonicalKey string        `json:"canonical_key" db:"canonical_key"`
	Address      string        `json:"address" db:"address"` // display form at first sighting
	Source       models.Source `json:"source" db:"source"`   // site that first reported it
	Price        int           `json:"price" db:"price"`     // last observed price
	URL          string        `json:"url" db:"url"`
	FirstSeenAt  time.Time     `json:"first_seen_at" db:"first_seen_at"`
	LastSeenAt   time.Time     `json:"last_seen_at" db:"last_seen_at"`
}

// StoreStats is the read-only aggregate for the stats surface.
type StoreStats struct {
	TotalRecords    int                   `json:"total_records"`
	BySource        map[models.Source]int `json:"by_source"`
	OldestFirstSeen *time.Time            `json:"oldest_first_seen"`
}

// SeenStore is the dedup store. Implementations must enforce canonical
// key uniqueness at the storage layer: Record never creates a second
// row for an existing key, it refreshes last_seen_at and price.
type SeenStore interface {
	Has(ctx context.Context, canonicalKey string) (bool, error)
	Record(ctx context.Context, rec *SeenRecord) error
	Stats(ctx context.Context) (*StoreStats, error)
	Recent(ctx context.Context, limit int) ([]SeenRecord, error)
	Close() error
}

// RunStore persists per-scan run records for observability.
// LastRunTime reports when the most recent scan started; zero when no
// scan has run yet.
type RunStore interface {
	CreateRun(ctx context.Context, run *models.ScanRun) (int64, error)
	UpdateRun(ctx context.Context, run *models.ScanRun) error
	LastRunTime(ctx context.Context) (time.Time, error)
}

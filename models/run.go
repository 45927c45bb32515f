package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
)

// ScanRun records one fetch→filter→dedup→notify pass across all sources.
type ScanRun struct {
	ID            int64          `json:"id" db:"id"`
	StartedAt     time.Time      `json:"started_at" db:"started_at"`
	FinishedAt    *time.Time     `json:"finished_at" db:"finished_at"`
	Status        RunStatus      `json:"status" db:"status"`
	ListingsFound int            `json:"listings_found" db:"listings_found"`
	Matched       int            `json:"matched" db:"matched"`
	NewListings   int            `json:"new_listings" db:"new_listings"`
	Notified      int            `json:"notified" db:"notified"`
	SourcesFailed int            `json:"sources_failed" db:"sources_failed"`
	ErrorsCount   int            `json:"errors_count" db:"errors_count"`
	FoundBySource map[Source]int `json:"found_by_source" db:"-"`
}

package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gvsturm-ai/rental-hunter/models"
)

// MemoryStore is an in-memory SeenStore. Nothing survives a restart,
// so it exists for tests and dry runs only.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*SeenRecord
	runs    []*models.ScanRun
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*SeenRecord)}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Has(_ context.Context, canonicalKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[canonicalKey]
	return ok, nil
}

func (s *MemoryStore) Record(_ context.Context, rec *SeenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[rec.CanonicalKey]; ok {
		existing.LastSeenAt = rec.LastSeenAt
		existing.Price = rec.Price
		return nil
	}

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	stored := *rec
	s.records[rec.CanonicalKey] = &stored
	return nil
}

func (s *MemoryStore) Stats(_ context.Context) (*StoreStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &StoreStats{
		TotalRecords: len(s.records),
		BySource:     make(map[models.Source]int),
	}
	for _, rec := range s.records {
		stats.BySource[rec.Source]++
		if stats.OldestFirstSeen == nil || rec.FirstSeenAt.Before(*stats.OldestFirstSeen) {
			t := rec.FirstSeenAt
			stats.OldestFirstSeen = &t
		}
	}
	return stats, nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]SeenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]SeenRecord, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].FirstSeenAt.After(records[j].FirstSeenAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *MemoryStore) CreateRun(_ context.Context, run *models.ScanRun) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.ID = int64(len(s.runs) + 1)
	s.runs = append(s.runs, run)
	return run.ID, nil
}

func (s *MemoryStore) UpdateRun(_ context.Context, run *models.ScanRun) error {
	return nil
}

func (s *MemoryStore) LastRunTime(_ context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var last time.Time
	for _, run := range s.runs {
		if run.StartedAt.After(last) {
			last = run.StartedAt
		}
	}
	return last, nil
}

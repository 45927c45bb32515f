package scraper

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gvsturm-ai/rental-hunter/identity"
	"github.com/gvsturm-ai/rental-hunter/models"
	"github.com/gvsturm-ai/rental-hunter/services"
	"github.com/gvsturm-ai/rental-hunter/storage"
)

// Notifier delivers an alert for one new listing. A delivery failure
// must not abort delivery of the rest of the batch.
type Notifier interface {
	Send(ctx context.Context, l *models.Listing) error
}

// Orchestrator runs one pass: fetch from every source, filter,
// dedup against the seen store, notify, record.
type Orchestrator struct {
	sources  []Source
	filter   *services.Filter
	store    storage.SeenStore
	notifier Notifier
	runs     storage.RunStore
	now      func() time.Time
}

func NewOrchestrator(sources []Source, filter *services.Filter, store storage.SeenStore, notifier Notifier) *Orchestrator {
	return &Orchestrator{
		sources:  sources,
		filter:   filter,
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// SetRunStore enables persisted per-scan run records.
func (o *Orchestrator) SetRunStore(runs storage.RunStore) {
	o.runs = runs
}

type newListing struct {
	listing models.Listing
	key     string
}

// RunScan executes a single scan and returns its run record. A source
// failing is logged and skipped; a store failure aborts the pass
// before any notification goes out, since notifying without durable
// dedup state risks alert storms on the next run.
func (o *Orchestrator) RunScan(ctx context.Context) (*models.ScanRun, error) {
	run := &models.ScanRun{
		StartedAt:     o.now(),
		Status:        models.RunStatusRunning,
		FoundBySource: make(map[models.Source]int),
	}
	o.createRun(ctx, run)

	log.Printf("Scan started")

	var fresh []newListing
	seenThisPass := make(map[string]bool)

	for _, src := range o.sources {
		listings, err := src.FetchListings(ctx)
		if err != nil {
			log.Printf("[%s] fetch failed, skipping source: %v", src.ID(), err)
			run.SourcesFailed++
			run.ErrorsCount++
			continue
		}

		run.ListingsFound += len(listings)
		run.FoundBySource[src.ID()] = len(listings)
		log.Printf("[%s] %d listings", src.ID(), len(listings))

		for i := range listings {
			l := &listings[i]
			if !o.filter.Matches(l) {
				continue
			}
			run.Matched++

			key := identity.CanonicalKey(l)
			if seenThisPass[key] {
				// same physical address already queued from an
				// earlier source this pass
				continue
			}

			has, err := o.store.Has(ctx, key)
			if err != nil {
				return o.fail(ctx, run, fmt.Errorf("dedup check: %w", err))
			}
			if has {
				continue
			}

			seenThisPass[key] = true
			fresh = append(fresh, newListing{listing: *l, key: key})
		}
	}

	run.NewListings = len(fresh)

	for i := range fresh {
		nl := &fresh[i]
		log.Printf("NEW: %s ($%d/mo) [%s]", nl.listing.Address, nl.listing.Price, nl.listing.Source)

		if o.notifier != nil {
			if err := o.notifier.Send(ctx, &nl.listing); err != nil {
				// At-least-once policy: the listing is still recorded
				// below, trading a possible missed re-alert for never
				// re-spamming on every subsequent scan.
				log.Printf("[%s] notification failed for %s: %v", nl.listing.Source, nl.listing.Address, err)
				run.ErrorsCount++
			} else {
				run.Notified++
			}
		}

		now := o.now()
		rec := &storage.SeenRecord{
			CanonicalKey: nl.key,
			Address:      displayAddress(&nl.listing),
			Source:       nl.listing.Source,
			Price:        nl.listing.Price,
			URL:          nl.listing.URL,
			FirstSeenAt:  now,
			LastSeenAt:   now,
		}
		if err := o.store.Record(ctx, rec); err != nil {
			return o.fail(ctx, run, fmt.Errorf("record listing: %w", err))
		}
	}

	run.Status = models.RunStatusCompleted
	if run.SourcesFailed > 0 {
		run.Status = models.RunStatusPartial
	}
	o.finishRun(ctx, run)

	log.Printf("Scan complete: %d found, %d matched, %d new, %d notified (%d source(s) failed)",
		run.ListingsFound, run.Matched, run.NewListings, run.Notified, run.SourcesFailed)

	return run, nil
}

func (o *Orchestrator) fail(ctx context.Context, run *models.ScanRun, err error) (*models.ScanRun, error) {
	run.Status = models.RunStatusFailed
	run.ErrorsCount++
	o.finishRun(ctx, run)
	return run, err
}

func (o *Orchestrator) createRun(ctx context.Context, run *models.ScanRun) {
	if o.runs == nil {
		return
	}
	id, err := o.runs.CreateRun(ctx, run)
	if err != nil {
		log.Printf("Warning: could not create run record: %v", err)
		return
	}
	run.ID = id
}

func (o *Orchestrator) finishRun(ctx context.Context, run *models.ScanRun) {
	now := o.now()
	run.FinishedAt = &now
	if o.runs == nil || run.ID == 0 {
		return
	}
	if err := o.runs.UpdateRun(ctx, run); err != nil {
		log.Printf("Warning: could not update run record: %v", err)
	}
}

func displayAddress(l *models.Listing) string {
	parts := []string{l.Address}
	if l.City != "" {
		parts = append(parts, l.City)
	}
	tail := strings.TrimSpace(l.State + " " + l.Zip)
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}

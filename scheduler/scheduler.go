package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gvsturm-ai/rental-hunter/config"
	"github.com/gvsturm-ai/rental-hunter/models"
)

// Runner executes one scan pass.
type Runner interface {
	RunScan(ctx context.Context) (*models.ScanRun, error)
}

// Scheduler drives continuous-loop mode: a cron expression when
// configured, a fixed interval otherwise. Scans never overlap within
// one process: the ticker loop runs them inline, and cron activations
// are chained with SkipIfStillRunning so a scan outlasting its period
// drops the next activation instead of doubling up. The store's lock
// covers overlapping processes.
type Scheduler struct {
	cfg    config.SchedulerConfig
	runner Runner
	cron   *cron.Cron
	ticker *time.Ticker
	stopCh chan struct{}
}

func New(cfg config.SchedulerConfig, runner Runner) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		runner: runner,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		stopCh: make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	// One scan immediately on startup, then on schedule.
	s.runOnce(ctx)

	if s.cfg.Cron != "" {
		log.Printf("Scheduling scans with cron: %s", s.cfg.Cron)
		_, err := s.cron.AddFunc(s.cfg.Cron, func() { s.runOnce(ctx) })
		if err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", s.cfg.Cron, err)
		}
		s.cron.Start()
		return nil
	}

	log.Printf("Scheduling scans every %s", s.cfg.Interval)
	s.ticker = time.NewTicker(s.cfg.Interval)
	go func() {
		for {
			select {
			case <-s.ticker.C:
				s.runOnce(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if _, err := s.runner.RunScan(ctx); err != nil {
		log.Printf("Scheduled scan error: %v", err)
	}
}

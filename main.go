package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gvsturm-ai/rental-hunter/config"
	"github.com/gvsturm-ai/rental-hunter/httputil"
	"github.com/gvsturm-ai/rental-hunter/logging"
	"github.com/gvsturm-ai/rental-hunter/models"
	"github.com/gvsturm-ai/rental-hunter/notify"
	"github.com/gvsturm-ai/rental-hunter/scheduler"
	"github.com/gvsturm-ai/rental-hunter/scraper"
	"github.com/gvsturm-ai/rental-hunter/services"
	"github.com/gvsturm-ai/rental-hunter/storage"
)

var (
	loopMode  = flag.Bool("loop", false, "Run continuous scanning loop")
	testMode  = flag.Bool("test", false, "Send a test notification and exit")
	statsMode = flag.Bool("stats", false, "Show dedup store statistics and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags)

	logFile, err := logging.Setup("rental-hunter.log")
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	clients := httputil.NewClients(cfg.HTTPTimeout, cfg.ProxyURL)

	store, runs, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open dedup store: %v", err)
	}
	defer store.Close()

	if *statsMode {
		if err := showStats(ctx, store, runs); err != nil {
			log.Fatalf("Stats failed: %v", err)
		}
		return
	}

	// Notifications require the Telegram secrets; their absence is a
	// startup failure, not a per-scan one.
	if err := cfg.RequireTelegram(); err != nil {
		log.Fatalf("Telegram not configured: %v", err)
	}
	notifier := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatIDs, clients.API)

	if *testMode {
		log.Println("Sending test notification...")
		if err := notifier.SendTest(ctx); err != nil {
			log.Fatalf("Test notification failed: %v", err)
		}
		log.Println("Success! Check your Telegram for the test message.")
		return
	}

	var archive *storage.PageArchive
	if cfg.ArchiveEnabled() {
		archive, err = storage.NewPageArchive(ctx, cfg.Archive)
		if err != nil {
			log.Printf("Warning: page archive disabled: %v", err)
			archive = nil
		} else {
			log.Printf("Page archive: s3://%s/%s", cfg.Archive.Bucket, cfg.Archive.Prefix)
		}
	}

	sources := scraper.NewSources(cfg, clients, archive)
	filter := services.NewFilter(&cfg.Criteria)

	orchestrator := scraper.NewOrchestrator(sources, filter, store, notifier)
	orchestrator.SetRunStore(runs)

	if *loopMode {
		runLoop(ctx, cfg, orchestrator)
		return
	}

	// Default: one scan.
	run, err := orchestrator.RunScan(ctx)
	if err != nil {
		log.Fatalf("Scan failed: %v", err)
	}
	log.Printf("New listings this scan: %d", run.NewListings)
}

func runLoop(ctx context.Context, cfg *config.Config, orchestrator *scraper.Orchestrator) {
	log.Println("Starting rental-hunter in continuous mode...")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.New(cfg.Scheduler, orchestrator)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
}

// openStore picks the dedup backend: Postgres when DATABASE_URL is
// set, the local SQLite file otherwise.
func openStore(ctx context.Context, cfg *config.Config) (storage.SeenStore, storage.RunStore, error) {
	if cfg.DatabaseURL != "" {
		pg, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Println("Dedup store: Postgres")
		return pg, pg, nil
	}

	sq, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Dedup store: SQLite (%s)", cfg.DBPath)
	return sq, sq, nil
}

func showStats(ctx context.Context, store storage.SeenStore, runs storage.RunStore) error {
	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Println("\nRental Hunter Statistics")
	fmt.Println("========================")
	fmt.Printf("\nTotal listings seen: %d\n", stats.TotalRecords)

	if last, err := runs.LastRunTime(ctx); err != nil {
		return err
	} else if !last.IsZero() {
		fmt.Printf("Last scan: %s\n", last.Format("2006-01-02 15:04:05"))
	}

	if len(stats.BySource) > 0 {
		fmt.Println("\nBy source:")
		for _, source := range models.AllSources() {
			if count, ok := stats.BySource[source]; ok {
				fmt.Printf("  %s: %d\n", source, count)
			}
		}
	}

	if stats.OldestFirstSeen != nil {
		fmt.Printf("\nOldest record: %s\n", stats.OldestFirstSeen.Format("2006-01-02 15:04:05"))
	}

	recent, err := store.Recent(ctx, 5)
	if err != nil {
		return err
	}
	if len(recent) > 0 {
		fmt.Println("\nMost recent listings:")
		for _, rec := range recent {
			fmt.Printf("  - %s ($%d) [%s]\n", rec.Address, rec.Price, rec.Source)
			fmt.Printf("    First seen: %s\n", rec.FirstSeenAt.Format("2006-01-02 15:04:05"))
		}
	}
	fmt.Println()

	return nil
}

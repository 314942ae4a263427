package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"splitexpense/internal/config"
	"splitexpense/internal/database"
	"splitexpense/internal/logger"
	"splitexpense/internal/recurrence"
	"splitexpense/internal/services"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Scheduler error: %v", err)
	}
}

func run() error {
	log := logger.Named("scheduler")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// The worker has no read path, so the ledger runs without a summary cache.
	// Summaries cached by the API expire after BALANCE_CACHE_TTL.
	db := dbManager.DB()
	ledger := services.NewLedgerService(db, nil)
	executor := services.NewExecutor(db, ledger, cfg.SchedulerConcurrency)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("scheduler started",
		"interval", cfg.SchedulerInterval.String(),
		"concurrency", cfg.SchedulerConcurrency,
		"driver", dbManager.Driver(),
	)

	runPass(ctx, executor, time.Now())

	ticker := time.NewTicker(cfg.SchedulerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Shutdown signal received, scheduler stopped")
			return nil
		case now := <-ticker.C:
			runPass(ctx, executor, now)
		}
	}
}

// runPass executes one scheduling pass. A pass that cannot start is logged
// and retried on the next tick.
func runPass(ctx context.Context, executor services.ExecutorServicer, now time.Time) {
	log := logger.Named("scheduler")

	summary, err := executor.RunDue(ctx, recurrence.Today(now))
	if err != nil {
		log.Errorw("scheduling pass failed", "error", err)
		return
	}
	log.Infow("scheduling pass complete",
		"date", summary.Date.String(),
		"due", summary.Due,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)
}

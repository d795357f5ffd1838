package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/gracechapel-dev/church-site-api/internal/repository"
	"github.com/gracechapel-dev/church-site-api/internal/service"
	"github.com/gracechapel-dev/church-site-api/pkg/config"
	"github.com/gracechapel-dev/church-site-api/pkg/database"
	"github.com/gracechapel-dev/church-site-api/pkg/logger"
)

// One-shot maintenance command. Repairs recurring event dates whose weekday
// contradicts the day named in the event title, and optionally clears the
// featured flag on past events.
func main() {
	var (
		cleanup = flag.Bool("cleanup", false, "also clear the featured flag on past events")
		timeout = flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	eventRepo := repository.NewEventRepository(db, nil)
	recurrence := service.NewRecurrenceService(eventRepo, cfg.Events.InsertBatchSize, cfg.Events.DefaultHorizon, logr)

	result, err := recurrence.RepairDates(ctx)
	if err != nil {
		logr.Sugar().Fatalw("date repair failed", "error", err)
	}
	logr.Sugar().Infow("date repair finished",
		"corrected", result.CorrectedCount,
		"failed", len(result.FailedIDs))

	if *cleanup {
		featured := service.NewFeaturedService(eventRepo, nil, cfg.Events.FeaturedCacheTTL, logr)
		cleared, err := featured.CleanupElapsed(ctx, time.Now())
		if err != nil {
			logr.Sugar().Fatalw("featured cleanup failed", "error", err)
		}
		logr.Sugar().Infow("featured cleanup finished", "cleared", cleared)
	}
}

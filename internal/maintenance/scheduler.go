package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/gracechapel-dev/church-site-api/internal/service"
	"github.com/gracechapel-dev/church-site-api/pkg/config"
)

const jobTimeout = 2 * time.Minute

// Scheduler runs background housekeeping jobs on cron schedules.
type Scheduler struct {
	cron       *cron.Cron
	featured   *service.FeaturedService
	recurrence *service.RecurrenceService
	uploads    *service.UploadService
	uploadsTTL time.Duration
	cfg        config.MaintenanceConfig
	logger     *zap.Logger
}

// NewScheduler constructs the scheduler. Uploads may be nil when upload
// support is disabled; the retention job is skipped in that case.
func NewScheduler(featured *service.FeaturedService, recurrence *service.RecurrenceService, uploads *service.UploadService, uploadsTTL time.Duration, cfg config.MaintenanceConfig, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:       cron.New(),
		featured:   featured,
		recurrence: recurrence,
		uploads:    uploads,
		uploadsTTL: uploadsTTL,
		cfg:        cfg,
		logger:     logger,
	}
}

// Start registers the configured jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info("maintenance scheduler disabled")
		return nil
	}
	if s.cfg.CleanupSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.CleanupSchedule, s.runCleanup); err != nil {
			return err
		}
	}
	if s.cfg.RepairSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.RepairSchedule, s.runRepair); err != nil {
			return err
		}
	}
	if s.uploads != nil && s.uploadsTTL > 0 && s.cfg.UploadsSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.UploadsSchedule, s.runUploadCleanup); err != nil {
			return err
		}
	}
	s.cron.Start()
	s.logger.Info("maintenance scheduler started",
		zap.String("cleanup_schedule", s.cfg.CleanupSchedule),
		zap.String("repair_schedule", s.cfg.RepairSchedule),
		zap.String("uploads_schedule", s.cfg.UploadsSchedule))
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	cleared, err := s.featured.CleanupElapsed(ctx, time.Now())
	if err != nil {
		s.logger.Error("featured cleanup job failed", zap.Error(err))
		return
	}
	s.logger.Info("featured cleanup job finished", zap.Int("cleared", cleared))
}

func (s *Scheduler) runUploadCleanup() {
	deleted, err := s.uploads.Cleanup(s.uploadsTTL)
	if err != nil {
		s.logger.Error("upload retention job failed", zap.Error(err))
		return
	}
	s.logger.Info("upload retention job finished", zap.Int("deleted", len(deleted)))
}

func (s *Scheduler) runRepair() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	result, err := s.recurrence.RepairDates(ctx)
	if err != nil {
		s.logger.Error("date repair job failed", zap.Error(err))
		return
	}
	s.logger.Info("date repair job finished",
		zap.Int("corrected", result.CorrectedCount),
		zap.Int("failed", len(result.FailedIDs)))
}

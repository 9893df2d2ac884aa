package service

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/martial-arts-tracker/internal/models"
	"github.com/noah-isme/martial-arts-tracker/pkg/jobs"
)

// JobTypeScheduledBackup identifies backup jobs on the queue.
const JobTypeScheduledBackup = "scheduled_backup"

// BackupDir is the storage directory receiving scheduled backups.
const BackupDir = "backups"

type backupFileStore interface {
	Save(name string, data []byte) (string, error)
	CleanupOlderThan(dir string, ttl time.Duration, now time.Time) ([]string, error)
}

// BackupSchedulerConfig wires a BackupScheduler.
type BackupSchedulerConfig struct {
	Backups   backupFileSource
	Store     backupFileStore
	Schedule  string
	Retention time.Duration
	// ExportTTL prunes generated exports once their download links expired.
	ExportTTL  time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Metrics    *MetricsService
	Logger     *zap.Logger
}

// BackupScheduler writes a JSON backup on a cron schedule and prunes old
// files. Cron only enqueues; the job queue runs and retries the work.
type BackupScheduler struct {
	backups   backupFileSource
	store     backupFileStore
	schedule  string
	retention time.Duration
	exportTTL time.Duration
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time

	queue *jobs.Queue
	cron  *cron.Cron
}

// NewBackupScheduler builds a stopped scheduler.
func NewBackupScheduler(cfg BackupSchedulerConfig) *BackupScheduler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "0 3 * * *"
	}
	s := &BackupScheduler{
		backups:   cfg.Backups,
		store:     cfg.Store,
		schedule:  cfg.Schedule,
		retention: cfg.Retention,
		exportTTL: cfg.ExportTTL,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		now:       time.Now,
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
	s.queue = jobs.NewQueue("backups", s.handle, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     cfg.Logger,
		OnGiveUp: func(jobs.Job, error) {
			s.metrics.RecordBackup(false)
		},
	})
	return s
}

// Start registers the cron entry and starts the queue and the cron runner.
func (s *BackupScheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.Trigger(); err != nil {
			s.logger.Error("enqueue scheduled backup failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", s.schedule, err)
	}
	s.queue.Start(ctx)
	s.cron.Start()
	s.logger.Info("backup scheduler started", zap.String("schedule", s.schedule), zap.Duration("retention", s.retention))
	return nil
}

// Stop halts the cron runner, waits for a running trigger, then stops the queue.
func (s *BackupScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.queue.Stop()
}

// Trigger enqueues a backup immediately.
func (s *BackupScheduler) Trigger() error {
	return s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: JobTypeScheduledBackup})
}

// RunOnce writes one backup and prunes expired files synchronously.
func (s *BackupScheduler) RunOnce(ctx context.Context) (string, error) {
	file, err := s.backups.ExportFile(ctx)
	if err != nil {
		return "", err
	}
	rel, err := s.store.Save(path.Join(BackupDir, file.Filename), file.Payload)
	if err != nil {
		return "", fmt.Errorf("save backup: %w", err)
	}
	s.prune()
	return rel, nil
}

func (s *BackupScheduler) handle(ctx context.Context, job jobs.Job) error {
	rel, err := s.RunOnce(ctx)
	if err != nil {
		return err
	}
	s.metrics.RecordBackup(true)
	s.logger.Info("scheduled backup written", zap.String("job_id", job.ID), zap.String("path", rel), zap.Int("attempt", job.Attempt))
	return nil
}

func (s *BackupScheduler) prune() {
	now := s.now()
	if s.retention > 0 {
		s.cleanup(BackupDir, s.retention, now)
	}
	if s.exportTTL > 0 {
		s.cleanup(string(models.ExportKindBackup), s.exportTTL, now)
		s.cleanup(string(models.ExportKindCoachPack), s.exportTTL, now)
	}
}

func (s *BackupScheduler) cleanup(dir string, ttl time.Duration, now time.Time) {
	deleted, err := s.store.CleanupOlderThan(dir, ttl, now)
	if err != nil {
		s.logger.Warn("cleanup failed", zap.String("dir", dir), zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("pruned files", zap.String("dir", dir), zap.Strings("files", deleted))
	}
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/martial-arts-tracker/internal/models"
	appErrors "github.com/noah-isme/martial-arts-tracker/pkg/errors"
)

type backupRepository interface {
	Snapshot(ctx context.Context) (*models.Backup, error)
	ReplaceAll(ctx context.Context, backup *models.Backup) error
}

// BackupService exports the whole store as one JSON document and restores it.
type BackupService struct {
	repo    backupRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewBackupService creates a backup service. cache and metrics may be nil.
func NewBackupService(repo backupRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{repo: repo, cache: cache, metrics: metrics, logger: logger, now: time.Now}
}

// ExportAll returns every art, criterion and session, unfiltered.
func (s *BackupService) ExportAll(ctx context.Context) (*models.Backup, error) {
	start := time.Now()
	backup, err := s.repo.Snapshot(ctx)
	s.metrics.ObserveStoreOperation("export_all", time.Since(start))
	if err != nil {
		s.logger.Error("export failed", zap.Error(err))
		return nil, appErrors.Storage(err, "failed to read store")
	}
	return backup, nil
}

// ExportFile renders ExportAll as an indented JSON file.
func (s *BackupService) ExportFile(ctx context.Context) (*models.ExportFile, error) {
	backup, err := s.ExportAll(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode backup")
	}
	return &models.ExportFile{
		Filename:    BackupFilename(s.now()),
		ContentType: "application/json",
		Payload:     payload,
	}, nil
}

// ImportAll replaces the store with the content of a backup document. The
// document is fully validated before anything is cleared; a storage failure
// during the replacement rolls back to the previous content.
func (s *BackupService) ImportAll(ctx context.Context, document []byte) error {
	backup, err := ParseBackup(document)
	if err != nil {
		s.logger.Warn("rejected backup document", zap.Error(err))
		return err
	}

	start := time.Now()
	err = s.repo.ReplaceAll(ctx, backup)
	s.metrics.ObserveStoreOperation("import_all", time.Since(start))
	if err != nil {
		s.logger.Error("restore failed", zap.Error(err))
		return appErrors.Storage(err, "failed to restore backup")
	}
	s.cache.InvalidateStats(ctx, "")
	s.logger.Info("backup restored",
		zap.Int("martial_arts", len(backup.MartialArts)),
		zap.Int("criteria", len(backup.Criteria)),
		zap.Int("sessions", len(backup.Sessions)))
	return nil
}

// BackupFilename is the suggested name for a backup written at t.
func BackupFilename(t time.Time) string {
	return fmt.Sprintf("martial-arts-backup-%s.json", t.UTC().Format("2006-01-02"))
}

// ParseBackup decodes and validates a backup document. Every failure is an
// IMPORT_FORMAT_INVALID error.
func ParseBackup(document []byte) (*models.Backup, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(document, &top); err != nil {
		return nil, importError(err, "backup must be a JSON object")
	}

	backup := &models.Backup{}
	fields := []struct {
		key  string
		dest interface{}
	}{
		{models.BackupKeyMartialArts, &backup.MartialArts},
		{models.BackupKeyCriteria, &backup.Criteria},
		{models.BackupKeySessions, &backup.Sessions},
	}
	for _, f := range fields {
		raw, ok := top[f.key]
		if !ok {
			return nil, importError(nil, fmt.Sprintf("missing %q", f.key))
		}
		if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '[' {
			return nil, importError(nil, fmt.Sprintf("%q must be an array", f.key))
		}
		if err := json.Unmarshal(raw, f.dest); err != nil {
			return nil, importError(err, fmt.Sprintf("malformed %q", f.key))
		}
	}

	if err := validateBackup(backup); err != nil {
		return nil, err
	}
	return backup, nil
}

func validateBackup(backup *models.Backup) error {
	arts := make(map[string]struct{}, len(backup.MartialArts))
	for i, art := range backup.MartialArts {
		if art.ID == "" {
			return importError(nil, fmt.Sprintf("martial_arts[%d]: id is required", i))
		}
		if _, dup := arts[art.ID]; dup {
			return importError(nil, fmt.Sprintf("martial_arts[%d]: duplicate id %q", i, art.ID))
		}
		arts[art.ID] = struct{}{}
	}

	criteria := make(map[string]struct{}, len(backup.Criteria))
	for i, c := range backup.Criteria {
		if c.ID == "" {
			return importError(nil, fmt.Sprintf("criteria[%d]: id is required", i))
		}
		if _, dup := criteria[c.ID]; dup {
			return importError(nil, fmt.Sprintf("criteria[%d]: duplicate id %q", i, c.ID))
		}
		if _, ok := arts[c.ArtID]; !ok {
			return importError(nil, fmt.Sprintf("criteria[%d]: unknown artId %q", i, c.ArtID))
		}
		criteria[c.ID] = struct{}{}
	}

	sessions := make(map[int64]struct{}, len(backup.Sessions))
	for i, session := range backup.Sessions {
		if session.ID < 0 {
			return importError(nil, fmt.Sprintf("sessions[%d]: negative id", i))
		}
		if session.ID > 0 {
			if _, dup := sessions[session.ID]; dup {
				return importError(nil, fmt.Sprintf("sessions[%d]: duplicate id %d", i, session.ID))
			}
			sessions[session.ID] = struct{}{}
		}
		if _, ok := arts[session.ArtID]; !ok {
			return importError(nil, fmt.Sprintf("sessions[%d]: unknown artId %q", i, session.ArtID))
		}
		if session.DateISO.IsZero() {
			return importError(nil, fmt.Sprintf("sessions[%d]: dateISO is required", i))
		}
		for j, rating := range session.Ratings {
			if rating.CriterionID == "" {
				return importError(nil, fmt.Sprintf("sessions[%d].ratings[%d]: criterionId is required", i, j))
			}
			if !models.ValidRatingValue(rating.Value) {
				return importError(nil, fmt.Sprintf("sessions[%d].ratings[%d]: value %d out of range", i, j, rating.Value))
			}
		}
	}
	return nil
}

func importError(err error, message string) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrImportFormat.Code, appErrors.ErrImportFormat.Status, message)
}

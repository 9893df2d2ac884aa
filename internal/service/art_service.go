package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/martial-arts-tracker/internal/models"
	appErrors "github.com/noah-isme/martial-arts-tracker/pkg/errors"
)

type artRepository interface {
	List(ctx context.Context) ([]models.MartialArt, error)
	FindByID(ctx context.Context, id string) (*models.MartialArt, error)
}

// ArtService reads the martial art catalog.
type ArtService struct {
	repo   artRepository
	logger *zap.Logger
}

// NewArtService creates an art service.
func NewArtService(repo artRepository, logger *zap.Logger) *ArtService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArtService{repo: repo, logger: logger}
}

// ListActiveArts returns every art in catalog order. The active flag is
// returned to the caller but not filtered on.
func (s *ArtService) ListActiveArts(ctx context.Context) ([]models.MartialArt, error) {
	arts, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("list arts failed", zap.Error(err))
		return nil, appErrors.Storage(err, "failed to list martial arts")
	}
	if arts == nil {
		arts = []models.MartialArt{}
	}
	return arts, nil
}

// Get returns a single art.
func (s *ArtService) Get(ctx context.Context, id string) (*models.MartialArt, error) {
	art, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "martial art not found")
		}
		return nil, appErrors.Storage(err, "failed to load martial art")
	}
	return art, nil
}

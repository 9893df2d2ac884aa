package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/martial-arts-tracker/internal/models"
	appErrors "github.com/noah-isme/martial-arts-tracker/pkg/errors"
)

type seedRepository interface {
	SeedIfEmpty(ctx context.Context, arts []models.MartialArt, criteria []models.Criterion) (bool, error)
}

type catalogEntry struct {
	id       string
	name     string
	criteria []string
}

var defaultCatalog = []catalogEntry{
	{"qigong", "Qi Gong", []string{"Bae Hue", "Ming Men", "Respiration", "Yi"}},
	{"taijiquan", "Tai Ji Quan", []string{"Bae Hue", "Ming Men", "Connection", "Jing and not Li", "Sens of opponent"}},
	{"wingtsun", "Wing Tsun", []string{"Bridge the Gap", "Moove first", "Footwork", "Keep connection", "Sens of opponent"}},
	{"chaiya", "Chaiya", []string{"Footwork", "Sens of opponent", "toes up", "connection elbows and knees"}},
	{"eskrima", "Eskrima", []string{"Footwork", "gard on the shoulder", "grasp the stick"}},
	{"shaolin", "Shaolin", []string{"Bae Hue", "Ming Men", "Eslasticity", "Continuity", "Yi", "Grounding"}},
	{"powertraining", "Power Training", []string{"Effort", "Breathing", "Connection", "Elasticity", "Focus"}},
}

// DefaultCatalog returns the arts and criteria written into an empty store.
// Criterion IDs are "<artId>-<index>" and orders follow list position.
func DefaultCatalog() ([]models.MartialArt, []models.Criterion) {
	arts := make([]models.MartialArt, 0, len(defaultCatalog))
	criteria := make([]models.Criterion, 0)
	for _, entry := range defaultCatalog {
		arts = append(arts, models.MartialArt{ID: entry.id, Name: entry.name, Active: true})
		for i, name := range entry.criteria {
			criteria = append(criteria, models.Criterion{
				ID:     fmt.Sprintf("%s-%d", entry.id, i),
				ArtID:  entry.id,
				Name:   name,
				Order:  i,
				Active: true,
			})
		}
	}
	return arts, criteria
}

// SeedService populates a fresh store with the default catalog.
type SeedService struct {
	repo   seedRepository
	logger *zap.Logger
}

// NewSeedService creates a seed service.
func NewSeedService(repo seedRepository, logger *zap.Logger) *SeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeedService{repo: repo, logger: logger}
}

// Seed writes the catalog when no art exists. It reports whether anything was
// written; running it against a populated store is a no-op.
func (s *SeedService) Seed(ctx context.Context) (bool, error) {
	arts, criteria := DefaultCatalog()
	seeded, err := s.repo.SeedIfEmpty(ctx, arts, criteria)
	if err != nil {
		s.logger.Error("seed failed", zap.Error(err))
		return false, appErrors.Storage(err, "failed to seed catalog")
	}
	if seeded {
		s.logger.Info("seeded default catalog", zap.Int("arts", len(arts)), zap.Int("criteria", len(criteria)))
	}
	return seeded, nil
}

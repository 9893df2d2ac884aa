package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/martial-arts-tracker/internal/models"
	appErrors "github.com/noah-isme/martial-arts-tracker/pkg/errors"
)

type cachedStats struct {
	Stats *models.ArtStats `json:"stats"`
}

// StatsService computes rolling per-criterion averages over the most recent
// sessions of an art.
type StatsService struct {
	sessions sessionRepository
	criteria criterionRepository
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewStatsService creates a stats service. cache and metrics may be nil.
func NewStatsService(sessions sessionRepository, criteria criterionRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{sessions: sessions, criteria: criteria, cache: cache, metrics: metrics, logger: logger}
}

// ComputeStats averages the ratings of the last StatsWindowSize sessions for
// every ratable criterion. It returns nil when the art has no sessions. A
// criterion without ratings in the window averages 0.
func (s *StatsService) ComputeStats(ctx context.Context, artID string) (*models.ArtStats, error) {
	key := statsCacheKey(artID)
	var cached cachedStats
	if s.cache.Get(ctx, key, &cached) {
		return cached.Stats, nil
	}

	start := time.Now()
	window, err := s.sessions.List(ctx, models.SessionFilter{ArtID: artID, Limit: models.StatsWindowSize})
	if err != nil {
		s.logger.Error("load stats window failed", zap.String("art_id", artID), zap.Error(err))
		return nil, appErrors.Storage(err, "failed to load sessions")
	}
	all, err := s.criteria.ListByArt(ctx, artID)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load criteria")
	}
	s.metrics.ObserveStoreOperation("compute_stats", time.Since(start))

	stats := aggregate(artID, window, ratable(all))
	s.cache.Set(ctx, key, cachedStats{Stats: stats}, 0)
	return stats, nil
}

func aggregate(artID string, window []models.Session, criteria []models.Criterion) *models.ArtStats {
	if len(window) == 0 {
		return nil
	}
	type tally struct{ sum, count int }
	tallies := make(map[string]*tally, len(criteria))
	for _, c := range criteria {
		tallies[c.ID] = &tally{}
	}
	for _, session := range window {
		for _, rating := range session.Ratings {
			if t, ok := tallies[rating.CriterionID]; ok {
				t.sum += rating.Value
				t.count++
			}
		}
	}

	stats := &models.ArtStats{
		ArtID:          artID,
		SessionCount:   len(window),
		CriterionStats: make([]models.CriterionStat, 0, len(criteria)),
	}
	for _, c := range criteria {
		t := tallies[c.ID]
		stats.CriterionStats = append(stats.CriterionStats, models.CriterionStat{
			CriterionID:   c.ID,
			CriterionName: c.Name,
			Average:       roundedAverage(t.sum, t.count),
		})
	}
	return stats
}

// roundedAverage returns sum/count rounded half away from zero to one decimal.
// The rounding is done on integer tenths so x.x5 values round exactly.
func roundedAverage(sum, count int) float64 {
	if count == 0 {
		return 0
	}
	negative := sum < 0
	if negative {
		sum = -sum
	}
	tenths := (20*sum + count) / (2 * count)
	if negative {
		tenths = -tenths
	}
	return float64(tenths) / 10
}

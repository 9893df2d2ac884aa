package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/martial-arts-tracker/internal/models"
	appErrors "github.com/noah-isme/martial-arts-tracker/pkg/errors"
)

func TestComputeStatsNoSessions(t *testing.T) {
	db := newMemDB()
	stats, err := NewStatsService(memSessions{db}, memCriteria{db}, nil, nil, nil).ComputeStats(context.Background(), "qigong")
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestComputeStatsUsesLastFiveSessions(t *testing.T) {
	db := newMemDB()
	sessions := newSessionService(db)
	ctx := context.Background()
	base := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	for v := 0; v <= 5; v++ {
		date := base.Add(time.Duration(v) * time.Hour)
		_, err := sessions.CreateSession(ctx, CreateSessionRequest{ArtID: "eskrima", DateISO: &date, Ratings: rateAll(db, "eskrima", v)})
		require.NoError(t, err)
	}

	stats, err := NewStatsService(memSessions{db}, memCriteria{db}, nil, nil, nil).ComputeStats(ctx, "eskrima")
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 5, stats.SessionCount)
	require.Len(t, stats.CriterionStats, 3)
	for _, stat := range stats.CriterionStats {
		assert.Equal(t, 3.0, stat.Average)
	}
	assert.Equal(t, "Footwork", stats.CriterionStats[0].CriterionName)
}

func TestComputeStatsZeroForUnratedCriterion(t *testing.T) {
	db := newMemDB()
	ctx := context.Background()
	_, err := newSessionService(db).CreateSession(ctx, CreateSessionRequest{ArtID: "eskrima", Ratings: rateAll(db, "eskrima", 4)})
	require.NoError(t, err)
	added, err := newCriterionService(db).AddCriterion(ctx, "eskrima", CriterionNameRequest{Name: "Distance"})
	require.NoError(t, err)
	_, err = newCriterionService(db).RenameCriterion(ctx, "eskrima-0", CriterionNameRequest{Name: "Legwork"})
	require.NoError(t, err)

	stats, err := NewStatsService(memSessions{db}, memCriteria{db}, nil, nil, nil).ComputeStats(ctx, "eskrima")
	require.NoError(t, err)
	require.Len(t, stats.CriterionStats, 4)
	assert.Equal(t, models.CriterionStat{CriterionID: "eskrima-0", CriterionName: "Legwork", Average: 4}, stats.CriterionStats[0])
	assert.Equal(t, models.CriterionStat{CriterionID: added.ID, CriterionName: "Distance", Average: 0}, stats.CriterionStats[3])
}

func TestComputeStatsStorageFailure(t *testing.T) {
	db := newMemDB()
	db.failing = true
	_, err := NewStatsService(memSessions{db}, memCriteria{db}, nil, nil, nil).ComputeStats(context.Background(), "qigong")
	require.ErrorIs(t, err, appErrors.ErrStorage)
}

func TestRoundedAverage(t *testing.T) {
	cases := []struct {
		sum, count int
		want       float64
	}{
		{0, 0, 0},
		{15, 5, 3.0},
		{10, 3, 3.3},
		{11, 3, 3.7},
		{1, 8, 0.1},  // 0.125
		{3, 8, 0.4},  // 0.375
		{5, 4, 1.3},  // 1.25
		{21, 4, 5.3}, // 5.25
		{-5, 4, -1.3},
		{9, 2, 4.5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, roundedAverage(tc.sum, tc.count), "%d/%d", tc.sum, tc.count)
	}
}

type fakeCache struct {
	values  map[string]cachedStats
	deleted []string
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	v, ok := f.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*dest.(*cachedStats) = v
	return nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.values[key] = value.(cachedStats)
	return nil
}

func (f *fakeCache) DeleteByPattern(ctx context.Context, pattern string) error {
	f.deleted = append(f.deleted, pattern)
	delete(f.values, pattern)
	return nil
}

func TestComputeStatsCachedAndInvalidated(t *testing.T) {
	db := newMemDB()
	ctx := context.Background()
	store := &fakeCache{values: map[string]cachedStats{}}
	metrics := NewMetricsService()
	cache := NewCacheService(store, metrics, time.Minute, nil, true)
	stats := NewStatsService(memSessions{db}, memCriteria{db}, cache, metrics, nil)
	sessions := NewSessionService(memSessions{db}, memCriteria{db}, memArts{db}, cache, metrics, nil, nil)

	first, err := stats.ComputeStats(ctx, "qigong")
	require.NoError(t, err)
	assert.Nil(t, first)
	assert.Contains(t, store.values, "mat:stats:qigong")

	_, err = sessions.CreateSession(ctx, CreateSessionRequest{ArtID: "qigong", Ratings: rateAll(db, "qigong", 2)})
	require.NoError(t, err)
	assert.Equal(t, []string{"mat:stats:qigong"}, store.deleted)

	second, err := stats.ComputeStats(ctx, "qigong")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, 2.0, second.CriterionStats[0].Average)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(2), snapshot.CacheMisses)
}

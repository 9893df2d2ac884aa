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

func newSessionService(db *memDB) *SessionService {
	return NewSessionService(memSessions{db}, memCriteria{db}, memArts{db}, nil, nil, nil, nil)
}

func TestCreateSessionSnapshotsNamesInCriteriaOrder(t *testing.T) {
	db := newMemDB()
	svc := newSessionService(db)
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	session, err := svc.CreateSession(context.Background(), CreateSessionRequest{
		ArtID: "qigong",
		Ratings: []RatingInput{
			{CriterionID: "qigong-3", Value: intPtr(5)},
			{CriterionID: "qigong-0", Value: intPtr(0)},
			{CriterionID: "qigong-2", Value: intPtr(3)},
			{CriterionID: "qigong-1", Value: intPtr(4)},
		},
		NotesText: "slow form",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), session.ID)
	assert.Equal(t, fixed, session.DateISO)
	require.Len(t, session.Ratings, 4)
	assert.Equal(t, models.SessionRating{CriterionID: "qigong-0", CriterionNameAtTime: "Bae Hue", Value: 0}, session.Ratings[0])
	assert.Equal(t, "Yi", session.Ratings[3].CriterionNameAtTime)
	assert.Equal(t, 5, session.Ratings[3].Value)
	assert.Len(t, db.sessions, 1)
}

func TestCreateSessionKeepsGivenDateInUTC(t *testing.T) {
	db := newMemDB()
	paris := time.FixedZone("CET", 3600)
	date := time.Date(2024, 3, 1, 11, 0, 0, 0, paris)
	session, err := newSessionService(db).CreateSession(context.Background(), CreateSessionRequest{
		ArtID: "eskrima", DateISO: &date, Ratings: rateAll(db, "eskrima", 2),
	})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, session.DateISO.Location())
	assert.True(t, date.Equal(session.DateISO))
}

func TestCreateSessionValidation(t *testing.T) {
	ctx := context.Background()
	cases := map[string]func(db *memDB) CreateSessionRequest{
		"missing art id": func(db *memDB) CreateSessionRequest {
			return CreateSessionRequest{Ratings: rateAll(db, "qigong", 1)}
		},
		"unknown art": func(db *memDB) CreateSessionRequest {
			return CreateSessionRequest{ArtID: "karate"}
		},
		"missing rating": func(db *memDB) CreateSessionRequest {
			return CreateSessionRequest{ArtID: "qigong", Ratings: rateAll(db, "qigong", 1)[1:]}
		},
		"value above range": func(db *memDB) CreateSessionRequest {
			ratings := rateAll(db, "qigong", 1)
			ratings[0].Value = intPtr(6)
			return CreateSessionRequest{ArtID: "qigong", Ratings: ratings}
		},
		"negative value": func(db *memDB) CreateSessionRequest {
			ratings := rateAll(db, "qigong", 1)
			ratings[2].Value = intPtr(-1)
			return CreateSessionRequest{ArtID: "qigong", Ratings: ratings}
		},
		"missing value": func(db *memDB) CreateSessionRequest {
			ratings := rateAll(db, "qigong", 1)
			ratings[1].Value = nil
			return CreateSessionRequest{ArtID: "qigong", Ratings: ratings}
		},
		"duplicate rating": func(db *memDB) CreateSessionRequest {
			ratings := rateAll(db, "qigong", 1)
			return CreateSessionRequest{ArtID: "qigong", Ratings: append(ratings, ratings[0])}
		},
		"criterion of another art": func(db *memDB) CreateSessionRequest {
			ratings := rateAll(db, "qigong", 1)
			ratings = append(ratings, RatingInput{CriterionID: "eskrima-0", Value: intPtr(1)})
			return CreateSessionRequest{ArtID: "qigong", Ratings: ratings}
		},
	}

	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			db := newMemDB()
			_, err := newSessionService(db).CreateSession(ctx, build(db))
			require.ErrorIs(t, err, appErrors.ErrValidation)
			assert.Empty(t, db.sessions)
		})
	}
}

func TestCreateSessionRejectsRatingForDeletedCriterion(t *testing.T) {
	db := newMemDB()
	ratings := rateAll(db, "qigong", 3)
	require.NoError(t, newCriterionService(db).SoftDeleteCriterion(context.Background(), "qigong-3"))

	_, err := newSessionService(db).CreateSession(context.Background(), CreateSessionRequest{ArtID: "qigong", Ratings: ratings})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	session, err := newSessionService(db).CreateSession(context.Background(), CreateSessionRequest{ArtID: "qigong", Ratings: ratings[:3]})
	require.NoError(t, err)
	assert.Len(t, session.Ratings, 3)
}

func TestCreateSessionStorageFailure(t *testing.T) {
	db := newMemDB()
	ratings := rateAll(db, "qigong", 3)
	db.failing = true
	_, err := newSessionService(db).CreateSession(context.Background(), CreateSessionRequest{ArtID: "qigong", Ratings: ratings})
	require.ErrorIs(t, err, appErrors.ErrStorage)
}

func TestListSessionsNewestFirstWithLimit(t *testing.T) {
	db := newMemDB()
	svc := newSessionService(db)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, offset := range []int{2, 0, 5, 1} {
		date := base.AddDate(0, 0, offset)
		_, err := svc.CreateSession(ctx, CreateSessionRequest{ArtID: "eskrima", DateISO: &date, Ratings: rateAll(db, "eskrima", 1)})
		require.NoError(t, err)
	}
	date := base.AddDate(0, 0, 9)
	_, err := svc.CreateSession(ctx, CreateSessionRequest{ArtID: "qigong", DateISO: &date, Ratings: rateAll(db, "qigong", 1)})
	require.NoError(t, err)

	all, err := svc.ListSessions(ctx, models.SessionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "qigong", all[0].ArtID)

	limited, err := svc.ListSessions(ctx, models.SessionFilter{ArtID: "eskrima", Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, base.AddDate(0, 0, 5), limited[0].DateISO)
	assert.Equal(t, base.AddDate(0, 0, 2), limited[1].DateISO)

	_, err = svc.ListSessions(ctx, models.SessionFilter{Limit: -1})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

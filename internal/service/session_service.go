package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/martial-arts-tracker/internal/models"
	appErrors "github.com/noah-isme/martial-arts-tracker/pkg/errors"
)

type sessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, error)
}

// RatingInput is one submitted rating.
type RatingInput struct {
	CriterionID string `json:"criterionId" validate:"required"`
	Value       *int   `json:"value" validate:"required,min=0,max=5"`
}

// CreateSessionRequest is the payload for recording a session. DateISO
// defaults to the current time.
type CreateSessionRequest struct {
	ArtID     string        `json:"artId" validate:"required"`
	DateISO   *time.Time    `json:"dateISO"`
	Ratings   []RatingInput `json:"ratings" validate:"dive"`
	NotesText string        `json:"notesText"`
}

// SessionService records and lists practice sessions.
type SessionService struct {
	repo      sessionRepository
	criteria  criterionRepository
	arts      artRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSessionService creates a session service. cache and metrics may be nil.
func NewSessionService(repo sessionRepository, criteria criterionRepository, arts artRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		repo:      repo,
		criteria:  criteria,
		arts:      arts,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateSession validates the ratings against the art's ratable criteria,
// snapshots the current criterion names and stores the session with its
// ratings atomically. Nothing is written when validation fails.
func (s *SessionService) CreateSession(ctx context.Context, req CreateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	if _, err := s.arts.FindByID(ctx, req.ArtID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown martial art")
		}
		return nil, appErrors.Storage(err, "failed to load martial art")
	}

	all, err := s.criteria.ListByArt(ctx, req.ArtID)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load criteria")
	}
	ratings, err := snapshotRatings(ratable(all), req.Ratings)
	if err != nil {
		return nil, err
	}

	date := s.now()
	if req.DateISO != nil && !req.DateISO.IsZero() {
		date = *req.DateISO
	}
	session := &models.Session{
		ArtID:     req.ArtID,
		DateISO:   date.UTC(),
		Ratings:   ratings,
		NotesText: req.NotesText,
	}

	start := time.Now()
	err = s.repo.Create(ctx, session)
	s.metrics.ObserveStoreOperation("create_session", time.Since(start))
	if err != nil {
		s.logger.Error("create session failed", zap.String("art_id", req.ArtID), zap.Error(err))
		return nil, appErrors.Storage(err, "failed to save session")
	}
	s.cache.InvalidateStats(ctx, req.ArtID)
	s.logger.Info("session recorded", zap.Int64("session_id", session.ID), zap.String("art_id", session.ArtID))
	return session, nil
}

// ListSessions returns sessions newest first, optionally for one art and
// capped at filter.Limit.
func (s *SessionService) ListSessions(ctx context.Context, filter models.SessionFilter) ([]models.Session, error) {
	if filter.Limit < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "limit must not be negative")
	}
	sessions, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list sessions failed", zap.Error(err))
		return nil, appErrors.Storage(err, "failed to list sessions")
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	return sessions, nil
}

// snapshotRatings checks that inputs rate each ratable criterion exactly once
// and returns the ratings in criterion order with names captured.
func snapshotRatings(criteria []models.Criterion, inputs []RatingInput) ([]models.SessionRating, error) {
	values := make(map[string]int, len(inputs))
	for _, in := range inputs {
		if in.Value == nil || !models.ValidRatingValue(*in.Value) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("rating for %s must be between %d and %d", in.CriterionID, models.MinRatingValue, models.MaxRatingValue))
		}
		if _, dup := values[in.CriterionID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("criterion %s rated more than once", in.CriterionID))
		}
		values[in.CriterionID] = *in.Value
	}

	ratings := make([]models.SessionRating, 0, len(criteria))
	for _, c := range criteria {
		value, ok := values[c.ID]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("missing rating for criterion %q", c.Name))
		}
		ratings = append(ratings, models.SessionRating{
			CriterionID:         c.ID,
			CriterionNameAtTime: c.Name,
			Value:               value,
		})
		delete(values, c.ID)
	}
	if len(values) > 0 {
		extra := make([]string, 0, len(values))
		for id := range values {
			extra = append(extra, id)
		}
		sort.Strings(extra)
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("criteria not ratable for this art: %s", strings.Join(extra, ", ")))
	}
	return ratings, nil
}

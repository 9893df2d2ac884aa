package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/martial-arts-tracker/internal/models"
	appErrors "github.com/noah-isme/martial-arts-tracker/pkg/errors"
)

type criterionRepository interface {
	ListByArt(ctx context.Context, artID string) ([]models.Criterion, error)
	FindByID(ctx context.Context, id string) (*models.Criterion, error)
	MaxOrder(ctx context.Context, artID string) (int, bool, error)
	Create(ctx context.Context, criterion *models.Criterion) error
	Rename(ctx context.Context, id, name string) (bool, error)
	SoftDelete(ctx context.Context, id string, at time.Time) (bool, error)
	UpdateOrders(ctx context.Context, criteria []models.Criterion) error
}

// CriterionNameRequest carries a new or changed criterion name.
type CriterionNameRequest struct {
	Name string `json:"name" validate:"required"`
}

// MoveCriterionRequest selects the reorder direction.
type MoveCriterionRequest struct {
	Direction models.MoveDirection `json:"direction" validate:"required,oneof=up down"`
}

// CriterionService manages the criteria of each art: listing, adding,
// renaming, manual ordering and soft deletion.
type CriterionService struct {
	repo      criterionRepository
	arts      artRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewCriterionService creates a criterion service. cache may be nil.
func NewCriterionService(repo criterionRepository, arts artRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CriterionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CriterionService{repo: repo, arts: arts, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// ListRatableCriteria returns the active, non-deleted criteria of an art in
// display order.
func (s *CriterionService) ListRatableCriteria(ctx context.Context, artID string) ([]models.Criterion, error) {
	all, err := s.ListAllCriteria(ctx, artID)
	if err != nil {
		return nil, err
	}
	return ratable(all), nil
}

// ListAllCriteria returns every criterion of an art, soft-deleted included.
func (s *CriterionService) ListAllCriteria(ctx context.Context, artID string) ([]models.Criterion, error) {
	criteria, err := s.repo.ListByArt(ctx, artID)
	if err != nil {
		s.logger.Error("list criteria failed", zap.String("art_id", artID), zap.Error(err))
		return nil, appErrors.Storage(err, "failed to list criteria")
	}
	if criteria == nil {
		criteria = []models.Criterion{}
	}
	return criteria, nil
}

// AddCriterion appends a criterion after every existing one of the art,
// soft-deleted criteria included, so orders are never reused.
func (s *CriterionService) AddCriterion(ctx context.Context, artID string, req CriterionNameRequest) (*models.Criterion, error) {
	name, err := s.validName(req)
	if err != nil {
		return nil, err
	}
	if _, err := s.arts.FindByID(ctx, artID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "martial art not found")
		}
		return nil, appErrors.Storage(err, "failed to load martial art")
	}

	highest, ok, err := s.repo.MaxOrder(ctx, artID)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to compute criterion order")
	}
	order := 0
	if ok {
		order = highest + 1
	}

	criterion := &models.Criterion{
		ID:     fmt.Sprintf("%s-%s", artID, uuid.NewString()),
		ArtID:  artID,
		Name:   name,
		Order:  order,
		Active: true,
	}
	if err := s.repo.Create(ctx, criterion); err != nil {
		s.logger.Error("add criterion failed", zap.String("art_id", artID), zap.Error(err))
		return nil, appErrors.Storage(err, "failed to add criterion")
	}
	s.cache.InvalidateStats(ctx, artID)
	s.logger.Info("criterion added", zap.String("criterion_id", criterion.ID), zap.Int("order", order))
	return criterion, nil
}

// RenameCriterion changes the live name. Recorded sessions keep the name they
// were rated under.
func (s *CriterionService) RenameCriterion(ctx context.Context, id string, req CriterionNameRequest) (*models.Criterion, error) {
	name, err := s.validName(req)
	if err != nil {
		return nil, err
	}
	criterion, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	changed, err := s.repo.Rename(ctx, id, name)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to rename criterion")
	}
	if !changed {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "criterion not found")
	}
	criterion.Name = name
	s.cache.InvalidateStats(ctx, criterion.ArtID)
	return criterion, nil
}

// ReorderCriterion swaps a criterion with its neighbour among the non-deleted
// criteria of its art. Moving the first one up or the last one down is a
// no-op. Tied orders are spread out first so sibling orders end up distinct.
func (s *CriterionService) ReorderCriterion(ctx context.Context, id string, req MoveCriterionRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "direction must be up or down")
	}
	criterion, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if criterion.Deleted() {
		return appErrors.Clone(appErrors.ErrNotFound, "criterion not found")
	}

	all, err := s.repo.ListByArt(ctx, criterion.ArtID)
	if err != nil {
		return appErrors.Storage(err, "failed to list criteria")
	}
	siblings := make([]models.Criterion, 0, len(all))
	idx := -1
	for _, c := range all {
		if c.Deleted() {
			continue
		}
		if c.ID == id {
			idx = len(siblings)
		}
		siblings = append(siblings, c)
	}
	if idx < 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "criterion not found")
	}

	neighbour := idx - 1
	if req.Direction == models.MoveDown {
		neighbour = idx + 1
	}
	if neighbour < 0 || neighbour >= len(siblings) {
		return nil
	}

	changed := swapOrders(siblings, idx, neighbour)
	if err := s.repo.UpdateOrders(ctx, changed); err != nil {
		s.logger.Error("reorder criterion failed", zap.String("criterion_id", id), zap.Error(err))
		return appErrors.Storage(err, "failed to reorder criterion")
	}
	s.cache.InvalidateStats(ctx, criterion.ArtID)
	return nil
}

// SoftDeleteCriterion retires a criterion from future sessions. Missing or
// already deleted criteria are left alone and the call succeeds.
func (s *CriterionService) SoftDeleteCriterion(ctx context.Context, id string) error {
	criterion, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Storage(err, "failed to load criterion")
	}
	if criterion.Deleted() {
		return nil
	}
	if _, err := s.repo.SoftDelete(ctx, id, s.now().UTC()); err != nil {
		s.logger.Error("soft delete criterion failed", zap.String("criterion_id", id), zap.Error(err))
		return appErrors.Storage(err, "failed to delete criterion")
	}
	s.cache.InvalidateStats(ctx, criterion.ArtID)
	return nil
}

func (s *CriterionService) find(ctx context.Context, id string) (*models.Criterion, error) {
	criterion, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "criterion not found")
		}
		return nil, appErrors.Storage(err, "failed to load criterion")
	}
	return criterion, nil
}

func (s *CriterionService) validName(req CriterionNameRequest) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "criterion name is required")
	}
	return req.Name, nil
}

func ratable(criteria []models.Criterion) []models.Criterion {
	out := make([]models.Criterion, 0, len(criteria))
	for _, c := range criteria {
		if c.Ratable() {
			out = append(out, c)
		}
	}
	return out
}

// swapOrders exchanges the positions i and j of siblings (sorted by order)
// and returns the criteria whose order value must change. Orders are first
// made strictly increasing so the result never contains ties.
func swapOrders(siblings []models.Criterion, i, j int) []models.Criterion {
	orders := make([]int, len(siblings))
	for k, c := range siblings {
		orders[k] = c.Order
		if k > 0 && orders[k] <= orders[k-1] {
			orders[k] = orders[k-1] + 1
		}
	}
	siblings[i], siblings[j] = siblings[j], siblings[i]

	changed := make([]models.Criterion, 0, 2)
	for k := range siblings {
		if siblings[k].Order != orders[k] {
			siblings[k].Order = orders[k]
			changed = append(changed, siblings[k])
		}
	}
	return changed
}

package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/martial-arts-tracker/internal/models"
	"github.com/noah-isme/martial-arts-tracker/internal/service"
	appErrors "github.com/noah-isme/martial-arts-tracker/pkg/errors"
	"github.com/noah-isme/martial-arts-tracker/pkg/response"
)

type criterionService interface {
	ListRatableCriteria(ctx context.Context, artID string) ([]models.Criterion, error)
	ListAllCriteria(ctx context.Context, artID string) ([]models.Criterion, error)
	AddCriterion(ctx context.Context, artID string, req service.CriterionNameRequest) (*models.Criterion, error)
	RenameCriterion(ctx context.Context, id string, req service.CriterionNameRequest) (*models.Criterion, error)
	ReorderCriterion(ctx context.Context, id string, req service.MoveCriterionRequest) error
	SoftDeleteCriterion(ctx context.Context, id string) error
}

// CriterionHandler exposes criterion management endpoints.
type CriterionHandler struct {
	service criterionService
}

// NewCriterionHandler builds a new handler.
func NewCriterionHandler(service criterionService) *CriterionHandler {
	return &CriterionHandler{service: service}
}

// List godoc
// @Summary List criteria of an art
// @Tags Criteria
// @Produce json
// @Param id path string true "Art ID"
// @Param all query bool false "Include inactive and soft-deleted criteria"
// @Success 200 {object} response.Envelope
// @Router /arts/{id}/criteria [get]
func (h *CriterionHandler) List(c *gin.Context) {
	all, _ := strconv.ParseBool(c.Query("all"))
	var (
		criteria []models.Criterion
		err      error
	)
	if all {
		criteria, err = h.service.ListAllCriteria(c.Request.Context(), c.Param("id"))
	} else {
		criteria, err = h.service.ListRatableCriteria(c.Request.Context(), c.Param("id"))
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, criteria)
}

// Add godoc
// @Summary Add a criterion to an art
// @Tags Criteria
// @Accept json
// @Produce json
// @Param id path string true "Art ID"
// @Param payload body service.CriterionNameRequest true "Criterion name"
// @Success 201 {object} response.Envelope
// @Router /arts/{id}/criteria [post]
func (h *CriterionHandler) Add(c *gin.Context) {
	var req service.CriterionNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	criterion, err := h.service.AddCriterion(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, criterion)
}

// Rename godoc
// @Summary Rename a criterion
// @Tags Criteria
// @Accept json
// @Produce json
// @Param id path string true "Criterion ID"
// @Param payload body service.CriterionNameRequest true "New name"
// @Success 200 {object} response.Envelope
// @Router /criteria/{id} [patch]
func (h *CriterionHandler) Rename(c *gin.Context) {
	var req service.CriterionNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	criterion, err := h.service.RenameCriterion(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, criterion)
}

// Move godoc
// @Summary Move a criterion up or down
// @Tags Criteria
// @Accept json
// @Param id path string true "Criterion ID"
// @Param payload body service.MoveCriterionRequest true "Direction"
// @Success 204
// @Router /criteria/{id}/move [post]
func (h *CriterionHandler) Move(c *gin.Context) {
	var req service.MoveCriterionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	if err := h.service.ReorderCriterion(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Soft-delete a criterion
// @Tags Criteria
// @Param id path string true "Criterion ID"
// @Success 204
// @Router /criteria/{id} [delete]
func (h *CriterionHandler) Delete(c *gin.Context) {
	if err := h.service.SoftDeleteCriterion(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

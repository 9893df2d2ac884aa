package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/martial-arts-tracker/internal/models"
	"github.com/noah-isme/martial-arts-tracker/internal/service"
	appErrors "github.com/noah-isme/martial-arts-tracker/pkg/errors"
	"github.com/noah-isme/martial-arts-tracker/pkg/response"
)

type exportService interface {
	RenderCoachPack(ctx context.Context, format models.ExportFormat) (*models.ExportFile, error)
	Generate(ctx context.Context, req service.GenerateExportRequest) (*models.StoredExport, error)
	Download(ctx context.Context, token string) (*models.ExportFile, error)
}

// ExportHandler serves coach packs and signed export downloads.
type ExportHandler struct {
	service exportService
}

// NewExportHandler builds a new handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// CoachPack godoc
// @Summary Download the coach pack
// @Tags Exports
// @Produce octet-stream
// @Param format query string false "csv (default), pdf or xlsx"
// @Success 200 {file} file
// @Router /exports/coach-pack [get]
func (h *ExportHandler) CoachPack(c *gin.Context) {
	file, err := h.service.RenderCoachPack(c.Request.Context(), models.ExportFormat(c.Query("format")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Payload)
}

// Generate godoc
// @Summary Store an export and return a signed download link
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body service.GenerateExportRequest true "Export kind and format"
// @Success 201 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Generate(c *gin.Context) {
	var req service.GenerateExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	stored, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, stored)
}

// Download godoc
// @Summary Download a stored export
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	file, err := h.service.Download(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Payload)
}

package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/martial-arts-tracker/internal/models"
	"github.com/noah-isme/martial-arts-tracker/pkg/response"
)

type artService interface {
	ListActiveArts(ctx context.Context) ([]models.MartialArt, error)
	Get(ctx context.Context, id string) (*models.MartialArt, error)
}

type statsService interface {
	ComputeStats(ctx context.Context, artID string) (*models.ArtStats, error)
}

// ArtHandler exposes the art catalog and per-art statistics.
type ArtHandler struct {
	arts  artService
	stats statsService
}

// NewArtHandler builds a new handler.
func NewArtHandler(arts artService, stats statsService) *ArtHandler {
	return &ArtHandler{arts: arts, stats: stats}
}

// List godoc
// @Summary List martial arts
// @Tags Arts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /arts [get]
func (h *ArtHandler) List(c *gin.Context) {
	arts, err := h.arts.ListActiveArts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, arts)
}

// Get godoc
// @Summary Get a martial art
// @Tags Arts
// @Produce json
// @Param id path string true "Art ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /arts/{id} [get]
func (h *ArtHandler) Get(c *gin.Context) {
	art, err := h.arts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, art)
}

// Stats godoc
// @Summary Rolling averages over the last five sessions
// @Description data is null when the art has no sessions
// @Tags Arts
// @Produce json
// @Param id path string true "Art ID"
// @Success 200 {object} response.Envelope
// @Router /arts/{id}/stats [get]
func (h *ArtHandler) Stats(c *gin.Context) {
	stats, err := h.stats.ComputeStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats)
}

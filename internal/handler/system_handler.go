package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/martial-arts-tracker/internal/service"
	appErrors "github.com/noah-isme/martial-arts-tracker/pkg/errors"
	"github.com/noah-isme/martial-arts-tracker/pkg/response"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

// SystemHandler exposes liveness, readiness and metrics endpoints.
type SystemHandler struct {
	metrics *service.MetricsService
	store   pinger
}

// NewSystemHandler constructs a system handler.
func NewSystemHandler(metrics *service.MetricsService, store pinger) *SystemHandler {
	return &SystemHandler{metrics: metrics, store: store}
}

// Health reports that the process is up.
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether the store answers.
func (h *SystemHandler) Ready(c *gin.Context) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.PingContext(ctx); err != nil {
			response.Error(c, appErrors.Storage(err, "store not ready"))
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *SystemHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Snapshot godoc
// @Summary Process counters as JSON
// @Tags System
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /system/metrics [get]
func (h *SystemHandler) Snapshot(c *gin.Context) {
	response.OK(c, h.metrics.Snapshot())
}

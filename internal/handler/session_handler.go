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

type sessionService interface {
	CreateSession(ctx context.Context, req service.CreateSessionRequest) (*models.Session, error)
	ListSessions(ctx context.Context, filter models.SessionFilter) ([]models.Session, error)
}

// SessionHandler exposes session recording and history.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler builds a new handler.
func NewSessionHandler(service sessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// List godoc
// @Summary List sessions, newest first
// @Tags Sessions
// @Produce json
// @Param artId query string false "Only sessions of this art"
// @Param limit query int false "Maximum number of sessions"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	filter := models.SessionFilter{ArtID: c.Query("artId")}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be an integer"))
			return
		}
		filter.Limit = limit
	}
	sessions, err := h.service.ListSessions(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sessions)
}

// Create godoc
// @Summary Record a session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body service.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req service.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	session, err := h.service.CreateSession(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

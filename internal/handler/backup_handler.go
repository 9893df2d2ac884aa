package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/martial-arts-tracker/internal/models"
	appErrors "github.com/noah-isme/martial-arts-tracker/pkg/errors"
	"github.com/noah-isme/martial-arts-tracker/pkg/response"
)

// maxBackupSize bounds restore uploads.
const maxBackupSize = 32 << 20

type backupService interface {
	ExportFile(ctx context.Context) (*models.ExportFile, error)
	ImportAll(ctx context.Context, document []byte) error
}

// BackupHandler downloads and restores whole-store backups.
type BackupHandler struct {
	service backupService
}

// NewBackupHandler builds a new handler.
func NewBackupHandler(service backupService) *BackupHandler {
	return &BackupHandler{service: service}
}

// Export godoc
// @Summary Download a full JSON backup
// @Tags Backup
// @Produce json
// @Success 200 {file} file
// @Router /backup [get]
func (h *BackupHandler) Export(c *gin.Context) {
	file, err := h.service.ExportFile(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Payload)
}

// Restore godoc
// @Summary Replace all data with a backup
// @Description Accepts the backup as a raw JSON body or as a multipart "file" field.
// @Tags Backup
// @Accept json
// @Accept mpfd
// @Produce json
// @Success 204
// @Failure 422 {object} response.Envelope
// @Router /backup/restore [post]
func (h *BackupHandler) Restore(c *gin.Context) {
	document, err := readDocument(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.ImportAll(c.Request.Context(), document); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func readDocument(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBackupSize)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "multipart field \"file\" is required")
		}
		f, err := header.Open()
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "cannot read uploaded file")
		}
		defer f.Close() //nolint:errcheck
		return readAll(f)
	}
	return readAll(c.Request.Body)
}

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "cannot read backup document")
	}
	return data, nil
}

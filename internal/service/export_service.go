package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/martial-arts-tracker/internal/models"
	"github.com/noah-isme/martial-arts-tracker/pkg/export"
	appErrors "github.com/noah-isme/martial-arts-tracker/pkg/errors"
	"github.com/noah-isme/martial-arts-tracker/pkg/storage"
)

// Coach pack columns.
const (
	CoachPackColumnDate      = "sessionDate"
	CoachPackColumnArt       = "martialArt"
	CoachPackColumnCriterion = "criterionNameAtTime"
	CoachPackColumnRating    = "rating"
)

var contentTypes = map[models.ExportFormat]string{
	models.ExportFormatJSON: "application/json",
	models.ExportFormatCSV:  "text/csv; charset=utf-8",
	models.ExportFormatPDF:  "application/pdf",
	models.ExportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

type exportFileStore interface {
	Save(name string, data []byte) (string, error)
	Read(name string) ([]byte, error)
}

type linkSigner interface {
	Sign(exportID, path string) (string, time.Time, error)
	Verify(token string) (storage.Grant, error)
}

type backupFileSource interface {
	ExportFile(ctx context.Context) (*models.ExportFile, error)
}

// GenerateExportRequest asks for a stored export with a download link.
type GenerateExportRequest struct {
	Kind   models.ExportKind   `json:"kind" validate:"required,oneof=backup coach_pack"`
	Format models.ExportFormat `json:"format" validate:"omitempty,oneof=json csv pdf xlsx"`
}

// ExportService renders the coach pack and keeps generated files behind
// signed download links.
type ExportService struct {
	sessions     sessionRepository
	arts         artRepository
	backups      backupFileSource
	store        exportFileStore
	signer       linkSigner
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	downloadBase string
	now          func() time.Time

	csv  *export.CSVExporter
	pdf  *export.PDFExporter
	xlsx *export.XLSXExporter
}

// ExportServiceConfig wires ExportService collaborators. DownloadBase is the
// URL path that download tokens are appended to.
type ExportServiceConfig struct {
	Sessions     sessionRepository
	Arts         artRepository
	Backups      backupFileSource
	Store        exportFileStore
	Signer       linkSigner
	Metrics      *MetricsService
	Validator    *validator.Validate
	Logger       *zap.Logger
	DownloadBase string
}

// NewExportService creates an export service.
func NewExportService(cfg ExportServiceConfig) *ExportService {
	if cfg.Validator == nil {
		cfg.Validator = validator.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &ExportService{
		sessions:     cfg.Sessions,
		arts:         cfg.Arts,
		backups:      cfg.Backups,
		store:        cfg.Store,
		signer:       cfg.Signer,
		metrics:      cfg.Metrics,
		validator:    cfg.Validator,
		logger:       cfg.Logger,
		downloadBase: strings.TrimRight(cfg.DownloadBase, "/"),
		now:          time.Now,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
		xlsx:         export.NewXLSXExporter(),
	}
}

// CoachPackDataset flattens every session into one row per rating, in session
// listing order then rating order. The art column shows the current art name,
// or the raw ID when the art cannot be resolved.
func (s *ExportService) CoachPackDataset(ctx context.Context) (export.Dataset, error) {
	sessions, err := s.sessions.List(ctx, models.SessionFilter{})
	if err != nil {
		return export.Dataset{}, appErrors.Storage(err, "failed to list sessions")
	}
	arts, err := s.arts.List(ctx)
	if err != nil {
		return export.Dataset{}, appErrors.Storage(err, "failed to list martial arts")
	}
	names := make(map[string]string, len(arts))
	for _, art := range arts {
		names[art.ID] = art.Name
	}

	data := export.Dataset{
		Title:   "Coach pack",
		Headers: []string{CoachPackColumnDate, CoachPackColumnArt, CoachPackColumnCriterion, CoachPackColumnRating},
		Rows:    make([]map[string]string, 0),
		Numeric: []string{CoachPackColumnRating},
	}
	for _, session := range sessions {
		artName, ok := names[session.ArtID]
		if !ok {
			artName = session.ArtID
		}
		date := session.DateISO.UTC().Format(models.ISOTimestampLayout)
		for _, rating := range session.Ratings {
			data.Rows = append(data.Rows, map[string]string{
				CoachPackColumnDate:      date,
				CoachPackColumnArt:       artName,
				CoachPackColumnCriterion: rating.CriterionNameAtTime,
				CoachPackColumnRating:    strconv.Itoa(rating.Value),
			})
		}
	}
	return data, nil
}

// RenderCoachPack renders the coach pack in format. An empty format means CSV.
func (s *ExportService) RenderCoachPack(ctx context.Context, format models.ExportFormat) (*models.ExportFile, error) {
	if format == "" {
		format = models.ExportFormatCSV
	}
	data, err := s.CoachPackDataset(ctx)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(data)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(data)
	case models.ExportFormatXLSX:
		payload, err = s.xlsx.Render(data)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "coach pack format must be csv, pdf or xlsx")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render coach pack")
	}
	s.metrics.RecordExport(models.ExportKindCoachPack, format)
	return &models.ExportFile{
		Filename:    CoachPackFilename(s.now(), format),
		ContentType: contentTypes[format],
		Payload:     payload,
	}, nil
}

// Generate renders an export, stores it and returns a signed download link.
func (s *ExportService) Generate(ctx context.Context, req GenerateExportRequest) (*models.StoredExport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}

	var (
		file *models.ExportFile
		err  error
	)
	switch req.Kind {
	case models.ExportKindBackup:
		if req.Format != "" && req.Format != models.ExportFormatJSON {
			return nil, appErrors.Clone(appErrors.ErrValidation, "backups are exported as json")
		}
		req.Format = models.ExportFormatJSON
		file, err = s.backups.ExportFile(ctx)
		if err == nil {
			s.metrics.RecordExport(models.ExportKindBackup, models.ExportFormatJSON)
		}
	default:
		if req.Format == "" {
			req.Format = models.ExportFormatCSV
		}
		file, err = s.RenderCoachPack(ctx, req.Format)
	}
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	rel, err := s.store.Save(path.Join(string(req.Kind), id+"-"+file.Filename), file.Payload)
	if err != nil {
		s.logger.Error("store export failed", zap.String("export_id", id), zap.Error(err))
		return nil, appErrors.Storage(err, "failed to store export")
	}
	token, expiresAt, err := s.signer.Sign(id, rel)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	s.logger.Info("export generated", zap.String("export_id", id), zap.String("kind", string(req.Kind)), zap.String("path", rel))
	return &models.StoredExport{
		ID:           id,
		Kind:         req.Kind,
		Format:       req.Format,
		RelativePath: rel,
		Token:        token,
		URL:          s.downloadBase + "/" + token,
		ExpiresAt:    expiresAt,
	}, nil
}

// Download resolves a signed token into the stored file.
func (s *ExportService) Download(ctx context.Context, token string) (*models.ExportFile, error) {
	grant, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
	payload, err := s.store.Read(grant.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export not found")
	}
	name := strings.TrimPrefix(path.Base(grant.Path), grant.ExportID+"-")
	return &models.ExportFile{
		Filename:    name,
		ContentType: contentTypeFor(name),
		Payload:     payload,
	}, nil
}

// CoachPackFilename is the suggested name for a coach pack rendered at t.
func CoachPackFilename(t time.Time, format models.ExportFormat) string {
	return fmt.Sprintf("coach-pack-%s.%s", t.UTC().Format("2006-01-02"), format)
}

func contentTypeFor(name string) string {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	if ct, ok := contentTypes[models.ExportFormat(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}

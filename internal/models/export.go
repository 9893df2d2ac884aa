package models

import "time"

// ExportFormat enumerates renditions of stored exports.
type ExportFormat string

const (
	ExportFormatJSON ExportFormat = "json"
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// ExportKind identifies what an export contains.
type ExportKind string

const (
	ExportKindBackup    ExportKind = "backup"
	ExportKindCoachPack ExportKind = "coach_pack"
)

// ExportFile is a rendered export ready to hand to a file-save mechanism.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// StoredExport describes an export persisted on disk with a signed link.
type StoredExport struct {
	ID           string       `json:"id"`
	Kind         ExportKind   `json:"kind"`
	Format       ExportFormat `json:"format"`
	RelativePath string       `json:"relativePath"`
	Token        string       `json:"token"`
	URL          string       `json:"url"`
	ExpiresAt    time.Time    `json:"expiresAt"`
}

package models

// Backup is the whole-database document written on export and consumed by
// restore. Field names are part of the file format.
type Backup struct {
	Sessions    []Session    `json:"sessions"`
	MartialArts []MartialArt `json:"martial_arts"`
	Criteria    []Criterion  `json:"criteria"`
}

// Backup document keys.
const (
	BackupKeySessions    = "sessions"
	BackupKeyMartialArts = "martial_arts"
	BackupKeyCriteria    = "criteria"
)

package models

// MartialArt identifies a tracked discipline. Arts are never hard-deleted;
// Active only toggles visibility in pickers.
type MartialArt struct {
	ID     string `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Active bool   `db:"active" json:"active"`
}

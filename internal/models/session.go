package models

import "time"

// ISOTimestampLayout renders timestamps the way the coach pack expects them:
// UTC with millisecond precision.
const ISOTimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Session is one completed self-assessment. Sessions are immutable once stored.
type Session struct {
	ID        int64           `db:"id" json:"id"`
	ArtID     string          `db:"art_id" json:"artId"`
	DateISO   time.Time       `db:"date_iso" json:"dateISO"`
	Ratings   []SessionRating `db:"-" json:"ratings"`
	NotesText string          `db:"notes_text" json:"notesText"`
}

// SessionRating stores a value together with the criterion name as it was
// when the session was recorded. Display code reads the snapshot, never the
// live criterion.
type SessionRating struct {
	SessionID           int64  `db:"session_id" json:"-"`
	Position            int    `db:"position" json:"-"`
	CriterionID         string `db:"criterion_id" json:"criterionId"`
	CriterionNameAtTime string `db:"criterion_name_at_time" json:"criterionNameAtTime"`
	Value               int    `db:"value" json:"value"`
}

// Rating bounds.
const (
	MinRatingValue = 0
	MaxRatingValue = 5
)

// ValidRatingValue reports whether v is on the 0..5 scale.
func ValidRatingValue(v int) bool {
	return v >= MinRatingValue && v <= MaxRatingValue
}

// SessionFilter narrows session listings.
type SessionFilter struct {
	ArtID string
	Limit int
}

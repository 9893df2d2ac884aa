package models

import "time"

// MoveDirection selects the neighbour a criterion swaps order with.
type MoveDirection string

const (
	MoveUp   MoveDirection = "up"
	MoveDown MoveDirection = "down"
)

// Criterion is one rated dimension of a discipline. Soft-deleted criteria keep
// their row so historical ratings that reference them stay valid.
type Criterion struct {
	ID        string     `db:"id" json:"id"`
	ArtID     string     `db:"art_id" json:"artId"`
	Name      string     `db:"name" json:"name"`
	Order     int        `db:"sort_order" json:"order"`
	Active    bool       `db:"active" json:"active"`
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}

// Deleted reports whether the criterion was soft-deleted.
func (c Criterion) Deleted() bool {
	return c.DeletedAt != nil
}

// Ratable reports whether new sessions must rate this criterion.
func (c Criterion) Ratable() bool {
	return c.Active && c.DeletedAt == nil
}

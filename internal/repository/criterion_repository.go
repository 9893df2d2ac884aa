package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/martial-arts-tracker/internal/models"
)

const criterionColumns = `id, art_id, name, sort_order, active, deleted_at`

// CriterionRepository manages criterion persistence.
type CriterionRepository struct {
	db *sqlx.DB
}

// NewCriterionRepository creates a repository instance.
func NewCriterionRepository(db *sqlx.DB) *CriterionRepository {
	return &CriterionRepository{db: db}
}

// ListByArt returns every criterion of an art, soft-deleted ones included,
// ordered by sort order with ties broken by insertion.
func (r *CriterionRepository) ListByArt(ctx context.Context, artID string) ([]models.Criterion, error) {
	query := `SELECT ` + criterionColumns + ` FROM criteria WHERE art_id = ? ORDER BY sort_order ASC, rowid ASC`
	var criteria []models.Criterion
	if err := r.db.SelectContext(ctx, &criteria, query, artID); err != nil {
		return nil, fmt.Errorf("list criteria: %w", err)
	}
	return criteria, nil
}

// FindByID returns a criterion by its ID.
func (r *CriterionRepository) FindByID(ctx context.Context, id string) (*models.Criterion, error) {
	query := `SELECT ` + criterionColumns + ` FROM criteria WHERE id = ?`
	var criterion models.Criterion
	if err := r.db.GetContext(ctx, &criterion, query, id); err != nil {
		return nil, err
	}
	return &criterion, nil
}

// MaxOrder returns the highest sort order used by an art. ok is false when the
// art has no criteria at all.
func (r *CriterionRepository) MaxOrder(ctx context.Context, artID string) (max int, ok bool, err error) {
	var value sql.NullInt64
	if err := r.db.GetContext(ctx, &value, `SELECT MAX(sort_order) FROM criteria WHERE art_id = ?`, artID); err != nil {
		return 0, false, fmt.Errorf("max criterion order: %w", err)
	}
	if !value.Valid {
		return 0, false, nil
	}
	return int(value.Int64), true, nil
}

// Create inserts a new criterion.
func (r *CriterionRepository) Create(ctx context.Context, criterion *models.Criterion) error {
	if err := upsertCriterion(ctx, r.db, criterion); err != nil {
		return err
	}
	return nil
}

// Rename updates a criterion name and reports whether a row changed.
func (r *CriterionRepository) Rename(ctx context.Context, id, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE criteria SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return false, fmt.Errorf("rename criterion: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rename criterion: %w", err)
	}
	return affected > 0, nil
}

// SoftDelete retires a criterion. Rows already deleted are left untouched so
// the original deletion time survives.
func (r *CriterionRepository) SoftDelete(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `UPDATE criteria SET active = 0, deleted_at = ? WHERE id = ? AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, at.UTC(), id)
	if err != nil {
		return false, fmt.Errorf("soft delete criterion: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("soft delete criterion: %w", err)
	}
	return affected > 0, nil
}

// UpdateOrders writes the sort order of every given criterion in a single
// transaction.
func (r *CriterionRepository) UpdateOrders(ctx context.Context, criteria []models.Criterion) error {
	if len(criteria) == 0 {
		return nil
	}
	return withTx(ctx, r.db, "reorder criteria", func(tx *sqlx.Tx) error {
		const query = `UPDATE criteria SET sort_order = ? WHERE id = ?`
		for _, criterion := range criteria {
			if _, err := tx.ExecContext(ctx, query, criterion.Order, criterion.ID); err != nil {
				return fmt.Errorf("update criterion order: %w", err)
			}
		}
		return nil
	})
}

func upsertCriterion(ctx context.Context, ext sqlx.ExtContext, criterion *models.Criterion) error {
	const query = `INSERT INTO criteria (id, art_id, name, sort_order, active, deleted_at)
VALUES (:id, :art_id, :name, :sort_order, :active, :deleted_at)
ON CONFLICT (id) DO UPDATE SET art_id = excluded.art_id, name = excluded.name,
    sort_order = excluded.sort_order, active = excluded.active, deleted_at = excluded.deleted_at`
	if criterion.DeletedAt != nil {
		utc := criterion.DeletedAt.UTC()
		criterion.DeletedAt = &utc
	}
	if _, err := sqlx.NamedExecContext(ctx, ext, query, criterion); err != nil {
		return fmt.Errorf("upsert criterion: %w", err)
	}
	return nil
}

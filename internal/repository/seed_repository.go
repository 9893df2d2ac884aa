package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/martial-arts-tracker/internal/models"
)

// SeedRepository writes the default catalog into an empty store.
type SeedRepository struct {
	db *sqlx.DB
}

// NewSeedRepository creates a repository instance.
func NewSeedRepository(db *sqlx.DB) *SeedRepository {
	return &SeedRepository{db: db}
}

// SeedIfEmpty inserts arts and criteria only when no art exists yet. The
// emptiness check and the inserts share one transaction.
func (r *SeedRepository) SeedIfEmpty(ctx context.Context, arts []models.MartialArt, criteria []models.Criterion) (bool, error) {
	seeded := false
	err := withTx(ctx, r.db, "seed", func(tx *sqlx.Tx) error {
		var count int
		if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM martial_arts`); err != nil {
			return fmt.Errorf("count martial arts: %w", err)
		}
		if count > 0 {
			return nil
		}
		for i := range arts {
			if err := upsertArt(ctx, tx, &arts[i]); err != nil {
				return err
			}
		}
		for i := range criteria {
			if err := upsertCriterion(ctx, tx, &criteria[i]); err != nil {
				return err
			}
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return seeded, nil
}

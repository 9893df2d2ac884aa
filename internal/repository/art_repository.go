package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/martial-arts-tracker/internal/models"
)

// ArtRepository manages martial art persistence.
type ArtRepository struct {
	db *sqlx.DB
}

// NewArtRepository creates a repository instance.
func NewArtRepository(db *sqlx.DB) *ArtRepository {
	return &ArtRepository{db: db}
}

// List returns every art, active or not, in insertion order.
func (r *ArtRepository) List(ctx context.Context) ([]models.MartialArt, error) {
	const query = `SELECT id, name, active FROM martial_arts ORDER BY rowid`
	var arts []models.MartialArt
	if err := r.db.SelectContext(ctx, &arts, query); err != nil {
		return nil, fmt.Errorf("list martial arts: %w", err)
	}
	return arts, nil
}

// FindByID returns an art by its ID.
func (r *ArtRepository) FindByID(ctx context.Context, id string) (*models.MartialArt, error) {
	const query = `SELECT id, name, active FROM martial_arts WHERE id = ?`
	var art models.MartialArt
	if err := r.db.GetContext(ctx, &art, query, id); err != nil {
		return nil, err
	}
	return &art, nil
}

// Count returns the number of stored arts.
func (r *ArtRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM martial_arts`); err != nil {
		return 0, fmt.Errorf("count martial arts: %w", err)
	}
	return count, nil
}

// Upsert inserts or updates an art by primary key.
func (r *ArtRepository) Upsert(ctx context.Context, art *models.MartialArt) error {
	if err := upsertArt(ctx, r.db, art); err != nil {
		return err
	}
	return nil
}

func upsertArt(ctx context.Context, ext sqlx.ExtContext, art *models.MartialArt) error {
	const query = `INSERT INTO martial_arts (id, name, active) VALUES (:id, :name, :active)
ON CONFLICT (id) DO UPDATE SET name = excluded.name, active = excluded.active`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, art); err != nil {
		return fmt.Errorf("upsert martial art: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/martial-arts-tracker/internal/models"
)

// BackupRepository reads and replaces all three collections at once.
type BackupRepository struct {
	db *sqlx.DB
}

// NewBackupRepository creates a repository instance.
func NewBackupRepository(db *sqlx.DB) *BackupRepository {
	return &BackupRepository{db: db}
}

// Snapshot returns every record of every collection, unfiltered, read inside
// one transaction so the three lists are mutually consistent.
func (r *BackupRepository) Snapshot(ctx context.Context) (*models.Backup, error) {
	backup := &models.Backup{
		Sessions:    []models.Session{},
		MartialArts: []models.MartialArt{},
		Criteria:    []models.Criterion{},
	}
	err := withTx(ctx, r.db, "snapshot", func(tx *sqlx.Tx) error {
		if err := tx.SelectContext(ctx, &backup.MartialArts, `SELECT id, name, active FROM martial_arts ORDER BY id`); err != nil {
			return fmt.Errorf("snapshot martial arts: %w", err)
		}
		if err := tx.SelectContext(ctx, &backup.Criteria, `SELECT `+criterionColumns+` FROM criteria ORDER BY art_id, sort_order, rowid`); err != nil {
			return fmt.Errorf("snapshot criteria: %w", err)
		}
		if err := tx.SelectContext(ctx, &backup.Sessions, `SELECT id, art_id, date_iso, notes_text FROM sessions ORDER BY id`); err != nil {
			return fmt.Errorf("snapshot sessions: %w", err)
		}
		return attachRatings(ctx, tx, backup.Sessions)
	})
	if err != nil {
		return nil, err
	}
	return backup, nil
}

// ReplaceAll clears every collection and inserts the backup records in a
// single transaction. Any failure rolls back to the previous contents.
func (r *BackupRepository) ReplaceAll(ctx context.Context, backup *models.Backup) error {
	return withTx(ctx, r.db, "restore", func(tx *sqlx.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM session_ratings`,
			`DELETE FROM sessions`,
			`DELETE FROM criteria`,
			`DELETE FROM martial_arts`,
		} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("clear collections: %w", err)
			}
		}
		for i := range backup.MartialArts {
			if err := upsertArt(ctx, tx, &backup.MartialArts[i]); err != nil {
				return err
			}
		}
		for i := range backup.Criteria {
			if err := upsertCriterion(ctx, tx, &backup.Criteria[i]); err != nil {
				return err
			}
		}
		// Keyed sessions go first so auto-assigned IDs cannot collide with them.
		for _, keyed := range []bool{true, false} {
			for i := range backup.Sessions {
				if (backup.Sessions[i].ID > 0) != keyed {
					continue
				}
				if err := insertSession(ctx, tx, &backup.Sessions[i]); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/martial-arts-tracker/internal/models"
)

// SessionRepository manages session persistence.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a repository instance.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a session and its ratings in one transaction and assigns the
// generated ID back onto the session.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	return withTx(ctx, r.db, "create session", func(tx *sqlx.Tx) error {
		return insertSession(ctx, tx, session)
	})
}

// List returns sessions newest first. Dates are compared as timestamps; the
// limit applies after sorting.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, error) {
	query := `SELECT id, art_id, date_iso, notes_text FROM sessions`
	var args []interface{}
	if filter.ArtID != "" {
		query += ` WHERE art_id = ?`
		args = append(args, filter.ArtID)
	}
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	SortSessionsNewestFirst(sessions)
	if filter.Limit > 0 && len(sessions) > filter.Limit {
		sessions = sessions[:filter.Limit]
	}

	if err := attachRatings(ctx, r.db, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// SortSessionsNewestFirst orders sessions by descending date, newest ID first
// on ties.
func SortSessionsNewestFirst(sessions []models.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].DateISO.Equal(sessions[j].DateISO) {
			return sessions[i].ID > sessions[j].ID
		}
		return sessions[i].DateISO.After(sessions[j].DateISO)
	})
}

func attachRatings(ctx context.Context, q sqlx.ExtContext, sessions []models.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	ids := make([]int64, len(sessions))
	for i := range sessions {
		ids[i] = sessions[i].ID
	}
	byID, err := loadRatings(ctx, q, ids)
	if err != nil {
		return err
	}
	for i := range sessions {
		ratings := byID[sessions[i].ID]
		if ratings == nil {
			ratings = []models.SessionRating{}
		}
		sessions[i].Ratings = ratings
	}
	return nil
}

func loadRatings(ctx context.Context, q sqlx.ExtContext, ids []int64) (map[int64][]models.SessionRating, error) {
	query, args, err := sqlx.In(`SELECT session_id, position, criterion_id, criterion_name_at_time, value
FROM session_ratings WHERE session_id IN (?) ORDER BY session_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("build ratings query: %w", err)
	}
	var ratings []models.SessionRating
	if err := sqlx.SelectContext(ctx, q, &ratings, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load session ratings: %w", err)
	}
	byID := make(map[int64][]models.SessionRating, len(ids))
	for _, rating := range ratings {
		byID[rating.SessionID] = append(byID[rating.SessionID], rating)
	}
	return byID, nil
}

// insertSession writes a session row and its ratings. A positive ID is kept
// (restore path) and replaces any row with the same key; zero lets SQLite
// assign the next ID.
func insertSession(ctx context.Context, tx *sqlx.Tx, session *models.Session) error {
	session.DateISO = session.DateISO.UTC()
	if session.ID > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM session_ratings WHERE session_id = ?`, session.ID); err != nil {
			return fmt.Errorf("clear session ratings: %w", err)
		}
		const upsert = `INSERT INTO sessions (id, art_id, date_iso, notes_text) VALUES (:id, :art_id, :date_iso, :notes_text)
ON CONFLICT (id) DO UPDATE SET art_id = excluded.art_id, date_iso = excluded.date_iso, notes_text = excluded.notes_text`
		if _, err := tx.NamedExecContext(ctx, upsert, session); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
	} else {
		const insert = `INSERT INTO sessions (art_id, date_iso, notes_text) VALUES (:art_id, :date_iso, :notes_text)`
		res, err := tx.NamedExecContext(ctx, insert, session)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("read session id: %w", err)
		}
		session.ID = id
	}

	const insertRating = `INSERT INTO session_ratings (session_id, position, criterion_id, criterion_name_at_time, value)
VALUES (:session_id, :position, :criterion_id, :criterion_name_at_time, :value)`
	for i := range session.Ratings {
		session.Ratings[i].SessionID = session.ID
		session.Ratings[i].Position = i
		if _, err := tx.NamedExecContext(ctx, insertRating, session.Ratings[i]); err != nil {
			return fmt.Errorf("insert session rating: %w", err)
		}
	}
	if session.Ratings == nil {
		session.Ratings = []models.SessionRating{}
	}
	return nil
}

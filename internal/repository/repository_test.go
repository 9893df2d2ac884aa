package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/martial-arts-tracker/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlite3"), mock, func() { db.Close() }
}

func TestArtRepositoryListKeepsInsertionOrder(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "name", "active"}).
		AddRow("qigong", "Qigong", true).
		AddRow("eskrima", "Eskrima", false)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, active FROM martial_arts ORDER BY rowid")).
		WillReturnRows(rows)

	arts, err := NewArtRepository(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, arts, 2)
	assert.Equal(t, "qigong", arts[0].ID)
	assert.False(t, arts[1].Active)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCriterionRepositoryMaxOrderWithoutCriteria(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT MAX(sort_order) FROM criteria WHERE art_id = ?")).
		WithArgs("judo").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	_, ok, err := NewCriterionRepository(db).MaxOrder(context.Background(), "judo")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCriterionRepositoryUpdateOrdersCommits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE criteria SET sort_order = ? WHERE id = ?")).
		WithArgs(1, "qigong-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE criteria SET sort_order = ? WHERE id = ?")).
		WithArgs(2, "qigong-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewCriterionRepository(db).UpdateOrders(context.Background(), []models.Criterion{
		{ID: "qigong-2", Order: 1},
		{ID: "qigong-1", Order: 2},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCriterionRepositoryUpdateOrdersRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE criteria SET sort_order = ? WHERE id = ?")).
		WithArgs(1, "qigong-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE criteria SET sort_order = ? WHERE id = ?")).
		WithArgs(2, "qigong-1").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := NewCriterionRepository(db).UpdateOrders(context.Background(), []models.Criterion{
		{ID: "qigong-2", Order: 1},
		{ID: "qigong-1", Order: 2},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update criterion order")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCriterionRepositorySoftDeleteAlreadyDeleted(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE criteria SET active = 0, deleted_at = ? WHERE id = ? AND deleted_at IS NULL")).
		WithArgs(sqlmock.AnyArg(), "qigong-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := NewCriterionRepository(db).SoftDelete(context.Background(), "qigong-1", time.Now())
	require.NoError(t, err)
	assert.False(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListAppliesFilterAndLimit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, art_id, date_iso, notes_text FROM sessions WHERE art_id = ?")).
		WithArgs("qigong").
		WillReturnRows(sqlmock.NewRows([]string{"id", "art_id", "date_iso", "notes_text"}))

	sessions, err := NewSessionRepository(db).List(context.Background(), models.SessionFilter{ArtID: "qigong", Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, sessions)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedRepositorySkipsPopulatedStore(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM martial_arts")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectCommit()

	seeded, err := NewSeedRepository(db).SeedIfEmpty(context.Background(), []models.MartialArt{{ID: "qigong", Name: "Qigong", Active: true}}, nil)
	require.NoError(t, err)
	assert.False(t, seeded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSortSessionsNewestFirst(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sessions := []models.Session{
		{ID: 1, DateISO: day},
		{ID: 2, DateISO: day.Add(time.Hour)},
		{ID: 3, DateISO: day},
	}
	SortSessionsNewestFirst(sessions)
	assert.Equal(t, []int64{2, 3, 1}, []int64{sessions[0].ID, sessions[1].ID, sessions[2].ID})
}

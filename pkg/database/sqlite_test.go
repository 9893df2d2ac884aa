package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/martial-arts-tracker/pkg/config"
)

func TestNewSQLiteRequiresPath(t *testing.T) {
	_, err := NewSQLite(config.DatabaseConfig{})
	require.Error(t, err)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	cfg := config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "nested", "tracker.db"), BusyTimeout: time.Second}

	db, err := NewSQLite(cfg)
	require.NoError(t, err)
	version, err := RunMigrations(db.DB, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	_, err = db.Exec(`INSERT INTO martial_arts (id, name, active) VALUES ('qigong', 'Qi Gong', 1)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := NewSQLite(cfg)
	require.NoError(t, err)
	defer reopened.Close()
	version, err = RunMigrations(reopened.DB, nil)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	var count int
	require.NoError(t, reopened.Get(&count, `SELECT COUNT(*) FROM martial_arts`))
	assert.Equal(t, 1, count)
}

func TestSchemaEnforcesRatingRangeAndForeignKeys(t *testing.T) {
	db, err := NewSQLite(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "tracker.db")})
	require.NoError(t, err)
	defer db.Close()
	_, err = RunMigrations(db.DB, nil)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO criteria (id, art_id, name, sort_order, active) VALUES ('c1', 'missing', 'Footwork', 0, 1)`)
	require.Error(t, err)

	_, err = db.Exec(`INSERT INTO martial_arts (id, name, active) VALUES ('eskrima', 'Eskrima', 1)`)
	require.NoError(t, err)
	res, err := db.Exec(`INSERT INTO sessions (art_id, date_iso, notes_text) VALUES ('eskrima', ?, '')`, time.Now().UTC())
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO session_ratings (session_id, position, criterion_id, criterion_name_at_time, value) VALUES (?, 0, 'c1', 'Footwork', 6)`, id)
	require.Error(t, err)
}

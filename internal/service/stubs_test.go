package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/noah-isme/martial-arts-tracker/internal/models"
	"github.com/noah-isme/martial-arts-tracker/internal/repository"
)

var errStoreDown = errors.New("disk I/O error")

// memDB is an in-memory stand-in for the SQLite store shared by the stub
// repositories below.
type memDB struct {
	arts     []models.MartialArt
	criteria []models.Criterion
	sessions []models.Session
	nextID   int64
	failing  bool
	replaced int
}

func newMemDB() *memDB {
	arts, criteria := DefaultCatalog()
	return &memDB{arts: arts, criteria: criteria, nextID: 1}
}

type memArts struct{ db *memDB }

func (m memArts) List(ctx context.Context) ([]models.MartialArt, error) {
	if m.db.failing {
		return nil, errStoreDown
	}
	return append([]models.MartialArt(nil), m.db.arts...), nil
}

func (m memArts) FindByID(ctx context.Context, id string) (*models.MartialArt, error) {
	if m.db.failing {
		return nil, errStoreDown
	}
	for _, art := range m.db.arts {
		if art.ID == id {
			cp := art
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

type memCriteria struct{ db *memDB }

func (m memCriteria) ListByArt(ctx context.Context, artID string) ([]models.Criterion, error) {
	if m.db.failing {
		return nil, errStoreDown
	}
	out := make([]models.Criterion, 0)
	for _, c := range m.db.criteria {
		if c.ArtID == artID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m memCriteria) FindByID(ctx context.Context, id string) (*models.Criterion, error) {
	if m.db.failing {
		return nil, errStoreDown
	}
	if i := m.index(id); i >= 0 {
		cp := m.db.criteria[i]
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m memCriteria) MaxOrder(ctx context.Context, artID string) (int, bool, error) {
	highest, ok := 0, false
	for _, c := range m.db.criteria {
		if c.ArtID == artID && (!ok || c.Order > highest) {
			highest, ok = c.Order, true
		}
	}
	return highest, ok, nil
}

func (m memCriteria) Create(ctx context.Context, criterion *models.Criterion) error {
	if m.db.failing {
		return errStoreDown
	}
	m.db.criteria = append(m.db.criteria, *criterion)
	return nil
}

func (m memCriteria) Rename(ctx context.Context, id, name string) (bool, error) {
	i := m.index(id)
	if i < 0 {
		return false, nil
	}
	m.db.criteria[i].Name = name
	return true, nil
}

func (m memCriteria) SoftDelete(ctx context.Context, id string, at time.Time) (bool, error) {
	i := m.index(id)
	if i < 0 || m.db.criteria[i].DeletedAt != nil {
		return false, nil
	}
	m.db.criteria[i].Active = false
	m.db.criteria[i].DeletedAt = &at
	return true, nil
}

func (m memCriteria) UpdateOrders(ctx context.Context, criteria []models.Criterion) error {
	if m.db.failing {
		return errStoreDown
	}
	for _, c := range criteria {
		if i := m.index(c.ID); i >= 0 {
			m.db.criteria[i].Order = c.Order
		}
	}
	return nil
}

func (m memCriteria) index(id string) int {
	for i, c := range m.db.criteria {
		if c.ID == id {
			return i
		}
	}
	return -1
}

type memSessions struct{ db *memDB }

func (m memSessions) Create(ctx context.Context, session *models.Session) error {
	if m.db.failing {
		return errStoreDown
	}
	session.ID = m.db.nextID
	m.db.nextID++
	m.db.sessions = append(m.db.sessions, *session)
	return nil
}

func (m memSessions) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, error) {
	if m.db.failing {
		return nil, errStoreDown
	}
	out := make([]models.Session, 0)
	for _, s := range m.db.sessions {
		if filter.ArtID == "" || s.ArtID == filter.ArtID {
			out = append(out, s)
		}
	}
	repository.SortSessionsNewestFirst(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

type memBackups struct{ db *memDB }

func (m memBackups) Snapshot(ctx context.Context) (*models.Backup, error) {
	if m.db.failing {
		return nil, errStoreDown
	}
	return &models.Backup{
		Sessions:    append([]models.Session{}, m.db.sessions...),
		MartialArts: append([]models.MartialArt{}, m.db.arts...),
		Criteria:    append([]models.Criterion{}, m.db.criteria...),
	}, nil
}

func (m memBackups) ReplaceAll(ctx context.Context, backup *models.Backup) error {
	if m.db.failing {
		return errStoreDown
	}
	m.db.replaced++
	m.db.arts = backup.MartialArts
	m.db.criteria = backup.Criteria
	m.db.sessions = backup.Sessions
	return nil
}

func intPtr(v int) *int { return &v }

// rateAll builds inputs rating every ratable criterion of artID with value.
func rateAll(db *memDB, artID string, value int) []RatingInput {
	inputs := make([]RatingInput, 0)
	for _, c := range db.criteria {
		if c.ArtID == artID && c.Ratable() {
			inputs = append(inputs, RatingInput{CriterionID: c.ID, Value: intPtr(value)})
		}
	}
	return inputs
}

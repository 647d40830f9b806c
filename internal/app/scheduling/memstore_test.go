package scheduling_test

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/cohorthub/internal/app/scheduling"
	"github.com/dalemusser/cohorthub/internal/app/system/status"
	"github.com/dalemusser/cohorthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// memStore is an in-memory scheduling.Store. Documents are kept in insertion
// order, which stands in for created_at ordering. Setting fail makes every
// call return that error.
type memStore struct {
	mu      sync.Mutex
	cohorts []models.Cohort
	fail    error
	clock   time.Time
}

var _ scheduling.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{clock: time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func clone(c models.Cohort) models.Cohort {
	c.StudentIDs = append([]string{}, c.StudentIDs...)
	return c
}

func (m *memStore) GetByID(_ context.Context, id primitive.ObjectID) (models.Cohort, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return models.Cohort{}, m.fail
	}
	for _, c := range m.cohorts {
		if c.ID == id {
			return clone(c), nil
		}
	}
	return models.Cohort{}, mongo.ErrNoDocuments
}

func (m *memStore) FindJoinable(_ context.Context, courseID, name string, maxSize int) (models.Cohort, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return models.Cohort{}, m.fail
	}
	for _, c := range m.cohorts {
		if c.CourseID == courseID && c.Name == name && c.Status == status.Active && len(c.StudentIDs) < maxSize {
			return clone(c), nil
		}
	}
	return models.Cohort{}, mongo.ErrNoDocuments
}

func (m *memStore) FindByStudent(_ context.Context, courseID, studentID string) (models.Cohort, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return models.Cohort{}, m.fail
	}
	for _, c := range m.cohorts {
		if c.CourseID == courseID && c.HasStudent(studentID) {
			return clone(c), nil
		}
	}
	return models.Cohort{}, mongo.ErrNoDocuments
}

func (m *memStore) Create(_ context.Context, c models.Cohort) (models.Cohort, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return models.Cohort{}, m.fail
	}
	now := m.tick()
	c.ID = primitive.NewObjectID()
	if c.Status == "" {
		c.Status = status.Active
	}
	if c.StudentIDs == nil {
		c.StudentIDs = []string{}
	}
	c.CreatedAt, c.UpdatedAt = now, now
	m.cohorts = append(m.cohorts, clone(c))
	return clone(c), nil
}

func (m *memStore) AddStudent(_ context.Context, id primitive.ObjectID, studentID string, maxSize int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return false, m.fail
	}
	for i := range m.cohorts {
		c := &m.cohorts[i]
		if c.ID != id {
			continue
		}
		if c.HasStudent(studentID) {
			return false, nil
		}
		if len(c.StudentIDs) >= maxSize {
			return false, scheduling.ErrCohortFull
		}
		c.StudentIDs = append(c.StudentIDs, studentID)
		c.UpdatedAt = m.tick()
		return true, nil
	}
	return false, mongo.ErrNoDocuments
}

func (m *memStore) ListByCourse(_ context.Context, courseID string) ([]models.Cohort, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	var out []models.Cohort
	for _, c := range m.cohorts {
		if c.CourseID == courseID {
			out = append(out, clone(c))
		}
	}
	return out, nil
}

func (m *memStore) CloseEnded(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, m.fail
	}
	var n int64
	for i := range m.cohorts {
		c := &m.cohorts[i]
		if c.Status == status.Active && c.EndDate.Before(cutoff) {
			c.Status = status.Closed
			n++
		}
	}
	return n, nil
}

// seed inserts a cohort directly, bypassing Create's defaults.
func (m *memStore) seed(c models.Cohort) models.Cohort {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = primitive.NewObjectID()
	c.CreatedAt = m.tick()
	c.UpdatedAt = c.CreatedAt
	m.cohorts = append(m.cohorts, clone(c))
	return clone(c)
}

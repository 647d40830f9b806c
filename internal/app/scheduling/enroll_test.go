package scheduling_test

import (
	"context"
	"testing"

	"github.com/dalemusser/cohorthub/internal/app/scheduling"
	"github.com/dalemusser/cohorthub/internal/app/system/status"
	"github.com/dalemusser/cohorthub/internal/domain/intake"
	"github.com/dalemusser/cohorthub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnroll_JoinsWindowCohort(t *testing.T) {
	store := newMemStore()
	s := newScheduler(t, store, 50)
	ctx := context.Background()

	c, joined, err := s.Enroll(ctx, "course-1", "alice", jan5)
	require.NoError(t, err)
	assert.True(t, joined)
	assert.Equal(t, "SBA-202601-01", c.Name)
	assert.Equal(t, []string{"alice"}, c.StudentIDs)

	c2, _, err := s.Enroll(ctx, "course-1", "bob", jan5)
	require.NoError(t, err)
	assert.Equal(t, c.ID, c2.ID)
	assert.Equal(t, []string{"alice", "bob"}, c2.StudentIDs)
}

func TestEnroll_KeepsExistingCohort(t *testing.T) {
	store := newMemStore()
	s := newScheduler(t, store, 50)
	ctx := context.Background()

	first, joined, err := s.Enroll(ctx, "course-1", "alice", jan5)
	require.NoError(t, err)
	assert.True(t, joined)

	// Re-enrolling months later does not move the student.
	again, joined, err := s.Enroll(ctx, "course-1", "alice", jan5.AddDate(0, 5, 0))
	require.NoError(t, err)
	assert.False(t, joined)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, []string{"alice"}, again.StudentIDs)
}

func TestEnroll_OverflowOpensNewSection(t *testing.T) {
	store := newMemStore()
	s := newScheduler(t, store, 2)
	ctx := context.Background()

	a, _, err := s.Enroll(ctx, "course-1", "a", jan5)
	require.NoError(t, err)
	b, _, err := s.Enroll(ctx, "course-1", "b", jan5)
	require.NoError(t, err)
	c, _, err := s.Enroll(ctx, "course-1", "c", jan5)
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
	assert.Equal(t, a.Name, c.Name)
	assert.Equal(t, []string{"c"}, c.StudentIDs)
}

// racingStore fills the first cohort it hands out just before the add lands,
// as a concurrent enrollment would.
type racingStore struct {
	*memStore
	raced bool
}

func (r *racingStore) FindJoinable(ctx context.Context, courseID, name string, maxSize int) (models.Cohort, error) {
	c, err := r.memStore.FindJoinable(ctx, courseID, name, maxSize)
	if err == nil && !r.raced {
		r.raced = true
		for _, id := range roster(maxSize) {
			_, _ = r.memStore.AddStudent(ctx, c.ID, id, maxSize)
		}
	}
	return c, err
}

func TestEnroll_RetriesAfterLosingRace(t *testing.T) {
	mem := newMemStore()
	w := intake.Default().Next(jan5)
	contested := mem.seed(models.Cohort{CourseID: "course-1", Name: w.Name, Status: status.Active, StudentIDs: []string{}})

	s := newScheduler(t, &racingStore{memStore: mem}, 3)
	c, joined, err := s.Enroll(context.Background(), "course-1", "late", jan5)
	require.NoError(t, err)
	assert.True(t, joined)
	assert.NotEqual(t, contested.ID, c.ID)
	assert.Equal(t, []string{"late"}, c.StudentIDs)
}

func TestEnroll_Validation(t *testing.T) {
	s := newScheduler(t, newMemStore(), 50)
	_, _, err := s.Enroll(context.Background(), "", "alice", jan5)
	assert.ErrorIs(t, err, scheduling.ErrInvalidInput)
	_, _, err = s.Enroll(context.Background(), "course-1", "", jan5)
	assert.ErrorIs(t, err, scheduling.ErrInvalidInput)
}

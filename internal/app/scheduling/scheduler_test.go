package scheduling_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dalemusser/cohorthub/internal/app/scheduling"
	"github.com/dalemusser/cohorthub/internal/app/system/status"
	"github.com/dalemusser/cohorthub/internal/domain/intake"
	"github.com/dalemusser/cohorthub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var jan5 = time.Date(2026, time.January, 5, 9, 30, 0, 0, time.UTC)

func newScheduler(t *testing.T, store scheduling.Store, maxSize int) *scheduling.Scheduler {
	t.Helper()
	cfg := scheduling.DefaultConfig()
	cfg.MaxCohortSize = maxSize
	cfg.TrackFocus = "Data Analytics"
	s, err := scheduling.New(store, cfg, zap.NewNop())
	require.NoError(t, err)
	return s
}

func roster(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("s%02d", i)
	}
	return ids
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cfg := scheduling.DefaultConfig()
	cfg.MaxCohortSize = 0
	_, err := scheduling.New(newMemStore(), cfg, nil)
	assert.Error(t, err)

	cfg = scheduling.DefaultConfig()
	cfg.Calendar.Months = nil
	_, err = scheduling.New(newMemStore(), cfg, nil)
	assert.Error(t, err)

	_, err = scheduling.New(nil, scheduling.DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestDetermineNextCohort_DefaultsToNow(t *testing.T) {
	s := newScheduler(t, newMemStore(), 50)
	s.SetClock(func() time.Time { return time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC) })

	w := s.DetermineNextCohort(time.Time{})
	assert.Equal(t, "SBA-202603-02", w.Name)
}

func TestFindOrCreateCohort_CreatesThenReuses(t *testing.T) {
	store := newMemStore()
	s := newScheduler(t, store, 50)
	ctx := context.Background()

	first, err := s.FindOrCreateCohort(ctx, "course-1", jan5)
	require.NoError(t, err)
	assert.False(t, first.ID.IsZero())
	assert.Equal(t, "course-1", first.CourseID)
	assert.Equal(t, "SBA-202601-01", first.Name)
	assert.Equal(t, "Data Analytics", first.TrackFocus)
	assert.Equal(t, status.Active, first.Status)
	assert.Empty(t, first.StudentIDs)
	assert.True(t, first.StartDate.Equal(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, first.EndDate.Equal(time.Date(2026, time.May, 7, 0, 0, 0, 0, time.UTC)))
	assert.True(t, first.RegistrationDeadline.Equal(time.Date(2026, time.January, 12, 0, 0, 0, 0, time.UTC)))

	again, err := s.FindOrCreateCohort(ctx, "course-1", jan5.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "same window should reuse the open cohort")

	other, err := s.FindOrCreateCohort(ctx, "course-2", jan5)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID, "cohorts are per course")
}

func TestFindOrCreateCohort_RoundTrip(t *testing.T) {
	store := newMemStore()
	s := newScheduler(t, store, 50)
	ctx := context.Background()

	created, err := s.FindOrCreateCohort(ctx, "course-1", jan5)
	require.NoError(t, err)

	got, ok, err := s.GetCohortByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, created, got)
}

func TestFindOrCreateCohort_FullCohortOpensSameNamedSection(t *testing.T) {
	store := newMemStore()
	s := newScheduler(t, store, 3)
	ctx := context.Background()

	w := intake.Default().Next(jan5)
	full := store.seed(models.Cohort{CourseID: "course-1", Name: w.Name, Status: status.Active, StudentIDs: roster(3)})

	second, err := s.FindOrCreateCohort(ctx, "course-1", jan5)
	require.NoError(t, err)
	assert.NotEqual(t, full.ID, second.ID)
	assert.Equal(t, full.Name, second.Name, "the new section shares the computed name")

	// With a section open, later calls join it rather than opening a third.
	third, err := s.FindOrCreateCohort(ctx, "course-1", jan5)
	require.NoError(t, err)
	assert.Equal(t, second.ID, third.ID)

	list, err := s.ListCourseCohorts(ctx, "course-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestFindOrCreateCohort_IgnoresClosedCohorts(t *testing.T) {
	store := newMemStore()
	s := newScheduler(t, store, 50)
	w := intake.Default().Next(jan5)
	closed := store.seed(models.Cohort{CourseID: "course-1", Name: w.Name, Status: status.Closed})

	c, err := s.FindOrCreateCohort(context.Background(), "course-1", jan5)
	require.NoError(t, err)
	assert.NotEqual(t, closed.ID, c.ID)
}

func TestFindOrCreateCohort_Validation(t *testing.T) {
	s := newScheduler(t, newMemStore(), 50)
	_, err := s.FindOrCreateCohort(context.Background(), "  ", jan5)
	assert.ErrorIs(t, err, scheduling.ErrInvalidInput)
}

func TestAddStudentToCohort(t *testing.T) {
	store := newMemStore()
	s := newScheduler(t, store, 50)
	ctx := context.Background()

	c, err := s.FindOrCreateCohort(ctx, "course-1", jan5)
	require.NoError(t, err)

	added, err := s.AddStudentToCohort(ctx, c.ID, "alice")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = s.AddStudentToCohort(ctx, c.ID, "bob")
	require.NoError(t, err)
	assert.True(t, added)

	got, _, err := s.GetCohortByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, got.StudentIDs)
}

func TestAddStudentToCohort_CapacityCeiling(t *testing.T) {
	store := newMemStore()
	s := newScheduler(t, store, scheduling.DefaultMaxCohortSize)
	ctx := context.Background()

	full := store.seed(models.Cohort{CourseID: "course-1", Name: "SBA-202601-01", Status: status.Active, StudentIDs: roster(50)})

	added, err := s.AddStudentToCohort(ctx, full.ID, "newcomer")
	assert.ErrorIs(t, err, scheduling.ErrCohortFull)
	assert.False(t, added)

	// Existing members succeed idempotently regardless of fill level.
	added, err = s.AddStudentToCohort(ctx, full.ID, "s07")
	assert.NoError(t, err)
	assert.False(t, added)

	got, _, _ := s.GetCohortByID(ctx, full.ID)
	assert.Len(t, got.StudentIDs, 50)
}

func TestAddStudentToCohort_Idempotent(t *testing.T) {
	store := newMemStore()
	s := newScheduler(t, store, 50)
	ctx := context.Background()

	c, err := s.FindOrCreateCohort(ctx, "course-1", jan5)
	require.NoError(t, err)
	added, err := s.AddStudentToCohort(ctx, c.ID, "alice")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = s.AddStudentToCohort(ctx, c.ID, "alice")
	require.NoError(t, err)
	assert.False(t, added, "second add leaves the roster unchanged")

	got, _, _ := s.GetCohortByID(ctx, c.ID)
	assert.Equal(t, []string{"alice"}, got.StudentIDs)
}

func TestAddStudentToCohort_NotFound(t *testing.T) {
	s := newScheduler(t, newMemStore(), 50)
	_, err := s.AddStudentToCohort(context.Background(), primitive.NewObjectID(), "alice")
	assert.ErrorIs(t, err, scheduling.ErrNotFound)
}

func TestAddStudentToCohort_Validation(t *testing.T) {
	s := newScheduler(t, newMemStore(), 50)
	_, err := s.AddStudentToCohort(context.Background(), primitive.NewObjectID(), "")
	assert.ErrorIs(t, err, scheduling.ErrInvalidInput)
}

func TestGetCohortByID_Absent(t *testing.T) {
	s := newScheduler(t, newMemStore(), 50)
	_, ok, err := s.GetCohortByID(context.Background(), primitive.NewObjectID())
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestGetStudentCohort(t *testing.T) {
	store := newMemStore()
	s := newScheduler(t, store, 50)
	ctx := context.Background()

	mine := store.seed(models.Cohort{CourseID: "course-1", Name: "SBA-202601-01", Status: status.Active, StudentIDs: []string{"alice"}})
	store.seed(models.Cohort{CourseID: "course-2", Name: "SBA-202601-01", Status: status.Active, StudentIDs: []string{"alice"}})

	got, ok, err := s.GetStudentCohort(ctx, "alice", "course-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, mine.ID, got.ID)

	_, ok, err = s.GetStudentCohort(ctx, "bob", "course-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListCourseCohorts(t *testing.T) {
	store := newMemStore()
	s := newScheduler(t, store, 50)
	ctx := context.Background()

	store.seed(models.Cohort{CourseID: "course-1", Name: "SBA-202601-01", Status: status.Active})
	store.seed(models.Cohort{CourseID: "course-1", Name: "SBA-202603-02", Status: status.Closed})
	store.seed(models.Cohort{CourseID: "course-2", Name: "SBA-202601-01", Status: status.Active})

	list, err := s.ListCourseCohorts(ctx, "course-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = s.ListCourseCohorts(ctx, " ")
	assert.ErrorIs(t, err, scheduling.ErrInvalidInput)
}

func TestStoreErrorsPropagate(t *testing.T) {
	store := newMemStore()
	s := newScheduler(t, store, 50)
	ctx := context.Background()
	boom := errors.New("connection reset")
	store.fail = boom

	var se *scheduling.StoreError

	_, err := s.FindOrCreateCohort(ctx, "course-1", jan5)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "find joinable", se.Op)
	assert.ErrorIs(t, err, boom)

	_, err = s.AddStudentToCohort(ctx, primitive.NewObjectID(), "alice")
	assert.ErrorIs(t, err, boom)

	_, _, err = s.GetCohortByID(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, boom)

	_, _, err = s.GetStudentCohort(ctx, "alice", "course-1")
	assert.ErrorIs(t, err, boom)

	_, _, err = s.Enroll(ctx, "course-1", "alice", jan5)
	assert.ErrorIs(t, err, boom)

	_, err = s.CloseEndedCohorts(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestCloseEndedCohorts(t *testing.T) {
	store := newMemStore()
	s := newScheduler(t, store, 50)
	s.SetClock(func() time.Time { return time.Date(2026, time.May, 8, 10, 0, 0, 0, time.UTC) })
	cal := intake.Default()

	jan := cal.WindowFor(2026, time.January) // ends May 7
	mar := cal.WindowFor(2026, time.March)
	ended := store.seed(models.Cohort{CourseID: "c", Name: jan.Name, EndDate: jan.EndDate, Status: status.Active})
	running := store.seed(models.Cohort{CourseID: "c", Name: mar.Name, EndDate: mar.EndDate, Status: status.Active})

	n, err := s.CloseEndedCohorts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, _, _ := s.GetCohortByID(context.Background(), ended.ID)
	assert.Equal(t, status.Closed, got.Status)
	got, _, _ = s.GetCohortByID(context.Background(), running.ID)
	assert.Equal(t, status.Active, got.Status)
}

type countingRecorder struct {
	opened, added, full, retried int
	closed                       int64
}

func (r *countingRecorder) CohortOpened()  { r.opened++ }
func (r *countingRecorder) StudentAdded()  { r.added++ }
func (r *countingRecorder) CohortFull()    { r.full++ }
func (r *countingRecorder) EnrollRetried() { r.retried++ }
func (r *countingRecorder) CohortsClosed(n int64) {
	r.closed += n
}

func TestRecorderSeesEvents(t *testing.T) {
	ctx := context.Background()
	sched := newScheduler(t, newMemStore(), 1)
	rec := &countingRecorder{}
	sched.SetRecorder(rec)

	at := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	c, err := sched.FindOrCreateCohort(ctx, "course-1", at)
	require.NoError(t, err)
	_, err = sched.AddStudentToCohort(ctx, c.ID, "s1")
	require.NoError(t, err)
	_, err = sched.AddStudentToCohort(ctx, c.ID, "s1")
	require.NoError(t, err)
	_, err = sched.AddStudentToCohort(ctx, c.ID, "s2")
	require.ErrorIs(t, err, scheduling.ErrCohortFull)

	assert.Equal(t, 1, rec.opened)
	assert.Equal(t, 1, rec.added, "repeat add is not counted")
	assert.Equal(t, 1, rec.full)

	sched.SetRecorder(nil)
	_, err = sched.AddStudentToCohort(ctx, c.ID, "s1")
	require.NoError(t, err)
}

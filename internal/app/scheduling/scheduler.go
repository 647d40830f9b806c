// internal/app/scheduling/scheduler.go

// Package scheduling assigns students to course cohorts.
//
// A Scheduler turns an enrollment instant into an intake window (see package
// intake), finds or opens the cohort for that window, and adds students to it
// under a fixed capacity ceiling. Persistence goes through the Store
// interface; the MongoDB implementation lives in store/cohorts.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	cohortstore "github.com/dalemusser/cohorthub/internal/app/store/cohorts"
	"github.com/dalemusser/cohorthub/internal/app/system/status"
	"github.com/dalemusser/cohorthub/internal/domain/intake"
	"github.com/dalemusser/cohorthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Store is the document-store surface the scheduler needs. Lookups report
// absence with mongo.ErrNoDocuments; AddStudent reports a full roster with
// ErrCohortFull.
type Store interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Cohort, error)
	FindJoinable(ctx context.Context, courseID, name string, maxSize int) (models.Cohort, error)
	FindByStudent(ctx context.Context, courseID, studentID string) (models.Cohort, error)
	Create(ctx context.Context, c models.Cohort) (models.Cohort, error)
	AddStudent(ctx context.Context, id primitive.ObjectID, studentID string, maxSize int) (bool, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Cohort, error)
	CloseEnded(ctx context.Context, cutoff time.Time) (int64, error)
}

var _ Store = (*cohortstore.Store)(nil)

var (
	// ErrNotFound is returned when a cohort id does not exist.
	ErrNotFound = errors.New("cohort not found")
	// ErrCohortFull is returned when a cohort's roster is at capacity.
	ErrCohortFull = cohortstore.ErrCohortFull
	// ErrInvalidInput wraps argument validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// StoreError wraps a document-store failure with the operation that hit it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return "cohort store " + e.Op + ": " + e.Err.Error() }
func (e *StoreError) Unwrap() error { return e.Err }

// Scheduler computes intake windows and manages cohort membership.
// It holds no mutable state of its own; the store is the only shared resource.
type Scheduler struct {
	store Store
	cfg   Config
	log   *zap.Logger
	now   func() time.Time
	rec   Recorder
}

// New validates cfg and returns a Scheduler.
func New(store Store, cfg Config, logger *zap.Logger) (*Scheduler, error) {
	if store == nil {
		return nil, errors.New("scheduling: nil store")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{store: store, cfg: cfg, log: logger, now: time.Now, rec: nopRecorder{}}, nil
}

// SetClock replaces the source of "now" used when no enrollment time is given.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Config returns the scheduler's configuration.
func (s *Scheduler) Config() Config {
	return s.cfg
}

func (s *Scheduler) storeErr(op string, err error, fields ...zap.Field) error {
	fields = append(fields, zap.String("op", op), zap.Error(err))
	s.log.Error("cohort store failure", fields...)
	return &StoreError{Op: op, Err: err}
}

func requireID(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	return nil
}

// DetermineNextCohort returns the intake window for an enrollment at t.
// A zero t means now.
func (s *Scheduler) DetermineNextCohort(t time.Time) intake.Window {
	if t.IsZero() {
		t = s.now()
	}
	return s.cfg.Calendar.Next(t)
}

// FindOrCreateCohort returns the active cohort of courseID for the intake
// window enrolledAt falls in, opening a new one when none has room. A full
// cohort is never returned; its replacement carries the same name.
func (s *Scheduler) FindOrCreateCohort(ctx context.Context, courseID string, enrolledAt time.Time) (models.Cohort, error) {
	if err := requireID("course_id", courseID); err != nil {
		return models.Cohort{}, err
	}
	w := s.DetermineNextCohort(enrolledAt)

	c, err := s.store.FindJoinable(ctx, courseID, w.Name, s.cfg.MaxCohortSize)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Cohort{}, s.storeErr("find joinable", err,
			zap.String("course_id", courseID), zap.String("name", w.Name))
	}

	created, err := s.store.Create(ctx, models.Cohort{
		CourseID:             courseID,
		Name:                 w.Name,
		StartDate:            w.StartDate,
		EndDate:              w.EndDate,
		RegistrationDeadline: w.RegistrationDeadline,
		TrackFocus:           s.cfg.TrackFocus,
		StudentIDs:           []string{},
		Status:               status.Active,
	})
	if err != nil {
		return models.Cohort{}, s.storeErr("create", err,
			zap.String("course_id", courseID), zap.String("name", w.Name))
	}
	s.rec.CohortOpened()
	s.log.Info("cohort opened",
		zap.String("cohort_id", created.ID.Hex()),
		zap.String("course_id", courseID),
		zap.String("name", created.Name))
	return created, nil
}

// AddStudentToCohort adds studentID to the cohort's roster. Adding an
// existing member succeeds without change, even when the cohort is full;
// added reports whether the roster grew.
func (s *Scheduler) AddStudentToCohort(ctx context.Context, cohortID primitive.ObjectID, studentID string) (added bool, err error) {
	if err := requireID("student_id", studentID); err != nil {
		return false, err
	}

	added, err = s.store.AddStudent(ctx, cohortID, studentID, s.cfg.MaxCohortSize)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return false, fmt.Errorf("cohort %s: %w", cohortID.Hex(), ErrNotFound)
	case errors.Is(err, ErrCohortFull):
		s.rec.CohortFull()
		s.log.Info("cohort full",
			zap.String("cohort_id", cohortID.Hex()),
			zap.String("student_id", studentID),
			zap.Int("max_size", s.cfg.MaxCohortSize))
		return false, fmt.Errorf("cohort %s: %w", cohortID.Hex(), ErrCohortFull)
	case err != nil:
		return false, s.storeErr("add student", err,
			zap.String("cohort_id", cohortID.Hex()), zap.String("student_id", studentID))
	}

	if added {
		s.rec.StudentAdded()
		s.log.Debug("student added to cohort",
			zap.String("cohort_id", cohortID.Hex()),
			zap.String("student_id", studentID))
	}
	return added, nil
}

// GetCohortByID looks a cohort up by id. ok is false when it does not exist.
func (s *Scheduler) GetCohortByID(ctx context.Context, cohortID primitive.ObjectID) (c models.Cohort, ok bool, err error) {
	c, err = s.store.GetByID(ctx, cohortID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Cohort{}, false, nil
	}
	if err != nil {
		return models.Cohort{}, false, s.storeErr("get by id", err, zap.String("cohort_id", cohortID.Hex()))
	}
	return c, true, nil
}

// GetStudentCohort returns the cohort of courseID that studentID belongs to.
// ok is false when the student has none. Should a student appear in several
// cohorts of the course, the oldest is returned.
func (s *Scheduler) GetStudentCohort(ctx context.Context, studentID, courseID string) (c models.Cohort, ok bool, err error) {
	if err := requireID("student_id", studentID); err != nil {
		return models.Cohort{}, false, err
	}
	if err := requireID("course_id", courseID); err != nil {
		return models.Cohort{}, false, err
	}

	c, err = s.store.FindByStudent(ctx, courseID, studentID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Cohort{}, false, nil
	}
	if err != nil {
		return models.Cohort{}, false, s.storeErr("find by student", err,
			zap.String("course_id", courseID), zap.String("student_id", studentID))
	}
	return c, true, nil
}

// ListCourseCohorts returns every cohort of a course, newest intake first.
func (s *Scheduler) ListCourseCohorts(ctx context.Context, courseID string) ([]models.Cohort, error) {
	if err := requireID("course_id", courseID); err != nil {
		return nil, err
	}
	list, err := s.store.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, s.storeErr("list by course", err, zap.String("course_id", courseID))
	}
	return list, nil
}

// CloseEndedCohorts closes active cohorts whose end date is before today in
// the calendar's location.
func (s *Scheduler) CloseEndedCohorts(ctx context.Context) (int64, error) {
	loc := s.cfg.Calendar.Location
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := s.now().In(loc).Date()
	cutoff := time.Date(y, m, d, 0, 0, 0, 0, loc)

	n, err := s.store.CloseEnded(ctx, cutoff)
	if err != nil {
		return 0, s.storeErr("close ended", err, zap.Time("cutoff", cutoff))
	}
	s.rec.CohortsClosed(n)
	return n, nil
}

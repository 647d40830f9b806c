// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	cohortstore "github.com/dalemusser/cohorthub/internal/app/store/cohorts"
	"github.com/dalemusser/cohorthub/internal/app/system/status"
	"github.com/dalemusser/cohorthub/internal/domain/intake"
	"github.com/dalemusser/cohorthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateCohort inserts an active cohort for the given intake window with the
// given roster. Dates come from w; timestamps are now.
func (f *Fixtures) CreateCohort(ctx context.Context, courseID string, w intake.Window, studentIDs ...string) models.Cohort {
	f.t.Helper()

	if studentIDs == nil {
		studentIDs = []string{}
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	c := models.Cohort{
		ID:                   primitive.NewObjectID(),
		CourseID:             courseID,
		Name:                 w.Name,
		StartDate:            w.StartDate,
		EndDate:              w.EndDate,
		RegistrationDeadline: w.RegistrationDeadline,
		TrackFocus:           "Test Track",
		StudentIDs:           studentIDs,
		Status:               status.Active,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if _, err := f.db.Collection(cohortstore.Collection).InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test cohort: %v", err)
	}
	return c
}

// CreateFullCohort inserts a cohort already holding size students.
func (f *Fixtures) CreateFullCohort(ctx context.Context, courseID string, w intake.Window, size int) models.Cohort {
	f.t.Helper()
	return f.CreateCohort(ctx, courseID, w, StudentIDs("student", size)...)
}

// StudentIDs returns n distinct ids: prefix-001, prefix-002, ...
func StudentIDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%03d", prefix, i+1)
	}
	return ids
}

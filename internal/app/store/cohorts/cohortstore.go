// internal/app/store/cohorts/cohortstore.go
package cohortstore

// Terminology: Identifiers
//   - CohortID / cohortID / _id: the MongoDB ObjectID assigned when a cohort is created
//   - CourseID / StudentID: opaque strings owned by the course catalog and user systems

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/cohorthub/internal/app/system/status"
	"github.com/dalemusser/cohorthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the MongoDB collection holding cohorts.
const Collection = "cohorts"

// ErrCohortFull is returned by AddStudent when the cohort already holds
// maxSize students and the student is not one of them.
var ErrCohortFull = errors.New("cohort is full")

type Store struct {
	c   *mongo.Collection
	loc *time.Location
}

// New returns a Store over db's cohorts collection. Calendar dates read back
// from Mongo are converted to loc (nil means UTC) so callers always see
// midnight-local dates, never the stored UTC instant.
func New(db *mongo.Database, loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{c: db.Collection(Collection), loc: loc}
}

// roomFilter matches cohorts holding fewer than maxSize students: the array
// has no element at index maxSize-1.
func roomFilter(maxSize int) bson.M {
	return bson.M{fmt.Sprintf("student_ids.%d", maxSize-1): bson.M{"$exists": false}}
}

func (s *Store) normalize(c *models.Cohort) {
	c.StartDate = c.StartDate.In(s.loc)
	c.EndDate = c.EndDate.In(s.loc)
	c.RegistrationDeadline = c.RegistrationDeadline.In(s.loc)
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	if c.StudentIDs == nil {
		c.StudentIDs = []string{}
	}
}

func (s *Store) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (models.Cohort, error) {
	var c models.Cohort
	if err := s.c.FindOne(ctx, filter, opts...).Decode(&c); err != nil {
		return models.Cohort{}, err
	}
	s.normalize(&c)
	return c, nil
}

// GetByID returns the cohort or mongo.ErrNoDocuments.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Cohort, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// FindJoinable returns the oldest active cohort for (courseID, name) that
// still has room for another student, or mongo.ErrNoDocuments.
func (s *Store) FindJoinable(ctx context.Context, courseID, name string, maxSize int) (models.Cohort, error) {
	filter := roomFilter(maxSize)
	filter["course_id"] = courseID
	filter["name"] = name
	filter["status"] = status.Active
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return s.findOne(ctx, filter, opts)
}

// FindByStudent returns the first cohort of courseID whose student_ids
// contains studentID, or mongo.ErrNoDocuments.
func (s *Store) FindByStudent(ctx context.Context, courseID, studentID string) (models.Cohort, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return s.findOne(ctx, bson.M{"course_id": courseID, "student_ids": studentID}, opts)
}

// Create inserts c with a fresh ID, an empty roster if none was given, and
// status active unless one was set. Timestamps are truncated to the
// millisecond precision Mongo stores so the returned value round-trips.
func (s *Store) Create(ctx context.Context, c models.Cohort) (models.Cohort, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	c.ID = primitive.NewObjectID()
	if c.Status == "" {
		c.Status = status.Active
	}
	if c.StudentIDs == nil {
		c.StudentIDs = []string{}
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Cohort{}, err
	}
	s.normalize(&c)
	return c, nil
}

// AddStudent appends studentID to the cohort's roster in a single
// conditional update, so concurrent callers cannot push the roster past
// maxSize. added is false when the student was already a member.
//
// Errors: mongo.ErrNoDocuments when the cohort does not exist, ErrCohortFull
// when it holds maxSize other students.
func (s *Store) AddStudent(ctx context.Context, id primitive.ObjectID, studentID string, maxSize int) (added bool, err error) {
	filter := roomFilter(maxSize)
	filter["_id"] = id
	filter["student_ids"] = bson.M{"$ne": studentID}

	res, err := s.c.UpdateOne(ctx, filter, bson.M{
		"$push":        bson.M{"student_ids": studentID},
		"$currentDate": bson.M{"updated_at": true},
	})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 1 {
		return true, nil
	}

	// Nothing matched: work out which condition failed.
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if c.HasStudent(studentID) {
		return false, nil
	}
	return false, ErrCohortFull
}

// ListByCourse returns every cohort of a course, newest intake first.
func (s *Store) ListByCourse(ctx context.Context, courseID string) ([]models.Cohort, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: -1}, {Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"course_id": courseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Cohort
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		s.normalize(&out[i])
	}
	return out, nil
}

// CloseEnded marks active cohorts whose end date is before cutoff as closed.
// Returns the number of cohorts closed.
func (s *Store) CloseEnded(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"status": status.Active, "end_date": bson.M{"$lt": cutoff}},
		bson.M{
			"$set":         bson.M{"status": status.Closed},
			"$currentDate": bson.M{"updated_at": true},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

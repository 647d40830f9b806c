// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection holds cohort audit events.
const Collection = "cohort_events"

// Event categories
const (
	CategoryEnrollment = "enrollment"
	CategoryLifecycle  = "lifecycle"
)

// Enrollment event types
const (
	EventStudentEnrolled  = "student_enrolled"
	EventStudentAdded     = "student_added"
	EventAddRejectedFull  = "add_rejected_full"
	EventEnrollmentFailed = "enrollment_failed"
)

// Lifecycle event types
const (
	EventCohortsClosed = "cohorts_closed"
)

// DefaultLimit caps queries that do not set one.
const DefaultLimit = 100

// Event is one audit record.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`

	// Event classification
	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"event_type"`

	// What
	CohortID  *primitive.ObjectID `bson:"cohort_id,omitempty" json:"cohort_id,omitempty"`
	CourseID  string              `bson:"course_id,omitempty" json:"course_id,omitempty"`
	StudentID string              `bson:"student_id,omitempty" json:"student_id,omitempty"`

	// Context
	RequestID string `bson:"request_id,omitempty" json:"request_id,omitempty"`
	IP        string `bson:"ip,omitempty" json:"ip,omitempty"`

	// Outcome
	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	// Additional details (varies by event type)
	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter selects audit events. Zero fields are ignored.
type QueryFilter struct {
	CohortID  *primitive.ObjectID
	CourseID  string
	StudentID string
	Category  string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	// Before returns only events older than this id (keyset paging).
	Before *primitive.ObjectID
	Limit  int64
}

func (f QueryFilter) bson() bson.M {
	q := bson.M{}
	if f.CohortID != nil {
		q["cohort_id"] = *f.CohortID
	}
	if f.CourseID != "" {
		q["course_id"] = f.CourseID
	}
	if f.StudentID != "" {
		q["student_id"] = f.StudentID
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.StartTime != nil || f.EndTime != nil {
		tq := bson.M{}
		if f.StartTime != nil {
			tq["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			tq["$lte"] = *f.EndTime
		}
		q["timestamp"] = tq
	}
	if f.Before != nil {
		q["_id"] = bson.M{"$lt": *f.Before}
	}
	return q
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Log records an audit event, filling in ID and Timestamp when unset.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query returns matching events, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, filter.bson(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	for i := range events {
		events[i].Timestamp = events[i].Timestamp.UTC()
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	q := filter.bson()
	delete(q, "_id")
	return s.c.CountDocuments(ctx, q)
}

// GetByCohort returns up to limit events for a cohort older than before
// (nil for the newest page).
func (s *Store) GetByCohort(ctx context.Context, cohortID primitive.ObjectID, before *primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{CohortID: &cohortID, Before: before, Limit: limit})
}

// GetByStudent returns a student's recent events within a course.
func (s *Store) GetByStudent(ctx context.Context, courseID, studentID string, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{CourseID: courseID, StudentID: studentID, Limit: limit})
}

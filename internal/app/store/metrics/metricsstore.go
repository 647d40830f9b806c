// internal/app/store/metrics/metricsstore.go
package metricsstore

import (
	"context"
	"fmt"

	cohortstore "github.com/dalemusser/cohorthub/internal/app/store/cohorts"
	"github.com/dalemusser/cohorthub/internal/app/system/status"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of cohort totals served by the stats endpoint.
type Counts struct {
	ActiveCohorts int64 `json:"active_cohorts"`
	ClosedCohorts int64 `json:"closed_cohorts"`
	FullCohorts   int64 `json:"full_cohorts"`
	Students      int64 `json:"students"`
}

// Store reads cohort totals. maxSize decides when an active cohort counts as full.
type Store struct {
	c       *mongo.Collection
	maxSize int
}

func New(db *mongo.Database, maxSize int) *Store {
	return &Store{c: db.Collection(cohortstore.Collection), maxSize: maxSize}
}

func scoped(courseID string, f bson.M) bson.M {
	if courseID != "" {
		f["course_id"] = courseID
	}
	return f
}

// Counts returns totals for one course, or for all courses when courseID is
// empty. Intentionally tolerant: on error it returns 0 for that counter.
func (s *Store) Counts(ctx context.Context, courseID string) Counts {
	var out Counts

	// active
	if n, err := s.c.CountDocuments(ctx, scoped(courseID, bson.M{"status": status.Active})); err == nil {
		out.ActiveCohorts = n
	}

	// closed
	if n, err := s.c.CountDocuments(ctx, scoped(courseID, bson.M{"status": status.Closed})); err == nil {
		out.ClosedCohorts = n
	}

	// active and at capacity
	fullFilter := bson.M{
		"status": status.Active,
		fmt.Sprintf("student_ids.%d", s.maxSize-1): bson.M{"$exists": true},
	}
	if n, err := s.c.CountDocuments(ctx, scoped(courseID, fullFilter)); err == nil {
		out.FullCohorts = n
	}

	// roster entries across every cohort
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: scoped(courseID, bson.M{})}},
		{{Key: "$group", Value: bson.M{"_id": nil, "n": bson.M{"$sum": bson.M{"$size": "$student_ids"}}}}},
	}
	if cur, err := s.c.Aggregate(ctx, pipeline); err == nil {
		var rows []struct {
			N int64 `bson:"n"`
		}
		if err := cur.All(ctx, &rows); err == nil && len(rows) == 1 {
			out.Students = rows[0].N
		}
	}

	return out
}

// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureCohorts(ctx, db); err != nil {
		problems = append(problems, "cohorts: "+err.Error())
	}
	if err := ensureCohortEvents(ctx, db); err != nil {
		problems = append(problems, "cohort_events: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	return (a != nil && *a) == (b != nil && *b)
}

// Mongo/DocumentDB report IndexOptionsConflict when the same keys already
// exist under another name or with other options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

// recreate drops an index and creates the desired model in its place.
func recreate(ctx context.Context, coll *mongo.Collection, old string, m mongo.IndexModel) error {
	if _, err := coll.Indexes().DropOne(ctx, old); err != nil {
		return fmt.Errorf("drop %s: %w", old, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	existing, err := listIndexes(ctx, coll)
	if err != nil {
		// A missing collection lists as an error on some servers; treat as empty.
		existing = map[string]existingIndex{}
	}

	for _, m := range models {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig))

		if ex, ok := existing[sig]; ok {
			switch {
			case sameBoolPtr(unique, ex.Unique) && (name == "" || ex.Name == name):
				log.Debug("reusing existing index", zap.Duration("took", time.Since(start)))
			case sameBoolPtr(unique, ex.Unique):
				if err := recreate(ctx, coll, ex.Name, m); err != nil {
					errs = append(errs, fmt.Sprintf("%s(%s): rename: %v", coll.Name(), name, err))
					continue
				}
				log.Info("index renamed", zap.String("from", ex.Name), zap.Duration("took", time.Since(start)))
			default:
				if err := recreate(ctx, coll, ex.Name, m); err != nil {
					errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
					continue
				}
				log.Info("index dropped and recreated", zap.Duration("took", time.Since(start)))
			}
			continue
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if isOptionsConflictErr(err) {
			// Raced with another instance or a server-side rename; re-read and retry once.
			if now, lerr := listIndexes(ctx, coll); lerr == nil {
				if ex, ok := now[sig]; ok {
					if sameBoolPtr(unique, ex.Unique) {
						log.Info("reusing existing index (post-conflict)", zap.String("existing", ex.Name))
						continue
					}
					err = recreate(ctx, coll, ex.Name, m)
				}
			}
		}
		if err != nil {
			log.Warn("index ensure failed", zap.Duration("took", time.Since(start)), zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			continue
		}
		log.Info("index ensured", zap.String("created_name", created), zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureCohorts(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("cohorts")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Find-or-create: open cohorts of a window in a course, oldest first.
		// Names are not unique; a full cohort is followed by another with the same name.
		{
			Keys: bson.D{
				{Key: "course_id", Value: 1},
				{Key: "name", Value: 1},
				{Key: "status", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("idx_cohort_course_name_status"),
		},
		// Student lookup within a course (multikey on the roster).
		{
			Keys:    bson.D{{Key: "course_id", Value: 1}, {Key: "student_ids", Value: 1}},
			Options: options.Index().SetName("idx_cohort_course_students"),
		},
		// Course listing, newest window first.
		{
			Keys:    bson.D{{Key: "course_id", Value: 1}, {Key: "start_date", Value: -1}},
			Options: options.Index().SetName("idx_cohort_course_start"),
		},
		// Closer sweep: active cohorts past their end date.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "end_date", Value: 1}},
			Options: options.Index().SetName("idx_cohort_status_end"),
		},
	})
}

func ensureCohortEvents(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("cohort_events")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Per-cohort trail, keyset paged on _id.
		{
			Keys:    bson.D{{Key: "cohort_id", Value: 1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_event_cohort_id"),
		},
		// A student's history within a course.
		{
			Keys: bson.D{
				{Key: "course_id", Value: 1},
				{Key: "student_id", Value: 1},
				{Key: "_id", Value: -1},
			},
			Options: options.Index().SetName("idx_event_course_student"),
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_event_category_type_ts"),
		},
	})
}

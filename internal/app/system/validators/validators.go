// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/cohorthub/internal/app/store/audit"
	"github.com/dalemusser/cohorthub/internal/app/system/status"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isUnsupported(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("cohorts", cohortsSchema())
	ensure("cohort_events", eventsSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// ensureCollection makes sure name exists. created is true only when this
// call created it, so the log line says what actually happened.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	names, listErr := db.ListCollectionNames(ctx, bson.M{"name": name})
	if listErr == nil && len(names) > 0 {
		zap.L().Debug("collection exists", zap.String("collection", name))
		return false, nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if hasCode(err, codeNamespaceExists) || containsAny(err, "already exists") {
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

const (
	codeNamespaceExists = 48
	codeCommandNotFound = 59
	codeNotImplemented  = 115
)

func hasCode(err error, codes ...int32) bool {
	var ce mongo.CommandError
	if !errors.As(err, &ce) {
		return false
	}
	for _, c := range codes {
		if ce.Code == c {
			return true
		}
	}
	return false
}

func containsAny(err error, subs ...string) bool {
	s := strings.ToLower(err.Error())
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// isUnsupported reports servers (some DocumentDB versions) that reject collMod
// or validators outright.
func isUnsupported(err error) bool {
	if err == nil {
		return false
	}
	return hasCode(err, codeCommandNotFound, codeNotImplemented) ||
		containsAny(err, "no such command", "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

// cohortsSchema guards shape only. The roster size ceiling depends on
// configuration and is enforced by the store's conditional update.
func cohortsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"course_id", "name", "start_date", "end_date", "registration_deadline", "student_ids", "status", "created_at"},
			"properties": bson.M{
				"course_id":             bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"name":                  bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"start_date":            bson.M{"bsonType": "date"},
				"end_date":              bson.M{"bsonType": "date"},
				"registration_deadline": bson.M{"bsonType": "date"},
				"track_focus":           bson.M{"bsonType": "string"},
				"student_ids": bson.M{
					"bsonType":    "array",
					"uniqueItems": true,
					"items":       bson.M{"bsonType": "string", "minLength": 1},
				},
				"status":     bson.M{"enum": bson.A{status.Active, status.Closed}},
				"created_at": bson.M{"bsonType": "date"},
				"updated_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func eventsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"timestamp", "category", "event_type", "success"},
			"properties": bson.M{
				"timestamp":  bson.M{"bsonType": "date"},
				"category":   bson.M{"enum": bson.A{audit.CategoryEnrollment, audit.CategoryLifecycle}},
				"event_type": bson.M{"bsonType": "string", "minLength": 1},
				"cohort_id":  bson.M{"bsonType": "objectId"},
				"success":    bson.M{"bsonType": "bool"},
				"details":    bson.M{"bsonType": "object"},
			},
		},
	}
}

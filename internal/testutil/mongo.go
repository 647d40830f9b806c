// internal/testutil/mongo.go
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dalemusser/cohorthub/internal/app/system/indexes"
	"github.com/dalemusser/cohorthub/internal/app/system/validators"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DefaultTestMongoURI is used when COHORTHUB_TEST_MONGO_URI is unset.
const DefaultTestMongoURI = "mongodb://localhost:27017"

// TestContext returns a context bounded for a single test.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// SetupTestDB connects to MongoDB and returns a fresh, uniquely named
// database with collections, validators and indexes in place. The database
// is dropped when the test finishes. Tests are skipped when no MongoDB is
// reachable.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("COHORTHUB_TEST_MONGO_URI")
	if uri == "" {
		uri = DefaultTestMongoURI
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(2*time.Second))
	if err != nil {
		t.Skipf("mongo unavailable (%s): %v", uri, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("mongo unavailable (%s): %v", uri, err)
	}

	db := client.Database("cohorthub_test_" + primitive.NewObjectID().Hex())

	setupCtx, setupCancel := TestContext()
	defer setupCancel()
	if err := validators.EnsureAll(setupCtx, db); err != nil {
		t.Fatalf("validators.EnsureAll: %v", err)
	}
	if err := indexes.EnsureAll(setupCtx, db); err != nil {
		t.Fatalf("indexes.EnsureAll: %v", err)
	}

	t.Cleanup(func() {
		cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer ccancel()
		_ = db.Drop(cctx)
		_ = client.Disconnect(cctx)
	})

	return db
}

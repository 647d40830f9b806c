// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/cohorthub/internal/app/scheduling"
	"github.com/dalemusser/cohorthub/internal/app/system/auditlog"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// Values come from config files, COHORTHUB_* environment variables or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig separately
// covers HTTP ports, TLS, logging, CORS and body limits.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Scheduler holds cohort sizing and the intake calendar.
	Scheduler scheduling.Config

	// Cohort closer worker
	CloseEnabled  bool
	CloseInterval time.Duration

	// Handler timeouts (zero keeps the package default)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration

	// MetricsEnabled mounts /metrics.
	MetricsEnabled bool

	// WriteRateLimit caps POSTs per client IP per minute; zero disables it.
	WriteRateLimit int

	// Audit trail modes per event category: all, db, log or off.
	Audit auditlog.Config
}

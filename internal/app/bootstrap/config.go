// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/cohorthub/internal/app/scheduling"
	"github.com/dalemusser/cohorthub/internal/app/system/auditlog"
	"github.com/dalemusser/cohorthub/internal/domain/intake"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for CohortHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, cohort_max_size, etc.
//   - Environment variables: COHORTHUB_MONGO_URI, COHORTHUB_COHORT_MAX_SIZE, etc.
//   - Command-line flags: --mongo_uri, --cohort_max_size, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "cohorthub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Cohort sizing and intake calendar
	{Name: "cohort_max_size", Default: scheduling.DefaultMaxCohortSize, Desc: "Maximum students per cohort"},
	{Name: "cohort_intake_months", Default: "1,3,5,7,9,11", Desc: "Comma-separated intake months (1-12)"},
	{Name: "cohort_sequence_codes", Default: "", Desc: "Per-month name codes, e.g. '1:01,3:02' (blank = ordinal)"},
	{Name: "cohort_duration_months", Default: intake.DefaultDurationMonths, Desc: "Cohort length in months"},
	{Name: "cohort_end_padding_days", Default: intake.DefaultEndPaddingDays, Desc: "Days added after the last month"},
	{Name: "cohort_name_prefix", Default: intake.DefaultNamePrefix, Desc: "Cohort name prefix"},
	{Name: "cohort_track_focus", Default: scheduling.DefaultTrackFocus, Desc: "Track focus written on new cohorts"},
	{Name: "cohort_timezone", Default: "UTC", Desc: "IANA time zone that calendar dates are read in"},

	// Cohort closer
	{Name: "cohort_close_enabled", Default: true, Desc: "Close cohorts whose end date has passed"},
	{Name: "cohort_close_interval", Default: "1h", Desc: "How often the cohort closer runs (e.g., 30m, 1h)"},

	// Handler timeouts
	{Name: "timeout_short", Default: "", Desc: "Timeout for single-document reads (e.g., 5s)"},
	{Name: "timeout_medium", Default: "", Desc: "Timeout for lists and single writes (e.g., 10s)"},
	{Name: "timeout_long", Default: "", Desc: "Timeout for enrollment (e.g., 30s)"},

	{Name: "cohort_write_rate_limit", Default: 120, Desc: "Max cohort API writes per client IP per minute (0 = unlimited)"},

	{Name: "metrics_enabled", Default: true, Desc: "Serve Prometheus metrics at /metrics"},

	// Audit trail: all (db + log), db, log, off
	{Name: "audit_log_enrollment", Default: "all", Desc: "Audit mode for enrollment events: all, db, log, off"},
	{Name: "audit_log_lifecycle", Default: "all", Desc: "Audit mode for cohort closer events: all, db, log, off"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges, in order of precedence,
// flags > env (WAFFLE_* for core, COHORTHUB_* for app) > files > defaults.
// The intake calendar is parsed here so that a bad month list or time zone
// stops startup before anything connects.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "COHORTHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	sched, err := schedulerConfig(
		appValues.Int("cohort_max_size"),
		appValues.String("cohort_intake_months"),
		appValues.String("cohort_sequence_codes"),
		appValues.Int("cohort_duration_months"),
		appValues.Int("cohort_end_padding_days"),
		appValues.String("cohort_name_prefix"),
		appValues.String("cohort_track_focus"),
		appValues.String("cohort_timezone"),
	)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		Scheduler: sched,

		CloseEnabled:  appValues.Bool("cohort_close_enabled"),
		CloseInterval: appValues.Duration("cohort_close_interval", time.Hour),

		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),

		WriteRateLimit: appValues.Int("cohort_write_rate_limit"),
		MetricsEnabled: appValues.Bool("metrics_enabled"),

		Audit: auditlog.Config{
			Enrollment: strings.ToLower(strings.TrimSpace(appValues.String("audit_log_enrollment"))),
			Lifecycle:  strings.ToLower(strings.TrimSpace(appValues.String("audit_log_lifecycle"))),
		},
	}

	return coreCfg, appCfg, nil
}

// schedulerConfig builds a scheduling.Config from raw config values.
func schedulerConfig(maxSize int, months, codes string, duration, padding int, prefix, track, tz string) (scheduling.Config, error) {
	cfg := scheduling.DefaultConfig()
	cfg.MaxCohortSize = maxSize
	if t := strings.TrimSpace(track); t != "" {
		cfg.TrackFocus = t
	}

	if strings.TrimSpace(months) != "" {
		ms, err := intake.ParseMonths(months)
		if err != nil {
			return scheduling.Config{}, fmt.Errorf("cohort_intake_months: %w", err)
		}
		cfg.Calendar.Months = ms
	}

	if strings.TrimSpace(codes) != "" {
		sc, err := intake.ParseSequenceCodes(codes)
		if err != nil {
			return scheduling.Config{}, fmt.Errorf("cohort_sequence_codes: %w", err)
		}
		cfg.Calendar.SequenceCodes = sc
	} else {
		cfg.Calendar.SequenceCodes = intake.OrdinalCodes(cfg.Calendar.Months)
	}

	cfg.Calendar.DurationMonths = duration
	cfg.Calendar.EndPaddingDays = padding
	if p := strings.TrimSpace(prefix); p != "" {
		cfg.Calendar.NamePrefix = p
	}

	if tz = strings.TrimSpace(tz); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return scheduling.Config{}, fmt.Errorf("cohort_timezone: %w", err)
		}
		cfg.Calendar.Location = loc
	}

	return cfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// It checks the MongoDB URI format and the scheduler settings so that
// configuration errors surface before any connection attempt.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		return fmt.Errorf("mongo_database is required")
	}
	if err := appCfg.Scheduler.Validate(); err != nil {
		logger.Error("invalid scheduler config", zap.Error(err))
		return fmt.Errorf("scheduler config: %w", err)
	}
	if appCfg.CloseEnabled && appCfg.CloseInterval <= 0 {
		return fmt.Errorf("cohort_close_interval must be positive (got %s)", appCfg.CloseInterval)
	}
	if appCfg.WriteRateLimit < 0 {
		return fmt.Errorf("cohort_write_rate_limit must not be negative (got %d)", appCfg.WriteRateLimit)
	}
	if !auditlog.ValidMode(appCfg.Audit.Enrollment) {
		return fmt.Errorf("audit_log_enrollment: unknown mode %q", appCfg.Audit.Enrollment)
	}
	if !auditlog.ValidMode(appCfg.Audit.Lifecycle) {
		return fmt.Errorf("audit_log_lifecycle: unknown mode %q", appCfg.Audit.Lifecycle)
	}
	return nil
}

func monthInts(months []time.Month) []int {
	out := make([]int, len(months))
	for i, m := range months {
		out[i] = int(m)
	}
	return out
}

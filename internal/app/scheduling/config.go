// internal/app/scheduling/config.go
package scheduling

import (
	"fmt"

	"github.com/dalemusser/cohorthub/internal/domain/intake"
)

// DefaultMaxCohortSize is the roster ceiling used when none is configured.
const DefaultMaxCohortSize = 50

// DefaultTrackFocus labels cohorts when no track is configured.
const DefaultTrackFocus = "General"

// Config holds cohort sizing and the intake calendar.
type Config struct {
	// MaxCohortSize caps the number of students in one cohort.
	MaxCohortSize int
	// TrackFocus is written on every cohort the scheduler opens.
	TrackFocus string
	// Calendar decides intake months, durations and names.
	Calendar intake.Calendar
}

// DefaultConfig returns 50-seat cohorts on the standard SBA calendar.
func DefaultConfig() Config {
	return Config{
		MaxCohortSize: DefaultMaxCohortSize,
		TrackFocus:    DefaultTrackFocus,
		Calendar:      intake.Default(),
	}
}

// Validate checks sizing and the calendar.
func (c Config) Validate() error {
	if c.MaxCohortSize < 1 {
		return fmt.Errorf("max cohort size must be at least 1 (got %d)", c.MaxCohortSize)
	}
	if err := c.Calendar.Validate(); err != nil {
		return fmt.Errorf("intake calendar: %w", err)
	}
	return nil
}

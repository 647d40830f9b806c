// internal/domain/intake/intake.go

// Package intake computes the recurring intake windows that cohorts open on.
//
// A Calendar lists the months a course takes new students in. For any
// enrollment instant, Calendar.Next picks the first intake whose registration
// is still open: intakes earlier in the year are skipped, and the current
// month's intake is skipped once its registration deadline (the second Monday
// of the month) has passed.
//
// Everything in this package is pure: no I/O, no clock reads, no errors from
// Next. Identical inputs always yield identical windows.
package intake

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Defaults reproduce the SBA intake schedule.
const (
	DefaultDurationMonths = 4
	DefaultEndPaddingDays = 6
	DefaultNamePrefix     = "SBA"
)

// DefaultMonths are the six bi-monthly intakes.
var DefaultMonths = []time.Month{
	time.January, time.March, time.May, time.July, time.September, time.November,
}

// Calendar describes an intake schedule.
type Calendar struct {
	// Months are the intake months in strictly ascending order.
	Months []time.Month
	// SequenceCodes maps an intake month to its two-digit code in cohort
	// names. Months without an entry use their 1-based position in Months.
	SequenceCodes map[time.Month]string
	// DurationMonths is added to the start date to reach the end date.
	DurationMonths int
	// EndPaddingDays rounds the end date out to cover the final partial week.
	EndPaddingDays int
	// NamePrefix leads every cohort name.
	NamePrefix string
	// Location decides which calendar day an instant falls on. Nil means UTC.
	Location *time.Location
}

// Window is one concrete intake: the cohort a student enrolling at a given
// instant belongs to.
type Window struct {
	Year                 int        `json:"year"`
	Month                time.Month `json:"month"`
	Sequence             string     `json:"sequence"`
	StartDate            time.Time  `json:"start_date"`
	EndDate              time.Time  `json:"end_date"`
	RegistrationDeadline time.Time  `json:"registration_deadline"`
	Name                 string     `json:"name"`
}

// Default returns the standard SBA calendar in UTC.
func Default() Calendar {
	months := make([]time.Month, len(DefaultMonths))
	copy(months, DefaultMonths)
	return Calendar{
		Months:         months,
		SequenceCodes:  OrdinalCodes(months),
		DurationMonths: DefaultDurationMonths,
		EndPaddingDays: DefaultEndPaddingDays,
		NamePrefix:     DefaultNamePrefix,
		Location:       time.UTC,
	}
}

// OrdinalCodes numbers months 01, 02, ... in the order given.
func OrdinalCodes(months []time.Month) map[time.Month]string {
	codes := make(map[time.Month]string, len(months))
	for i, m := range months {
		codes[m] = fmt.Sprintf("%02d", i+1)
	}
	return codes
}

// Validate checks that the calendar can produce windows.
func (c Calendar) Validate() error {
	if len(c.Months) == 0 {
		return errors.New("intake calendar has no months")
	}
	for i, m := range c.Months {
		if m < time.January || m > time.December {
			return fmt.Errorf("intake month %d out of range 1..12", int(m))
		}
		if i > 0 && m <= c.Months[i-1] {
			return fmt.Errorf("intake months must be strictly ascending (got %d after %d)", int(m), int(c.Months[i-1]))
		}
	}
	for m, code := range c.SequenceCodes {
		if !c.hasMonth(m) {
			return fmt.Errorf("sequence code %q given for month %d which is not an intake month", code, int(m))
		}
		if strings.TrimSpace(code) == "" {
			return fmt.Errorf("sequence code for month %d is blank", int(m))
		}
	}
	if c.DurationMonths <= 0 {
		return fmt.Errorf("cohort duration must be positive (got %d months)", c.DurationMonths)
	}
	if c.EndPaddingDays < 0 {
		return fmt.Errorf("end padding cannot be negative (got %d days)", c.EndPaddingDays)
	}
	return nil
}

func (c Calendar) hasMonth(m time.Month) bool {
	for _, x := range c.Months {
		if x == m {
			return true
		}
	}
	return false
}

func (c Calendar) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// Next returns the intake window a student enrolling at t belongs to.
//
// It scans the enrollment year and the following year. In the enrollment
// year, intake months before the enrollment month are skipped, and the
// enrollment month itself is skipped when the enrollment day falls after
// its registration deadline. Enrolling on the deadline day still joins.
func (c Calendar) Next(t time.Time) Window {
	loc := c.location()
	day := midnight(t.In(loc))
	year := day.Year()

	for y := year; y <= year+1; y++ {
		for _, m := range c.Months {
			if y == year {
				if m < day.Month() {
					continue
				}
				if m == day.Month() && day.After(RegistrationDeadline(y, m, loc)) {
					continue
				}
			}
			return c.WindowFor(y, m)
		}
	}

	// Unreachable with a non-empty calendar; keep the result deterministic.
	first := time.January
	if len(c.Months) > 0 {
		first = c.Months[0]
	}
	return c.WindowFor(year+1, first)
}

// WindowFor builds the window for a specific intake month and year.
func (c Calendar) WindowFor(year int, month time.Month) Window {
	loc := c.location()
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	seq := c.sequence(month)
	return Window{
		Year:                 year,
		Month:                month,
		Sequence:             seq,
		StartDate:            start,
		EndDate:              start.AddDate(0, c.DurationMonths, c.EndPaddingDays),
		RegistrationDeadline: RegistrationDeadline(year, month, loc),
		Name:                 Name(c.prefix(), year, month, seq),
	}
}

func (c Calendar) prefix() string {
	if c.NamePrefix == "" {
		return DefaultNamePrefix
	}
	return c.NamePrefix
}

func (c Calendar) sequence(month time.Month) string {
	if code, ok := c.SequenceCodes[month]; ok {
		return code
	}
	for i, m := range c.Months {
		if m == month {
			return fmt.Sprintf("%02d", i+1)
		}
	}
	return fmt.Sprintf("%02d", int(month))
}

// Name formats a cohort name, e.g. SBA-202601-01.
func Name(prefix string, year int, month time.Month, seq string) string {
	return fmt.Sprintf("%s-%d%02d-%s", prefix, year, int(month), seq)
}

// RegistrationDeadline is the second Monday of the month: walk forward from
// the 1st to the first Monday, then add a week.
func RegistrationDeadline(year int, month time.Month, loc *time.Location) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 0, 7)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseMonths parses a comma-separated month list such as "1,3,5,7,9,11".
func ParseMonths(s string) ([]time.Month, error) {
	var months []time.Month
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("intake month %q: %w", part, err)
		}
		if n < 1 || n > 12 {
			return nil, fmt.Errorf("intake month %d out of range 1..12", n)
		}
		months = append(months, time.Month(n))
	}
	if len(months) == 0 {
		return nil, errors.New("no intake months given")
	}
	return months, nil
}

// ParseSequenceCodes parses "month:code" pairs such as "1:01,3:02".
// An empty string yields an empty map.
func ParseSequenceCodes(s string) (map[time.Month]string, error) {
	codes := map[time.Month]string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("sequence code %q: want month:code", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil || n < 1 || n > 12 {
			return nil, fmt.Errorf("sequence code %q: bad month", part)
		}
		codes[time.Month(n)] = strings.TrimSpace(v)
	}
	return codes, nil
}

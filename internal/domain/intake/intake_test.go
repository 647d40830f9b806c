package intake_test

import (
	"testing"
	"time"

	"github.com/dalemusser/cohorthub/internal/domain/intake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNext_JanuaryBeforeDeadline(t *testing.T) {
	w := intake.Default().Next(date(2026, time.January, 5))

	assert.Equal(t, "SBA-202601-01", w.Name)
	assert.Equal(t, 2026, w.Year)
	assert.Equal(t, time.January, w.Month)
	assert.Equal(t, "01", w.Sequence)
	assert.True(t, w.StartDate.Equal(date(2026, time.January, 1)), "start %v", w.StartDate)
	assert.True(t, w.RegistrationDeadline.Equal(date(2026, time.January, 12)), "deadline %v", w.RegistrationDeadline)
	assert.True(t, w.EndDate.Equal(date(2026, time.May, 7)), "end %v", w.EndDate)
}

func TestNext_Table(t *testing.T) {
	tests := []struct {
		name     string
		enrolled time.Time
		want     string
		deadline time.Time
		end      time.Time
	}{
		{"deadline day joins", time.Date(2026, time.January, 12, 23, 59, 0, 0, time.UTC), "SBA-202601-01", date(2026, time.January, 12), date(2026, time.May, 7)},
		{"day after deadline rolls", date(2026, time.January, 13), "SBA-202603-02", date(2026, time.March, 9), date(2026, time.July, 7)},
		{"late january rolls to march", date(2026, time.January, 20), "SBA-202603-02", date(2026, time.March, 9), date(2026, time.July, 7)},
		{"between intakes", date(2026, time.February, 15), "SBA-202603-02", date(2026, time.March, 9), date(2026, time.July, 7)},
		{"may intake", date(2026, time.April, 30), "SBA-202605-03", date(2026, time.May, 11), date(2026, time.September, 7)},
		{"july intake", date(2026, time.July, 13), "SBA-202607-04", date(2026, time.July, 13), date(2026, time.November, 7)},
		{"september intake", date(2026, time.August, 1), "SBA-202609-05", date(2026, time.September, 14), date(2027, time.January, 7)},
		{"november on deadline", date(2026, time.November, 9), "SBA-202611-06", date(2026, time.November, 9), date(2027, time.March, 7)},
		{"november after deadline wraps year", date(2026, time.November, 10), "SBA-202701-01", date(2027, time.January, 11), date(2027, time.May, 7)},
		{"december wraps year", date(2026, time.December, 3), "SBA-202701-01", date(2027, time.January, 11), date(2027, time.May, 7)},
	}

	cal := intake.Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := cal.Next(tt.enrolled)
			assert.Equal(t, tt.want, w.Name)
			assert.True(t, w.RegistrationDeadline.Equal(tt.deadline), "deadline: got %v want %v", w.RegistrationDeadline, tt.deadline)
			assert.True(t, w.EndDate.Equal(tt.end), "end: got %v want %v", w.EndDate, tt.end)
		})
	}
}

func TestNext_Deterministic(t *testing.T) {
	cal := intake.Default()
	for d := date(2026, time.January, 1); d.Year() < 2028; d = d.AddDate(0, 0, 1) {
		a := cal.Next(d)
		b := cal.Next(d)
		require.Equal(t, a, b, "enrolled %v", d)
	}
}

func TestNext_AlwaysJoinableAndMonotonic(t *testing.T) {
	cal := intake.Default()
	var prev intake.Window
	for d := date(2026, time.January, 1); d.Year() < 2028; d = d.AddDate(0, 0, 1) {
		w := cal.Next(d)
		require.False(t, d.After(w.RegistrationDeadline), "enrolled %v after deadline of %s", d, w.Name)
		if !prev.StartDate.IsZero() {
			require.False(t, w.StartDate.Before(prev.StartDate), "window went backwards at %v", d)
		}
		prev = w
	}
}

func TestNext_UsesCalendarLocation(t *testing.T) {
	cal := intake.Default()
	cal.Location = time.FixedZone("EST", -5*60*60)

	// 03:00 UTC on Jan 13 is still Jan 12 in EST, the deadline day.
	w := cal.Next(time.Date(2026, time.January, 13, 3, 0, 0, 0, time.UTC))
	assert.Equal(t, "SBA-202601-01", w.Name)
	assert.Equal(t, cal.Location, w.StartDate.Location())

	// In UTC the same instant is past the deadline.
	assert.Equal(t, "SBA-202603-02", intake.Default().Next(time.Date(2026, time.January, 13, 3, 0, 0, 0, time.UTC)).Name)
}

func TestNext_CustomCalendar(t *testing.T) {
	cal := intake.Calendar{
		Months:         []time.Month{time.February, time.August},
		DurationMonths: 6,
		NamePrefix:     "ACD",
	}
	require.NoError(t, cal.Validate())

	w := cal.Next(date(2026, time.March, 1))
	assert.Equal(t, "ACD-202608-02", w.Name)
	assert.True(t, w.EndDate.Equal(date(2027, time.February, 1)), "end %v", w.EndDate)

	cal.SequenceCodes = map[time.Month]string{time.August: "B"}
	assert.Equal(t, "ACD-202608-B", cal.Next(date(2026, time.March, 1)).Name)
}

func TestRegistrationDeadline_MonthStartingOnMonday(t *testing.T) {
	// June 1, 2026 is a Monday, so the second Monday is June 8.
	got := intake.RegistrationDeadline(2026, time.June, time.UTC)
	assert.True(t, got.Equal(date(2026, time.June, 8)), "got %v", got)
	assert.Equal(t, time.Monday, got.Weekday())
}

func TestCalendar_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *intake.Calendar)
		wantErr bool
	}{
		{"default", func(c *intake.Calendar) {}, false},
		{"no months", func(c *intake.Calendar) { c.Months = nil }, true},
		{"out of range", func(c *intake.Calendar) { c.Months = []time.Month{0, 3} }, true},
		{"not ascending", func(c *intake.Calendar) { c.Months = []time.Month{3, 1} }, true},
		{"duplicate", func(c *intake.Calendar) { c.Months = []time.Month{3, 3} }, true},
		{"code for unknown month", func(c *intake.Calendar) { c.SequenceCodes = map[time.Month]string{time.June: "07"} }, true},
		{"blank code", func(c *intake.Calendar) { c.SequenceCodes = map[time.Month]string{time.March: " "} }, true},
		{"zero duration", func(c *intake.Calendar) { c.DurationMonths = 0 }, true},
		{"negative padding", func(c *intake.Calendar) { c.EndPaddingDays = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal := intake.Default()
			tt.mutate(&cal)
			err := cal.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseMonths(t *testing.T) {
	got, err := intake.ParseMonths(" 1, 3,5 ,7,9,11 ")
	require.NoError(t, err)
	assert.Equal(t, intake.DefaultMonths, got)

	_, err = intake.ParseMonths("1,13")
	assert.Error(t, err)
	_, err = intake.ParseMonths("jan")
	assert.Error(t, err)
	_, err = intake.ParseMonths(" , ")
	assert.Error(t, err)
}

func TestParseSequenceCodes(t *testing.T) {
	got, err := intake.ParseSequenceCodes("1:01, 3:02")
	require.NoError(t, err)
	assert.Equal(t, map[time.Month]string{time.January: "01", time.March: "02"}, got)

	empty, err := intake.ParseSequenceCodes("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = intake.ParseSequenceCodes("1-01")
	assert.Error(t, err)
	_, err = intake.ParseSequenceCodes("x:01")
	assert.Error(t, err)
}

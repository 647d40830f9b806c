// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/cohorthub/internal/app/store/audit"
	"github.com/dalemusser/cohorthub/internal/app/system/ratelimit"
	"github.com/dalemusser/cohorthub/internal/domain/models"
	"github.com/go-chi/chi/v5/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Logging modes for a category.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// ValidMode reports whether m is one of the logging modes.
func ValidMode(m string) bool {
	switch m {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return true
	}
	return false
}

// Config holds audit logging configuration.
type Config struct {
	// Enrollment controls events raised by enrollment and roster changes.
	Enrollment string
	// Lifecycle controls events raised by background cohort maintenance.
	Lifecycle string
}

// Sink persists events. *audit.Store satisfies it.
type Sink interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger writes audit events to MongoDB and/or structured logs.
type Logger struct {
	store  Sink
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store Sink, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func withRequest(ev audit.Event, r *http.Request) audit.Event {
	if r != nil {
		ev.IP = ratelimit.ClientIP(r)
		ev.RequestID = middleware.GetReqID(r.Context())
	}
	return ev
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.CohortID != nil {
		fields = append(fields, zap.String("cohort_id", event.CohortID.Hex()))
	}
	if event.CourseID != "" {
		fields = append(fields, zap.String("course_id", event.CourseID))
	}
	if event.StudentID != "" {
		fields = append(fields, zap.String("student_id", event.StudentID))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event according to the category's mode.
// A nil Logger is a no-op, so handlers and tests may leave it unset.
// Storage failures are logged, never returned.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var mode string
	switch event.Category {
	case audit.CategoryEnrollment:
		mode = l.config.Enrollment
	case audit.CategoryLifecycle:
		mode = l.config.Lifecycle
	}
	if mode == "" {
		mode = ModeAll
	}
	if mode == ModeOff {
		return
	}

	if mode == ModeAll || mode == ModeLog {
		l.logToZap(event)
	}
	if (mode == ModeAll || mode == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

// --- Enrollment Events ---

// StudentEnrolled logs a successful enrollment into c.
func (l *Logger) StudentEnrolled(ctx context.Context, r *http.Request, c models.Cohort, studentID string) {
	id := c.ID
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryEnrollment,
		EventType: audit.EventStudentEnrolled,
		CohortID:  &id,
		CourseID:  c.CourseID,
		StudentID: studentID,
		Success:   true,
		Details: map[string]string{
			"cohort_name":  c.Name,
			"roster_count": strconv.Itoa(len(c.StudentIDs)),
		},
	}, r))
}

// EnrollmentFailed logs an enrollment that could not be completed.
func (l *Logger) EnrollmentFailed(ctx context.Context, r *http.Request, courseID, studentID, reason string) {
	l.Log(ctx, withRequest(audit.Event{
		Category:      audit.CategoryEnrollment,
		EventType:     audit.EventEnrollmentFailed,
		CourseID:      courseID,
		StudentID:     studentID,
		Success:       false,
		FailureReason: reason,
	}, r))
}

// StudentAdded logs a direct roster addition to a known cohort.
func (l *Logger) StudentAdded(ctx context.Context, r *http.Request, c models.Cohort, studentID string) {
	id := c.ID
	l.Log(ctx, withRequest(audit.Event{
		Category:  audit.CategoryEnrollment,
		EventType: audit.EventStudentAdded,
		CohortID:  &id,
		CourseID:  c.CourseID,
		StudentID: studentID,
		Success:   true,
		Details: map[string]string{
			"roster_count": strconv.Itoa(len(c.StudentIDs)),
		},
	}, r))
}

// AddRejectedFull logs an addition refused because the cohort was full.
func (l *Logger) AddRejectedFull(ctx context.Context, r *http.Request, cohortID primitive.ObjectID, studentID string, maxSize int) {
	l.Log(ctx, withRequest(audit.Event{
		Category:      audit.CategoryEnrollment,
		EventType:     audit.EventAddRejectedFull,
		CohortID:      &cohortID,
		StudentID:     studentID,
		Success:       false,
		FailureReason: "cohort full",
		Details: map[string]string{
			"max_size": strconv.Itoa(maxSize),
		},
	}, r))
}

// --- Lifecycle Events ---

// CohortsClosed logs a closer sweep that closed n cohorts.
func (l *Logger) CohortsClosed(ctx context.Context, n int64) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryLifecycle,
		EventType: audit.EventCohortsClosed,
		Success:   true,
		Details: map[string]string{
			"count": strconv.FormatInt(n, 10),
		},
	})
}

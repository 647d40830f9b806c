// internal/app/features/cohorts/handler.go
package cohorts

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/dalemusser/cohorthub/internal/app/scheduling"
	"github.com/dalemusser/cohorthub/internal/app/store/audit"
	metricsstore "github.com/dalemusser/cohorthub/internal/app/store/metrics"
	"github.com/dalemusser/cohorthub/internal/app/system/auditlog"
	"github.com/dalemusser/cohorthub/internal/app/system/ratelimit"
	"github.com/dalemusser/cohorthub/internal/domain/intake"
	"github.com/dalemusser/cohorthub/internal/domain/models"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Scheduler is the subset of *scheduling.Scheduler the handlers call.
type Scheduler interface {
	DetermineNextCohort(t time.Time) intake.Window
	FindOrCreateCohort(ctx context.Context, courseID string, enrolledAt time.Time) (models.Cohort, error)
	AddStudentToCohort(ctx context.Context, cohortID primitive.ObjectID, studentID string) (bool, error)
	GetCohortByID(ctx context.Context, cohortID primitive.ObjectID) (models.Cohort, bool, error)
	GetStudentCohort(ctx context.Context, studentID, courseID string) (models.Cohort, bool, error)
	ListCourseCohorts(ctx context.Context, courseID string) ([]models.Cohort, error)
	Enroll(ctx context.Context, courseID, studentID string, enrolledAt time.Time) (models.Cohort, bool, error)
	Config() scheduling.Config
}

// EventLister reads a cohort's audit trail. *audit.Store satisfies it.
type EventLister interface {
	GetByCohort(ctx context.Context, cohortID primitive.ObjectID, before *primitive.ObjectID, limit int64) ([]audit.Event, error)
}

var _ Scheduler = (*scheduling.Scheduler)(nil)

// CountFetcher reads cohort totals. *metricsstore.Store satisfies it.
type CountFetcher interface {
	Counts(ctx context.Context, courseID string) metricsstore.Counts
}

// Handler serves the cohort JSON API.
type Handler struct {
	Sched Scheduler
	Loc   *time.Location
	Log   *zap.Logger

	// Audit records enrollment events; nil disables auditing.
	Audit *auditlog.Logger
	// Events backs GET /cohorts/{id}/events; nil answers 404.
	Events EventLister
	// Totals backs GET /cohorts/stats; nil answers 404.
	Totals CountFetcher
	// WriteLimit throttles POST routes per client IP; nil disables it.
	WriteLimit *ratelimit.Limiter

	validate *validator.Validate
}

// NewHandler constructs a cohorts Handler. loc is the calendar location used
// to read bare dates in query strings.
func NewHandler(sched Scheduler, loc *time.Location, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{Sched: sched, Loc: loc, Log: logger, validate: v}
}

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func (h *Handler) logger(r *http.Request) *zap.Logger {
	return h.Log.With(zap.String("request_id", middleware.GetReqID(r.Context())))
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	render.Status(r, code)
	render.JSON(w, r, v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	writeJSON(w, r, code, errorResponse{Error: msg})
}

// fail maps scheduler errors onto HTTP statuses. Unexpected errors are logged
// and reported without detail.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, scheduling.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, scheduling.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "cohort not found")
	case errors.Is(err, scheduling.ErrCohortFull):
		writeError(w, r, http.StatusConflict, "cohort is full")
	case errors.Is(err, context.DeadlineExceeded):
		h.logger(r).Warn("cohort request timed out", zap.String("op", op), zap.Error(err))
		writeError(w, r, http.StatusGatewayTimeout, "request timed out")
	default:
		h.logger(r).Error("cohort request failed", zap.String("op", op), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// decode reads a JSON body into v and validates it. On failure it writes a
// 400 and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: fields})
			return false
		}
		writeError(w, r, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// parseDate accepts YYYY-MM-DD (read in the calendar location) or RFC 3339.
// An empty string yields the zero time, which the scheduler treats as now.
func (h *Handler) parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, h.Loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func cohortID(s string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(s)
	return id, err == nil
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

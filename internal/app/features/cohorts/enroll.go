// internal/app/features/cohorts/enroll.go
package cohorts

import (
	"net/http"
	"time"

	"github.com/dalemusser/cohorthub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type enrollRequest struct {
	CourseID   string     `json:"course_id" validate:"required"`
	StudentID  string     `json:"student_id" validate:"required"`
	EnrolledAt *time.Time `json:"enrolled_at"`
}

// Enroll handles POST /cohorts/enroll: place a student in the right cohort of
// a course, opening one if necessary.
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "enroll student")
	defer cancel()

	c, joined, err := h.Sched.Enroll(ctx, req.CourseID, req.StudentID, timeOrZero(req.EnrolledAt))
	if err != nil {
		h.Audit.EnrollmentFailed(ctx, r, req.CourseID, req.StudentID, err.Error())
		h.fail(w, r, "enroll", err)
		return
	}
	if joined {
		h.Audit.StudentEnrolled(ctx, r, c, req.StudentID)
	}
	h.logger(r).Info("student enrolled",
		zap.Bool("joined", joined),
		zap.String("cohort_id", c.ID.Hex()),
		zap.String("course_id", req.CourseID),
		zap.String("student_id", req.StudentID),
		zap.String("name", c.Name))
	writeJSON(w, r, http.StatusOK, c)
}

// internal/app/features/cohorts/create.go
package cohorts

import (
	"net/http"
	"time"

	"github.com/dalemusser/cohorthub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type findOrCreateRequest struct {
	CourseID   string     `json:"course_id" validate:"required"`
	EnrolledAt *time.Time `json:"enrolled_at"`
}

// FindOrCreate handles POST /cohorts. It returns the open cohort for the
// enrollment's intake window, creating one if needed.
func (h *Handler) FindOrCreate(w http.ResponseWriter, r *http.Request) {
	var req findOrCreateRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "find or create cohort")
	defer cancel()

	c, err := h.Sched.FindOrCreateCohort(ctx, req.CourseID, timeOrZero(req.EnrolledAt))
	if err != nil {
		h.fail(w, r, "find or create cohort", err)
		return
	}
	h.logger(r).Debug("cohort resolved",
		zap.String("cohort_id", c.ID.Hex()),
		zap.String("course_id", c.CourseID),
		zap.String("name", c.Name))
	writeJSON(w, r, http.StatusOK, c)
}

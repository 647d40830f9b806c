// internal/app/features/cohorts/students.go
package cohorts

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/cohorthub/internal/app/scheduling"
	"github.com/dalemusser/cohorthub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

type addStudentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

// AddStudent handles POST /cohorts/{id}/students. Adding an existing member
// is a no-op success; a full cohort answers 409.
func (h *Handler) AddStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := cohortID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid cohort id")
		return
	}
	var req addStudentRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	added, err := h.Sched.AddStudentToCohort(ctx, id, req.StudentID)
	if err != nil {
		if errors.Is(err, scheduling.ErrCohortFull) {
			h.Audit.AddRejectedFull(ctx, r, id, req.StudentID, h.Sched.Config().MaxCohortSize)
		}
		h.fail(w, r, "add student", err)
		return
	}

	c, found, err := h.Sched.GetCohortByID(ctx, id)
	if err != nil {
		h.fail(w, r, "get cohort", err)
		return
	}
	if !found {
		writeError(w, r, http.StatusNotFound, "cohort not found")
		return
	}
	if added {
		h.Audit.StudentAdded(ctx, r, c, req.StudentID)
	}
	writeJSON(w, r, http.StatusOK, c)
}

// internal/app/features/cohorts/view.go
package cohorts

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/cohorthub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
)

// Get handles GET /cohorts/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := cohortID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid cohort id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, found, err := h.Sched.GetCohortByID(ctx, id)
	if err != nil {
		h.fail(w, r, "get cohort", err)
		return
	}
	if !found {
		writeError(w, r, http.StatusNotFound, "cohort not found")
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}

// Lookup handles GET /cohorts/lookup?course_id=&student_id=, returning the
// cohort a student belongs to in a course.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	courseID := strings.TrimSpace(query.Get(r, "course_id"))
	studentID := strings.TrimSpace(query.Get(r, "student_id"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, found, err := h.Sched.GetStudentCohort(ctx, studentID, courseID)
	if err != nil {
		h.fail(w, r, "lookup student cohort", err)
		return
	}
	if !found {
		writeError(w, r, http.StatusNotFound, "student has no cohort in this course")
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}

type listResponse struct {
	CourseID string `json:"course_id"`
	Cohorts  any    `json:"cohorts"`
}

// List handles GET /cohorts?course_id=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	courseID := strings.TrimSpace(query.Get(r, "course_id"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Sched.ListCourseCohorts(ctx, courseID)
	if err != nil {
		h.fail(w, r, "list cohorts", err)
		return
	}
	if list == nil {
		writeJSON(w, r, http.StatusOK, listResponse{CourseID: courseID, Cohorts: []any{}})
		return
	}
	writeJSON(w, r, http.StatusOK, listResponse{CourseID: courseID, Cohorts: list})
}

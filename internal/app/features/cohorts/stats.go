// internal/app/features/cohorts/stats.go
package cohorts

import (
	"context"
	"net/http"
	"strings"

	metricsstore "github.com/dalemusser/cohorthub/internal/app/store/metrics"
	"github.com/dalemusser/cohorthub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
)

type statsResponse struct {
	CourseID string `json:"course_id,omitempty"`
	metricsstore.Counts
}

// Stats handles GET /cohorts/stats?course_id=. Without a course it reports
// totals across all courses.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.Totals == nil {
		writeError(w, r, http.StatusNotFound, "stats not enabled")
		return
	}
	courseID := strings.TrimSpace(query.Get(r, "course_id"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	writeJSON(w, r, http.StatusOK, statsResponse{CourseID: courseID, Counts: h.Totals.Counts(ctx, courseID)})
}

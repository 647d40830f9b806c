// internal/app/features/cohorts/next.go
package cohorts

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
)

// Next handles GET /cohorts/next?date=YYYY-MM-DD.
// Without a date it answers for the current moment.
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	t, err := h.parseDate(query.Get(r, "date"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD or RFC 3339")
		return
	}
	writeJSON(w, r, http.StatusOK, h.Sched.DetermineNextCohort(t))
}

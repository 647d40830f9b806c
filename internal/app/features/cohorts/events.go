// internal/app/features/cohorts/events.go
package cohorts

import (
	"context"
	"net/http"

	"github.com/dalemusser/cohorthub/internal/app/store/audit"
	"github.com/dalemusser/cohorthub/internal/app/system/paging"
	"github.com/dalemusser/cohorthub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type eventsResponse struct {
	CohortID string        `json:"cohort_id"`
	Events   []audit.Event `json:"events"`
	paging.Result
}

// ListEvents handles GET /cohorts/{id}/events?limit=&before=, newest first.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	if h.Events == nil {
		writeError(w, r, http.StatusNotFound, "audit trail not enabled")
		return
	}
	id, ok := cohortID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid cohort id")
		return
	}
	limit := paging.ParseLimit(r)
	before, hasBefore, err := paging.ParseBefore(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid before cursor")
		return
	}
	var beforePtr *primitive.ObjectID
	if hasBefore {
		beforePtr = &before
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Events.GetByCohort(ctx, id, beforePtr, paging.LimitPlusOne(limit))
	if err != nil {
		h.fail(w, r, "list events", err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	page := paging.TrimPage(&events, limit, func(e audit.Event) primitive.ObjectID { return e.ID })

	writeJSON(w, r, http.StatusOK, eventsResponse{CohortID: id.Hex(), Events: events, Result: page})
}

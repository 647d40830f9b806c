// internal/app/features/cohorts/routes.go
package cohorts

import (
	"net/http"

	"github.com/dalemusser/cohorthub/internal/app/system/limits"
	"github.com/dalemusser/cohorthub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes returns a subrouter for the cohort API (mounted under /cohorts).
// Writes are body-capped and, when Handler.WriteLimit is set, rate limited
// per client.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/next", h.Next)
	r.Get("/lookup", h.Lookup)
	r.Get("/stats", h.Stats)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/events", h.ListEvents)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestSize(limits.MaxJSONBody))
		r.Use(ratelimit.Middleware(h.WriteLimit, tooManyRequests))
		r.Post("/", h.FindOrCreate)
		r.Post("/enroll", h.Enroll)
		r.Post("/{id}/students", h.AddStudent)
	})
	return r
}

func tooManyRequests(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusTooManyRequests, "too many requests")
}

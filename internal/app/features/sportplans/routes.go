// internal/app/features/sportplans/routes.go
package sportplans

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /sportplans.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/recommendations", h.Recommendations)
	r.Get("/{planID}", h.Get)
	return r
}

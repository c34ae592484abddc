// internal/app/features/events/routes.go
package events

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under
// /communities/{communityID}/events.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Route("/{eventID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Post("/join", h.Join)
		r.Post("/leave", h.Leave)
		r.Get("/participants", h.Participants)
	})
	return r
}

// internal/app/features/communities/routes.go
package communities

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /communities. Membership
// join/leave lives under /users/memberships, discovery under /search,
// and post and event routes are mounted by the bootstrap under
// /communities/{communityID}.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Route("/{communityID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Get("/members", h.Members)
	})
	return r
}

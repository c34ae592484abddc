// internal/app/features/files/routes.go
package files

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /files. It is not behind
// the auth middleware: possession of an unexpired token is the
// authorization.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{token}", h.Serve)
	return r
}

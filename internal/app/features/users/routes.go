// internal/app/features/users/routes.go
package users

import "github.com/go-chi/chi/v5"

// Routes returns the subrouter mounted under /users. Every endpoint
// operates on the bearer token's account.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/signup", h.SignUp)

	r.Get("/profile", h.Me)
	r.Put("/profile", h.UpdateMe)
	r.Get("/profile/photo", h.Photo)
	r.Put("/profile/photo", h.UploadPhoto)

	r.Put("/preferences", h.UpdatePreferences)
	r.Put("/location", h.UpdateLocation)

	r.Get("/meals", h.Nutrition)
	r.Post("/meals", h.LogMeal)

	r.Get("/memberships", h.Memberships)
	r.Put("/memberships/{communityID}", h.JoinCommunity)
	r.Delete("/memberships/{communityID}", h.LeaveCommunity)

	r.Get("/plan", h.MyPlan)
	r.Put("/plan", h.AdoptPlan)
	r.Patch("/plan/steps/{index}", h.UpdatePlanStep)

	r.Delete("/delete", h.DeleteMe)
	return r
}

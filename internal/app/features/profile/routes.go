// internal/app/features/profile/routes.go
package profile

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /profile.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeProfile)
	r.Put("/contact", h.HandleUpdateContact)
	r.Put("/password", h.HandleChangePassword)

	r.Get("/{id}", h.ServeUser)
	r.Put("/{id}/roles", h.HandleSetRoles)
	r.Put("/{id}/capabilities", h.HandleSetCapabilities)
	return r
}

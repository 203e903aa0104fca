// internal/app/features/properties/routes.go
package properties

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /properties.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeShow)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	r.Put("/{id}/listing", h.HandleListing)
	r.Post("/{id}/toggle_listing", h.HandleToggleListing)
	r.Put("/{id}/owners", h.HandleOwners)
	return r
}

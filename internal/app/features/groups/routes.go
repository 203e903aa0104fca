// internal/app/features/groups/routes.go
package groups

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /groups.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeMine)
	r.Post("/", h.HandleCreate)
	r.Get("/directory", h.ServeDirectory)
	r.Get("/{id}", h.ServeShow)
	r.Put("/{id}", h.HandleUpdate)
	r.Get("/{id}/requests", h.ServeRequests)
	r.Post("/{id}/membership_requests", h.HandleRequestMembership)
	return r
}

// internal/app/features/businesses/routes.go
package businesses

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /businesses.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeDirectory)
	r.Post("/", h.HandleCreate)
	r.Get("/mine", h.ServeMine)
	r.Get("/pending", h.ServePending)
	r.Get("/{id}", h.ServeShow)
	r.Put("/{id}", h.HandleUpdate)
	r.Put("/{id}/status", h.HandleStatus)
	r.Delete("/{id}", h.HandleDelete)
	return r
}

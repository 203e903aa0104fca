// internal/app/features/tickets/routes.go
package tickets

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /tickets.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeShow)
	r.Put("/{id}", h.HandleUpdate)
	r.Post("/{id}/transition", h.HandleTransition)
	return r
}

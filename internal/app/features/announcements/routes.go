// internal/app/features/announcements/routes.go
package announcements

import "github.com/go-chi/chi/v5"

// MountRoutes mounts all announcement routes on the given router.
// Reads are filtered by audience; writes need publishing rights.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Post("/{id}/read", h.HandleMarkRead)
	r.Delete("/{id}", h.Delete)
}

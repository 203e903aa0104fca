// internal/app/features/ajax/routes.go
package ajax

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /ajax. The action names match
// the dashboard's existing client calls.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/villa_mark_announcement_read", h.MarkAnnouncementRead)
	r.Post("/villa_delete_property", h.DeleteProperty)
	r.Post("/villa_toggle_property_listing", h.TogglePropertyListing)
	r.Post("/villa_request_group_membership", h.RequestGroupMembership)
	return r
}

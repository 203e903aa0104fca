// internal/app/features/ajax/handler.go
package ajax

import (
	"context"
	"net/http"

	"github.com/dalemusser/villahub/internal/app/features/announcements"
	"github.com/dalemusser/villahub/internal/app/features/groups"
	"github.com/dalemusser/villahub/internal/app/features/properties"
	"github.com/dalemusser/villahub/internal/app/system/authz"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler serves the form-encoded dashboard actions. Each action reuses the
// REST handler's operation so both surfaces make the same decisions.
type Handler struct {
	Authz         *authz.Authorizer
	Properties    *properties.Handler
	Groups        *groups.Handler
	Announcements *announcements.Handler
	Log           *zap.Logger
}

func NewHandler(az *authz.Authorizer, p *properties.Handler, g *groups.Handler, a *announcements.Handler, logger *zap.Logger) *Handler {
	return &Handler{
		Authz:         az,
		Properties:    p,
		Groups:        g,
		Announcements: a,
		Log:           logger,
	}
}

// formID parses the posted id field. A missing or malformed id is zero,
// which every action denies.
func formID(w http.ResponseWriter, r *http.Request, field string) (ident.ID, error) {
	if err := jsonresp.ParseForm(w, r); err != nil {
		return ident.Zero, err
	}
	id, _ := ident.Parse(r.PostForm.Get(field))
	return id, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /ajax/villa_mark_announcement_read                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) MarkAnnouncementRead(w http.ResponseWriter, r *http.Request) {
	id, err := formID(w, r, "announcement_id")
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Announcements.MarkRead(ctx, h.Authz.ActorFor(r), id); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, struct {
		AnnouncementID ident.ID `json:"announcement_id"`
		Read           bool     `json:"read"`
	}{id, true})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /ajax/villa_delete_property                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	id, err := formID(w, r, "property_id")
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Properties.DeleteProperty(ctx, r, h.Authz.ActorFor(r), id); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, struct {
		PropertyID ident.ID `json:"property_id"`
		Deleted    bool     `json:"deleted"`
	}{id, true})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /ajax/villa_toggle_property_listing                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) TogglePropertyListing(w http.ResponseWriter, r *http.Request) {
	id, err := formID(w, r, "property_id")
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	status, err := h.Properties.ToggleListing(ctx, h.Authz.ActorFor(r), id)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, struct {
		PropertyID    ident.ID `json:"property_id"`
		ListingStatus string   `json:"listing_status"`
	}{id, status})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /ajax/villa_request_group_membership                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) RequestGroupMembership(w http.ResponseWriter, r *http.Request) {
	id, err := formID(w, r, "group_id")
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.Groups.RequestMembership(ctx, r, h.Authz.ActorFor(r), id)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, struct {
		GroupID ident.ID `json:"group_id"`
		Name    string   `json:"name"`
		Pending bool     `json:"pending_request"`
	}{g.ID, g.Name, true})
}

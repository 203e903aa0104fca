// internal/app/features/businesses/list.go
package businesses

import (
	"context"
	"net/http"

	"github.com/dalemusser/villahub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/app/system/timeouts"
	"github.com/dalemusser/villahub/internal/domain/models"
)

// ServeDirectory lists published listings for any signed-in user.
func (h *Handler) ServeDirectory(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)
	if !act.Authenticated() {
		jsonresp.Unauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	bs, err := h.Businesses.ListByStatus(ctx, models.BusinessPublish)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, struct {
		Businesses []View `json:"businesses"`
	}{views(act, bs)})
}

// ServeMine lists the caller's own listings in every status.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)
	if !h.Authz.CanAccessSection(act, accesspolicy.SectionBusiness) {
		jsonresp.Denied(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	bs, err := h.Businesses.ListByAuthor(ctx, act.UserID)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, struct {
		Businesses []View `json:"businesses"`
	}{views(act, bs)})
}

// ServePending is the moderation queue.
func (h *Handler) ServePending(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)
	if !h.Authz.Record("business.moderate", accesspolicy.CanModerateBusiness(act)) {
		jsonresp.Denied(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	bs, err := h.Businesses.ListByStatus(ctx, models.BusinessPending)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, struct {
		Businesses []View `json:"businesses"`
	}{views(act, bs)})
}

// ServeShow returns one listing.
func (h *Handler) ServeShow(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	b, err := h.load(ctx, act, idParam(r), "business.view", canView)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, view(act, *b))
}

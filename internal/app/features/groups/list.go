// internal/app/features/groups/list.go
package groups

import (
	"context"
	"net/http"

	"github.com/dalemusser/villahub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/app/system/timeouts"
	"github.com/dalemusser/villahub/internal/domain/membership"
	"github.com/dalemusser/waffle/pantry/query"
)

type listData struct {
	Groups []View `json:"groups"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /groups                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeMine lists the groups the caller coordinates or belongs to, with
// their standing in each.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)
	if !h.Authz.CanAccessSection(act, accesspolicy.SectionGroups) {
		jsonresp.Denied(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	gs, err := h.Groups.GroupsFor(ctx, act.UserID)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, listData{Groups: views(act, gs)})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /groups/directory                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeDirectory lists every group (optionally ?type=) so any signed-in
// user can find one to join.
func (h *Handler) ServeDirectory(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)
	if !act.Authenticated() {
		jsonresp.Unauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	gs, err := h.Groups.List(ctx, query.Get(r, "type"))
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, listData{Groups: views(act, gs)})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /groups/{id}                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeShow returns one group. The member list is only included for
// members and editors.
func (h *Handler) ServeShow(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)
	if !act.Authenticated() {
		jsonresp.Unauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, err := h.Groups.GetByID(ctx, idParam(r))
	if err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}
	v := view(act, g)
	if membership.IsMember(g, act.UserID) || v.CanEdit {
		v.Members = g.Members
	}
	jsonresp.OK(w, v)
}

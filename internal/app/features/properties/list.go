// internal/app/features/properties/list.go
package properties

import (
	"context"
	"net/http"

	"github.com/dalemusser/villahub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/app/system/paging"
	"github.com/dalemusser/villahub/internal/app/system/timeouts"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

type listData struct {
	Scope      string        `json:"scope"`
	Properties []View        `json:"properties"`
	Page       paging.Result `json:"page"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /properties                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeList returns the caller's own properties. ?scope=all pages through
// every property for board members and staff.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)
	if !h.Authz.CanAccessSection(act, accesspolicy.SectionProperties) {
		jsonresp.Denied(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		rows  []models.Property
		page  paging.Result
		err   error
		scope = "mine"
	)
	if query.Get(r, "scope") == "all" {
		if !h.Authz.Record("property.list_all", accesspolicy.CanListAllProperties(act)) {
			jsonresp.Denied(w)
			return
		}
		scope = "all"
		rows, page, err = h.Properties.ListPage(ctx, paging.Parse(r))
	} else {
		rows, err = h.Properties.ListOwnedBy(ctx, act.UserID)
	}
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}

	views, err := h.views(ctx, act, rows)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, listData{Scope: scope, Properties: views, Page: page})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /properties/{id}                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeShow(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, ok := h.Authz.Property(ctx, act, idParam(r), "property.view", accesspolicy.CanViewProperty)
	if !ok {
		jsonresp.Denied(w)
		return
	}
	v, err := h.view(ctx, act, p)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, v)
}

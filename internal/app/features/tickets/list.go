// internal/app/features/tickets/list.go
package tickets

import (
	"context"
	"net/http"

	"github.com/dalemusser/villahub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/app/system/paging"
	"github.com/dalemusser/villahub/internal/app/system/timeouts"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/villahub/internal/domain/ticketflow"
	"github.com/dalemusser/waffle/pantry/query"
)

type listData struct {
	Scope   string        `json:"scope"`
	Tickets []View        `json:"tickets"`
	Page    paging.Result `json:"page"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /tickets                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeList returns the caller's own tickets, newest activity first. Ticket
// managers may pass ?scope=all (and optionally ?status=) to page through
// every ticket.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)
	if !h.Authz.CanAccessSection(act, accesspolicy.SectionTickets) {
		jsonresp.Denied(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		rows  []models.Ticket
		page  paging.Result
		err   error
		scope = "mine"
	)
	if query.Get(r, "scope") == "all" {
		if !h.Authz.Record("ticket.list_all", accesspolicy.CanManageTickets(act)) {
			jsonresp.Denied(w)
			return
		}
		scope = "all"
		status := ""
		if raw := query.Get(r, "status"); raw != "" {
			st, ok := ticketflow.Parse(raw)
			if !ok {
				jsonresp.Invalid(w, map[string]string{"status": "is not a valid ticket status"})
				return
			}
			status = string(st)
		}
		rows, page, err = h.Tickets.ListPage(ctx, status, paging.Parse(r))
	} else {
		rows, err = h.Tickets.ListByAuthor(ctx, act.UserID)
	}
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}

	out := make([]View, 0, len(rows))
	for i := range rows {
		out = append(out, view(act, &rows[i]))
	}
	jsonresp.OK(w, listData{Scope: scope, Tickets: out, Page: page})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /tickets/{id}                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeShow(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, ok := h.Authz.Ticket(ctx, act, idParam(r), "ticket.view", accesspolicy.CanViewTicket)
	if !ok {
		jsonresp.Denied(w)
		return
	}
	v := view(act, t)
	v.AuthorOwnsProperty = h.authorOwnsProperty(ctx, t)
	jsonresp.OK(w, v)
}

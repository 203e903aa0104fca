// internal/app/features/tickets/edit.go
package tickets

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/villahub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/villahub/internal/app/store/audit"
	ticketstore "github.com/dalemusser/villahub/internal/app/store/tickets"
	"github.com/dalemusser/villahub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/inputval"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/app/system/timeouts"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/villahub/internal/domain/ticketflow"
	"go.uber.org/zap"
)

type createInput struct {
	Title       string    `json:"title" validate:"notblank,max=200"`
	Description string    `json:"description" validate:"max=20000"`
	Type        string    `json:"type" validate:"max=64"`
	Category    string    `json:"category" validate:"max=64"`
	Priority    string    `json:"priority" validate:"omitempty,priority"`
	PropertyID  *ident.ID `json:"property_id"`
}

type updateInput struct {
	Title       string `json:"title" validate:"max=200"`
	Description string `json:"description" validate:"max=20000"`
	Type        string `json:"type" validate:"max=64"`
	Category    string `json:"category" validate:"max=64"`
	Priority    string `json:"priority" validate:"omitempty,priority"`
}

type transitionInput struct {
	To   string `json:"to" validate:"required,ticket_status"`
	Note string `json:"note" validate:"max=2000"`
}

func validate(in any) error {
	if fe := inputval.Struct(in); fe != nil {
		return jsonresp.FieldErrors(fe)
	}
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /tickets                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCreate files a ticket, optionally against a property the caller may
// act on. The description is sanitized HTML.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)

	var in createInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validate(in); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var prop *models.Property
	if in.PropertyID != nil && !in.PropertyID.IsZero() {
		p, err := h.Properties.GetByID(ctx, *in.PropertyID)
		if err != nil {
			h.Authz.Record("ticket.create", false)
			jsonresp.Error(w, r, h.Log, storeError(err))
			return
		}
		prop = p
	} else {
		in.PropertyID = nil
	}
	if !h.Authz.Record("ticket.create", accesspolicy.CanCreateTicket(act, prop)) {
		jsonresp.Denied(w)
		return
	}

	t, err := h.Tickets.Create(ctx, models.Ticket{
		AuthorID:    act.UserID,
		PropertyID:  in.PropertyID,
		Title:       in.Title,
		Description: htmlsanitize.Prepare(in.Description),
		Type:        strings.TrimSpace(in.Type),
		Category:    strings.TrimSpace(in.Category),
		Priority:    in.Priority,
	})
	if err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}
	h.Log.Info("ticket created", zap.Int64("ticket_id", int64(t.ID)), zap.Int64("user_id", int64(act.UserID)))
	jsonresp.Created(w, view(act, &t))
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /tickets/{id}                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleUpdate edits descriptive fields. Only the author (or a super admin)
// may edit; ticket managers change status through transitions.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	tid := idParam(r)
	if _, ok := h.Authz.CanMutateTicket(ctx, act, tid); !ok {
		jsonresp.Denied(w)
		return
	}

	var in updateInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	if err := validate(in); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}

	upd := ticketstore.DetailsUpdate{
		Title:    strings.TrimSpace(in.Title),
		Type:     strings.TrimSpace(in.Type),
		Category: strings.TrimSpace(in.Category),
		Priority: in.Priority,
	}
	if in.Description != "" {
		upd.Description = htmlsanitize.Prepare(in.Description)
	}
	if err := h.Tickets.Update(ctx, tid, act.UserID, upd); err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}
	h.respondFresh(ctx, w, r, act, tid)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /tickets/{id}/transition                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleTransition moves a ticket along its lifecycle. The write is
// conditional on the status the decision was made against.
func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)

	var in transitionInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	if err := validate(in); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	to, _ := ticketflow.Parse(in.To)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	tid := idParam(r)
	t, ok := h.Authz.CanTransitionTicket(ctx, act, tid, to)
	if !ok {
		jsonresp.Denied(w)
		return
	}
	from, _ := ticketflow.Parse(t.Status)

	if err := h.Tickets.Transition(ctx, tid, act.UserID, from, to, strings.TrimSpace(in.Note)); err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}
	h.Metrics.Transition(string(to))

	if ticketflow.Classify(from, to) == ticketflow.Reopen {
		h.Audit.Admin(ctx, r, audit.EventTicketReopened, act.UserID, t.AuthorID, map[string]string{
			"ticket_id": tid.String(),
			"note":      in.Note,
		})
	}
	h.Log.Info("ticket status changed",
		zap.Int64("ticket_id", int64(tid)),
		zap.Int64("user_id", int64(act.UserID)),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	h.respondFresh(ctx, w, r, act, tid)
}

func (h *Handler) respondFresh(ctx context.Context, w http.ResponseWriter, r *http.Request, act accesspolicy.Actor, tid ident.ID) {
	t, err := h.Tickets.GetByID(ctx, tid)
	if err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}
	jsonresp.OK(w, view(act, t))
}

// internal/app/features/tickets/handler.go
package tickets

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/villahub/internal/app/policy/accesspolicy"
	propertystore "github.com/dalemusser/villahub/internal/app/store/properties"
	ticketstore "github.com/dalemusser/villahub/internal/app/store/tickets"
	"github.com/dalemusser/villahub/internal/app/system/auditlog"
	"github.com/dalemusser/villahub/internal/app/system/authz"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/app/system/metrics"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the support-ticket endpoints.
type Handler struct {
	Authz      *authz.Authorizer
	Tickets    *ticketstore.Store
	Properties *propertystore.Store
	Metrics    *metrics.Metrics
	Audit      *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, az *authz.Authorizer, m *metrics.Metrics, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Authz:      az,
		Tickets:    ticketstore.New(db),
		Properties: propertystore.New(db),
		Metrics:    m,
		Audit:      audit,
		Log:        logger,
	}
}

// View is a ticket plus what the caller may do with it.
type View struct {
	models.Ticket
	CanEdit bool `json:"can_edit"`

	// AuthorOwnsProperty is filled on the detail view only.
	AuthorOwnsProperty bool `json:"author_owns_property"`
}

func view(act accesspolicy.Actor, t *models.Ticket) View {
	if t.Activity == nil {
		t.Activity = []models.TicketActivity{}
	}
	return View{Ticket: *t, CanEdit: accesspolicy.CanMutateTicket(act, t)}
}

// authorOwnsProperty reports whether t's author is on the linked property's
// owner list. A lookup failure is logged and reads as false.
func (h *Handler) authorOwnsProperty(ctx context.Context, t *models.Ticket) bool {
	if t.PropertyID == nil || t.PropertyID.IsZero() {
		return false
	}
	ok, err := h.Properties.IsOwner(ctx, t.AuthorID, *t.PropertyID)
	if err != nil {
		h.Log.Warn("ticket: owner lookup failed", zap.Int64("ticket_id", int64(t.ID)), zap.Error(err))
		return false
	}
	return ok
}

func idParam(r *http.Request) ident.ID {
	id, _ := ident.Parse(chi.URLParam(r, "id"))
	return id
}

func storeError(err error) error {
	switch {
	case errors.Is(err, ticketstore.ErrNotFound), errors.Is(err, propertystore.ErrNotFound):
		return jsonresp.ErrDenied
	case errors.Is(err, ticketstore.ErrBadPriority):
		return jsonresp.FieldErrors{"priority": "is not a valid priority"}
	case errors.Is(err, ticketstore.ErrStatusChanged):
		return jsonresp.Conflict{Msg: err.Error()}
	}
	return err
}

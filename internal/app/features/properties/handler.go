// internal/app/features/properties/handler.go
package properties

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/villahub/internal/app/policy/accesspolicy"
	propertystore "github.com/dalemusser/villahub/internal/app/store/properties"
	ticketstore "github.com/dalemusser/villahub/internal/app/store/tickets"
	userstore "github.com/dalemusser/villahub/internal/app/store/users"
	"github.com/dalemusser/villahub/internal/app/system/auditlog"
	"github.com/dalemusser/villahub/internal/app/system/authz"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// UnassignedLabel is shown for a property with no owners.
const UnassignedLabel = "Unassigned"

// Handler owns the property endpoints and the property ajax actions.
type Handler struct {
	DB         *mongo.Database
	Authz      *authz.Authorizer
	Properties *propertystore.Store
	Tickets    *ticketstore.Store
	Users      *userstore.Store
	Audit      *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, az *authz.Authorizer, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Authz:      az,
		Properties: propertystore.New(db),
		Tickets:    ticketstore.New(db),
		Users:      userstore.New(db),
		Audit:      audit,
		Log:        logger,
	}
}

// View is the JSON shape of a property.
type View struct {
	ID            ident.ID       `json:"id"`
	Title         string         `json:"title"`
	Address       models.Address `json:"address"`
	OwnerIDs      []ident.ID     `json:"owner_ids"`
	OwnerLabel    string         `json:"owner_label"`
	CreatedBy     ident.ID       `json:"created_by"`
	ListingStatus string         `json:"listing_status"`
	SalePrice     *float64       `json:"sale_price,omitempty"`
	RentPrice     *float64       `json:"rent_price,omitempty"`
	OpenTickets   int64          `json:"open_tickets"`
	CanEdit       bool           `json:"can_edit"`
	CanDelete     bool           `json:"can_delete"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ownerLabel joins owner names in list order, or returns UnassignedLabel.
func ownerLabel(ids []ident.ID, names map[ident.ID]string) string {
	if len(ids) == 0 {
		return UnassignedLabel
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if n, ok := names[id]; ok && n != "" {
			parts = append(parts, n)
		} else {
			parts = append(parts, "User #"+id.String())
		}
	}
	return strings.Join(parts, ", ")
}

// views renders ps for act, looking owner names up once for the whole list.
func (h *Handler) views(ctx context.Context, act accesspolicy.Actor, ps []models.Property) ([]View, error) {
	var all []ident.ID
	for i := range ps {
		all = append(all, ps[i].OwnerIDs()...)
	}
	names, err := h.Users.NamesByID(ctx, all)
	if err != nil {
		return nil, err
	}

	out := make([]View, 0, len(ps))
	for i := range ps {
		p := &ps[i]
		open, err := h.Tickets.CountOpenTickets(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		owners := p.OwnerIDs()
		if owners == nil {
			owners = []ident.ID{}
		}
		status := p.ListingStatus
		if status == "" {
			status = models.ListingNotListed
		}
		out = append(out, View{
			ID:            p.ID,
			Title:         p.Title,
			Address:       p.Address,
			OwnerIDs:      owners,
			OwnerLabel:    ownerLabel(owners, names),
			CreatedBy:     p.CreatedBy,
			ListingStatus: status,
			SalePrice:     p.SalePrice,
			RentPrice:     p.RentPrice,
			OpenTickets:   open,
			CanEdit:       accesspolicy.CanMutateProperty(act, p),
			CanDelete:     accesspolicy.CanDeleteProperty(act, p),
			UpdatedAt:     p.UpdatedAt,
		})
	}
	return out, nil
}

func (h *Handler) view(ctx context.Context, act accesspolicy.Actor, p *models.Property) (View, error) {
	vs, err := h.views(ctx, act, []models.Property{*p})
	if err != nil {
		return View{}, err
	}
	return vs[0], nil
}

func idParam(r *http.Request) ident.ID {
	id, _ := ident.Parse(chi.URLParam(r, "id"))
	return id
}

// storeError translates propertystore errors into response errors.
func storeError(err error) error {
	switch {
	case errors.Is(err, propertystore.ErrNotFound):
		return jsonresp.ErrDenied
	case errors.Is(err, propertystore.ErrUnknownOwner):
		return jsonresp.FieldErrors{"owner_ids": "every owner must be an existing user"}
	case errors.Is(err, propertystore.ErrBadListing):
		return jsonresp.FieldErrors{"listing_status": "is not a valid listing status"}
	case errors.Is(err, propertystore.ErrConcurrentEdit):
		return jsonresp.Conflict{Msg: err.Error()}
	}
	return err
}

func idStrings(ids []ident.ID) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = id.String()
	}
	sort.Strings(s)
	return strings.Join(s, ",")
}

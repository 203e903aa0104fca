// internal/app/features/properties/edit.go
package properties

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/villahub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/villahub/internal/app/store/audit"
	propertystore "github.com/dalemusser/villahub/internal/app/store/properties"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/inputval"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/app/system/timeouts"
	"github.com/dalemusser/villahub/internal/domain/models"
	"go.uber.org/zap"
)

type detailsInput struct {
	Title   string         `json:"title" validate:"notblank,max=200"`
	Address models.Address `json:"address"`
}

type createInput struct {
	detailsInput
	OwnerIDs      []ident.ID `json:"owner_ids"`
	ListingStatus string     `json:"listing_status" validate:"omitempty,listing_status"`
	SalePrice     *float64   `json:"sale_price" validate:"omitempty,gte=0"`
	RentPrice     *float64   `json:"rent_price" validate:"omitempty,gte=0"`
}

type listingInput struct {
	ListingStatus string   `json:"listing_status" validate:"required,listing_status"`
	SalePrice     *float64 `json:"sale_price" validate:"omitempty,gte=0"`
	RentPrice     *float64 `json:"rent_price" validate:"omitempty,gte=0"`
}

type ownersInput struct {
	OwnerIDs []ident.ID `json:"owner_ids"`
}

func validate(in any) error {
	if fe := inputval.Struct(in); fe != nil {
		return jsonresp.FieldErrors(fe)
	}
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /properties                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCreate adds a property. Only property managers may name owners; an
// owner creating a property always becomes its sole owner.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)
	if !h.Authz.Record("property.create", accesspolicy.CanCreateProperty(act)) {
		jsonresp.Denied(w)
		return
	}

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

	owners := in.OwnerIDs
	if !accesspolicy.CanTransferOwnership(act, &models.Property{}) {
		owners = []ident.ID{act.UserID}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Properties.Create(ctx, models.Property{
		Title:         in.Title,
		Address:       in.Address,
		Owners:        ident.List{IDs: owners},
		CreatedBy:     act.UserID,
		ListingStatus: in.ListingStatus,
		SalePrice:     in.SalePrice,
		RentPrice:     in.RentPrice,
	})
	if err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}
	h.Log.Info("property created", zap.Int64("property_id", int64(p.ID)), zap.Int64("user_id", int64(act.UserID)))

	v, err := h.view(ctx, act, &p)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	jsonresp.Created(w, v)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /properties/{id}                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	pid := idParam(r)
	if _, ok := h.Authz.CanMutateProperty(ctx, act, pid); !ok {
		jsonresp.Denied(w)
		return
	}

	var in detailsInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validate(in); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}

	if err := h.Properties.UpdateDetails(ctx, pid, propertystore.DetailsUpdate{Title: in.Title, Address: in.Address}); err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}
	h.respondFresh(ctx, w, r, act, pid)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /properties/{id}/listing                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleListing(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	pid := idParam(r)
	if _, ok := h.Authz.CanMutateProperty(ctx, act, pid); !ok {
		jsonresp.Denied(w)
		return
	}

	var in listingInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	if err := validate(in); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}

	if err := h.Properties.SetListing(ctx, pid, in.ListingStatus, in.SalePrice, in.RentPrice); err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}
	h.respondFresh(ctx, w, r, act, pid)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /properties/{id}/toggle_listing                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// ToggleListing flips pid between listed and not listed for act and returns
// the new status.
func (h *Handler) ToggleListing(ctx context.Context, act accesspolicy.Actor, pid ident.ID) (string, error) {
	if _, ok := h.Authz.CanMutateProperty(ctx, act, pid); !ok {
		return "", jsonresp.ErrDenied
	}
	status, err := h.Properties.ToggleListing(ctx, pid)
	if err != nil {
		return "", storeError(err)
	}
	return status, nil
}

type toggleData struct {
	ID            ident.ID `json:"id"`
	ListingStatus string   `json:"listing_status"`
}

func (h *Handler) HandleToggleListing(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	pid := idParam(r)
	status, err := h.ToggleListing(ctx, act, pid)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, toggleData{ID: pid, ListingStatus: status})
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /properties/{id}/owners                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleOwners replaces the owner list. An empty list unassigns the
// property.
func (h *Handler) HandleOwners(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	pid := idParam(r)
	p, ok := h.Authz.Property(ctx, act, pid, "property.transfer", accesspolicy.CanTransferOwnership)
	if !ok {
		jsonresp.Denied(w)
		return
	}

	var in ownersInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}

	before := idStrings(p.OwnerIDs())
	if err := h.Properties.SetOwners(ctx, pid, in.OwnerIDs); err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}
	h.Audit.Admin(ctx, r, audit.EventOwnershipTransferred, act.UserID, ident.Zero, map[string]string{
		"property_id": pid.String(),
		"from":        before,
		"to":          idStrings(ident.Dedupe(in.OwnerIDs)),
	})
	h.respondFresh(ctx, w, r, act, pid)
}

// respondFresh reloads pid and writes its view.
func (h *Handler) respondFresh(ctx context.Context, w http.ResponseWriter, r *http.Request, act accesspolicy.Actor, pid ident.ID) {
	p, err := h.Properties.GetByID(ctx, pid)
	if err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}
	v, err := h.view(ctx, act, p)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, v)
}

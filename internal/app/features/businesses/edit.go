// internal/app/features/businesses/edit.go
package businesses

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/villahub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/villahub/internal/app/store/audit"
	businessstore "github.com/dalemusser/villahub/internal/app/store/businesses"
	"github.com/dalemusser/villahub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/inputval"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/app/system/timeouts"
	"github.com/dalemusser/villahub/internal/domain/models"
	"go.uber.org/zap"
)

type detailsInput struct {
	Name        string `json:"name" validate:"notblank,max=200"`
	Description string `json:"description" validate:"max=20000"`
	Category    string `json:"category" validate:"max=64"`
	Phone       string `json:"phone" validate:"max=40"`
	Website     string `json:"website" validate:"omitempty,url,max=300"`
}

type deleteData struct {
	ID      ident.ID `json:"id"`
	Deleted bool     `json:"deleted"`
}

type statusInput struct {
	Status string `json:"status" validate:"required,oneof=draft pending publish"`
}

func (in detailsInput) update() businessstore.DetailsUpdate {
	return businessstore.DetailsUpdate{
		Name:        strings.TrimSpace(in.Name),
		Description: htmlsanitize.Prepare(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Phone:       strings.TrimSpace(in.Phone),
		Website:     strings.TrimSpace(in.Website),
	}
}

func decodeDetails(w http.ResponseWriter, r *http.Request) (detailsInput, error) {
	var in detailsInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		return in, err
	}
	if fe := inputval.Struct(in); fe != nil {
		return in, jsonresp.FieldErrors(fe)
	}
	return in, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /businesses                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCreate adds a draft listing authored by the caller.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)
	if !h.Authz.Record("business.create", accesspolicy.CanCreateBusiness(act)) {
		jsonresp.Denied(w)
		return
	}

	in, err := decodeDetails(w, r)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	upd := in.update()
	b, err := h.Businesses.Create(ctx, models.Business{
		AuthorID:    act.UserID,
		Name:        upd.Name,
		Description: upd.Description,
		Category:    upd.Category,
		Phone:       upd.Phone,
		Website:     upd.Website,
		Status:      models.BusinessDraft,
	})
	if err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}
	jsonresp.Created(w, view(act, b))
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /businesses/{id}                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	b, err := h.load(ctx, act, idParam(r), "business.edit", accesspolicy.CanManageBusiness)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	in, err := decodeDetails(w, r)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	if err := h.Businesses.Update(ctx, b.ID, in.update()); err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}
	h.respondFresh(ctx, w, r, act, b.ID)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /businesses/{id}/status                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// statusAllowed reports whether the move from -> to is open to the caller.
// Authors submit and withdraw their own listings; publishing is reserved
// for moderators, who may also send any listing back to draft.
func statusAllowed(act accesspolicy.Actor, b *models.Business, to string) bool {
	if to == models.BusinessPublish {
		return accesspolicy.CanModerateBusiness(act)
	}
	return accesspolicy.CanManageBusiness(act, b) || accesspolicy.CanModerateBusiness(act)
}

// HandleStatus moves a listing between draft, pending and publish.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)

	var in statusInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	if fe := inputval.Struct(in); fe != nil {
		jsonresp.Invalid(w, fe)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	b, err := h.load(ctx, act, idParam(r), "business.status", func(a accesspolicy.Actor, b *models.Business) bool {
		return statusAllowed(a, b, in.Status)
	})
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	if b.Status == in.Status {
		jsonresp.Invalid(w, map[string]string{"status": "is already " + in.Status})
		return
	}
	if err := h.Businesses.SetStatus(ctx, b.ID, in.Status); err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}

	h.Log.Info("business status changed",
		zap.Int64("business_id", int64(b.ID)),
		zap.Int64("user_id", int64(act.UserID)),
		zap.String("from", b.Status),
		zap.String("to", in.Status))
	h.Audit.Admin(ctx, r, audit.EventBusinessStatusChanged, act.UserID, b.AuthorID, map[string]string{
		"business_id": b.ID.String(),
		"from":        b.Status,
		"to":          in.Status,
	})
	h.respondFresh(ctx, w, r, act, b.ID)
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /businesses/{id}                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	b, err := h.load(ctx, act, idParam(r), "business.delete", accesspolicy.CanManageBusiness)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	if err := h.Businesses.Delete(ctx, b.ID); err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}
	h.Log.Info("business deleted", zap.Int64("business_id", int64(b.ID)), zap.Int64("user_id", int64(act.UserID)))
	jsonresp.OK(w, deleteData{ID: b.ID, Deleted: true})
}

func (h *Handler) respondFresh(ctx context.Context, w http.ResponseWriter, r *http.Request, act accesspolicy.Actor, id ident.ID) {
	b, err := h.Businesses.GetByID(ctx, id)
	if err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}
	jsonresp.OK(w, view(act, *b))
}

// internal/app/features/businesses/handler.go
package businesses

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/villahub/internal/app/policy/accesspolicy"
	businessstore "github.com/dalemusser/villahub/internal/app/store/businesses"
	"github.com/dalemusser/villahub/internal/app/system/auditlog"
	"github.com/dalemusser/villahub/internal/app/system/authz"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the business partner listings.
type Handler struct {
	Authz      *authz.Authorizer
	Businesses *businessstore.Store
	Audit      *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, az *authz.Authorizer, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Authz:      az,
		Businesses: businessstore.New(db),
		Audit:      audit,
		Log:        logger,
	}
}

// View is a listing plus what the caller may do with it.
type View struct {
	models.Business
	CanEdit     bool `json:"can_edit"`
	CanModerate bool `json:"can_moderate"`
}

func view(act accesspolicy.Actor, b models.Business) View {
	return View{
		Business:    b,
		CanEdit:     accesspolicy.CanManageBusiness(act, &b),
		CanModerate: accesspolicy.CanModerateBusiness(act),
	}
}

func views(act accesspolicy.Actor, bs []models.Business) []View {
	out := make([]View, 0, len(bs))
	for _, b := range bs {
		out = append(out, view(act, b))
	}
	return out
}

// load fetches a listing and applies rule. A missing listing is recorded and
// reported the same way as a denial.
func (h *Handler) load(ctx context.Context, act accesspolicy.Actor, id ident.ID, check string,
	rule func(accesspolicy.Actor, *models.Business) bool) (*models.Business, error) {
	b, err := h.Businesses.GetByID(ctx, id)
	if err != nil {
		h.Authz.Record(check, false)
		return nil, storeError(err)
	}
	if !h.Authz.Record(check, rule(act, b)) {
		return nil, jsonresp.ErrDenied
	}
	return b, nil
}

// canView: published listings are public to signed-in users; drafts and
// pending listings are visible to their author and moderators.
func canView(act accesspolicy.Actor, b *models.Business) bool {
	if !act.Authenticated() || b == nil {
		return false
	}
	if b.Status == models.BusinessPublish {
		return true
	}
	return accesspolicy.CanManageBusiness(act, b) || accesspolicy.CanModerateBusiness(act)
}

func idParam(r *http.Request) ident.ID {
	id, _ := ident.Parse(chi.URLParam(r, "id"))
	return id
}

func storeError(err error) error {
	switch {
	case errors.Is(err, businessstore.ErrNotFound):
		return jsonresp.ErrDenied
	case errors.Is(err, businessstore.ErrBadStatus):
		return jsonresp.FieldErrors{"status": err.Error()}
	}
	return err
}

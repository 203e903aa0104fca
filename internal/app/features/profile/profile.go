// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/villahub/internal/app/policy/accesspolicy"
	profilestore "github.com/dalemusser/villahub/internal/app/store/profiles"
	userstore "github.com/dalemusser/villahub/internal/app/store/users"
	"github.com/dalemusser/villahub/internal/app/system/inputval"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/app/system/timeouts"
	"github.com/dalemusser/villahub/internal/domain/models"
	"go.uber.org/zap"
)

// ServeProfile returns the caller's own profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)
	if !h.Authz.CanAccessSection(act, accesspolicy.SectionProfile) {
		jsonresp.Denied(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, act.UserID)
	if err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}
	p, err := h.Profiles.EnsureProfile(ctx, act.UserID)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, view(u, p))
}

type contactInput struct {
	Phone   string         `json:"phone" validate:"max=40"`
	Address models.Address `json:"address"`
}

// HandleUpdateContact writes the self-service fields. Roles and capabilities
// cannot be changed here.
func (h *Handler) HandleUpdateContact(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)
	if !h.Authz.CanAccessSection(act, accesspolicy.SectionProfile) {
		jsonresp.Denied(w)
		return
	}

	var in contactInput
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

	if _, err := h.Profiles.EnsureProfile(ctx, act.UserID); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	upd := profilestore.ContactUpdate{
		Phone: strings.TrimSpace(in.Phone),
		Address: models.Address{
			Street: strings.TrimSpace(in.Address.Street),
			Unit:   strings.TrimSpace(in.Address.Unit),
			City:   strings.TrimSpace(in.Address.City),
			Zip:    strings.TrimSpace(in.Address.Zip),
		},
	}
	if err := h.Profiles.UpdateContact(ctx, act.UserID, upd); err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}
	h.ServeProfile(w, r)
}

type passwordInput struct {
	Current string `json:"current_password" validate:"required"`
	New     string `json:"new_password" validate:"required,min=8,max=128"`
}

// HandleChangePassword replaces the caller's password after checking the
// current one. Any signed-in user may change their own password.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)
	if !act.Authenticated() {
		jsonresp.Unauthorized(w)
		return
	}

	var in passwordInput
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

	u, err := h.Users.GetByID(ctx, act.UserID)
	if err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}
	if !userstore.CheckPassword(u, in.Current) {
		jsonresp.Invalid(w, map[string]string{"current_password": "is incorrect"})
		return
	}
	if err := h.Users.SetPassword(ctx, u.ID, in.New); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	h.Log.Info("password changed", zap.Int64("user_id", int64(u.ID)))
	jsonresp.OK(w, struct {
		Changed bool `json:"changed"`
	}{true})
}

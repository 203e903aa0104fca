// internal/app/features/profile/admin.go
package profile

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/villahub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/villahub/internal/app/store/audit"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/inputval"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/app/system/timeouts"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/villahub/internal/domain/roles"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Administrator role assignment                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// target authorizes an administrator action and loads the target account.
func (h *Handler) target(ctx context.Context, act accesspolicy.Actor, uid ident.ID, check string) (*models.User, error) {
	if !h.Authz.Record(check, accesspolicy.CanAssignRoles(act)) {
		return nil, jsonresp.ErrDenied
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return nil, storeError(err)
	}
	return u, nil
}

// ServeUser returns another user's profile to an administrator.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.target(ctx, act, idParam(r), "profile.view_other")
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	h.respond(ctx, w, r, u)
}

type rolesInput struct {
	Roles []string `json:"roles" validate:"dive,villa_role"`
}

// HandleSetRoles replaces the target's community roles. The legacy single
// role is folded away, so the submitted set is the whole truth afterwards.
func (h *Handler) HandleSetRoles(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.target(ctx, act, idParam(r), "profile.assign_roles")
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}

	var in rolesInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	if fe := inputval.Struct(in); fe != nil {
		jsonresp.Invalid(w, fe)
		return
	}

	before, err := h.Profiles.GetRoles(ctx, u.ID)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	next := roles.ParseSet(in.Roles...)
	if err := h.Profiles.SetRoles(ctx, u.ID, next); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}

	h.Log.Info("roles changed",
		zap.Int64("user_id", int64(u.ID)),
		zap.Int64("actor_id", int64(act.UserID)),
		zap.Strings("roles", next.Strings()))
	h.Audit.Admin(ctx, r, audit.EventRolesChanged, act.UserID, u.ID, map[string]string{
		"from": joinSet(before),
		"to":   joinSet(next),
	})
	h.respond(ctx, w, r, u)
}

type capabilitiesInput struct {
	Capabilities []string `json:"capabilities" validate:"dive,capability"`
}

// HandleSetCapabilities replaces the target's capabilities.
func (h *Handler) HandleSetCapabilities(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.target(ctx, act, idParam(r), "profile.assign_capabilities")
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}

	var in capabilitiesInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	if fe := inputval.Struct(in); fe != nil {
		jsonresp.Invalid(w, fe)
		return
	}

	before, err := h.Profiles.GetCapabilities(ctx, u.ID)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	caps := make(roles.Capabilities, 0, len(in.Capabilities))
	for _, raw := range in.Capabilities {
		if c, ok := roles.ParseCapability(raw); ok {
			caps = append(caps, c)
		}
	}
	caps = caps.Normalize()
	if err := h.Profiles.SetCapabilities(ctx, u.ID, caps); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}

	h.Audit.Admin(ctx, r, audit.EventCapabilitiesChanged, act.UserID, u.ID, map[string]string{
		"from": joinCaps(before),
		"to":   joinCaps(caps),
	})
	h.respond(ctx, w, r, u)
}

func (h *Handler) respond(ctx context.Context, w http.ResponseWriter, r *http.Request, u *models.User) {
	p, err := h.Profiles.EnsureProfile(ctx, u.ID)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, view(u, p))
}

func joinCaps(cs roles.Capabilities) string {
	s := make([]string, len(cs))
	for i, c := range cs {
		s[i] = string(c)
	}
	return strings.Join(s, ",")
}

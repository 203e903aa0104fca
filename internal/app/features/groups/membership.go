// internal/app/features/groups/membership.go
package groups

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/villahub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/villahub/internal/app/store/audit"
	groupstore "github.com/dalemusser/villahub/internal/app/store/groups"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/app/system/mailer"
	"github.com/dalemusser/villahub/internal/app/system/timeouts"
	"github.com/dalemusser/villahub/internal/domain/models"
	"go.uber.org/zap"
)

// Membership request outcomes, as counted in metrics.
const (
	resultRequested = "requested"
	resultMember    = "already_member"
	resultPending   = "already_requested"
	resultMissing   = "not_found"
	resultError     = "error"
)

// RequestMembership records a pending join request from act on gid and
// notifies the coordinator. The request lands at most once; a repeat or a
// request from a current member is a Conflict.
func (h *Handler) RequestMembership(ctx context.Context, r *http.Request, act accesspolicy.Actor, gid ident.ID) (*models.Group, error) {
	if !h.Authz.Record("group.request_membership", act.Authenticated() && !gid.IsZero()) {
		return nil, jsonresp.ErrDenied
	}

	g, err := h.Groups.RequestMembership(ctx, act.UserID, gid)
	switch {
	case err == nil:
		h.Metrics.Membership(resultRequested)
	case errors.Is(err, groupstore.ErrAlreadyMember):
		h.Metrics.Membership(resultMember)
	case errors.Is(err, groupstore.ErrAlreadyRequested):
		h.Metrics.Membership(resultPending)
	case errors.Is(err, groupstore.ErrNotFound):
		h.Metrics.Membership(resultMissing)
	default:
		h.Metrics.Membership(resultError)
	}
	if err != nil {
		return nil, storeError(err)
	}

	h.Log.Info("membership requested",
		zap.Int64("group_id", int64(gid)), zap.Int64("user_id", int64(act.UserID)))
	h.Audit.Admin(ctx, r, audit.EventMembershipRequested, act.UserID, act.UserID, map[string]string{
		"group_id": gid.String(),
	})
	h.notifyCoordinator(ctx, g, act.UserID)
	return g, nil
}

// notifyCoordinator emails g's coordinator about a new request from uid.
// Failures are logged; the request itself has already been recorded.
func (h *Handler) notifyCoordinator(ctx context.Context, g *models.Group, uid ident.ID) {
	if h.Mailer == nil || g.CoordinatorID == nil || g.CoordinatorID.IsZero() {
		return
	}
	coord, err := h.Users.GetByID(ctx, *g.CoordinatorID)
	if err != nil {
		h.Log.Warn("membership: coordinator lookup failed",
			zap.Int64("group_id", int64(g.ID)), zap.Error(err))
		return
	}
	names, err := h.Users.NamesByID(ctx, []ident.ID{uid})
	if err != nil {
		h.Log.Warn("membership: requester lookup failed", zap.Error(err))
	}
	requester := names[uid]
	if requester == "" {
		requester = "User #" + uid.String()
	}

	email := mailer.BuildMembershipRequestEmail(mailer.MembershipRequestData{
		SiteName:      h.SiteName,
		Coordinator:   coord.FullName,
		RequesterName: requester,
		GroupName:     g.Name,
		ReviewURL:     h.BaseURL + "/groups/" + g.ID.String() + "/requests",
	})
	email.To = coord.Email
	if err := h.Mailer.Send(email); err != nil {
		h.Log.Warn("membership: coordinator email failed",
			zap.Int64("group_id", int64(g.ID)), zap.Error(err))
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /groups/{id}/membership_requests                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRequestMembership(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.RequestMembership(ctx, r, act, idParam(r))
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, view(act, g))
}

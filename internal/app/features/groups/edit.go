// internal/app/features/groups/edit.go
package groups

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/villahub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/inputval"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/app/system/timeouts"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/villahub/internal/domain/roles"
	"go.uber.org/zap"
)

type createInput struct {
	Name          string    `json:"name" validate:"notblank,max=120"`
	Description   string    `json:"description" validate:"max=4000"`
	Type          string    `json:"type" validate:"omitempty,oneof=committee staff board"`
	CoordinatorID *ident.ID `json:"coordinator_id"`
}

type updateInput struct {
	Name        string `json:"name" validate:"max=120"`
	Description string `json:"description" validate:"max=4000"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /groups                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)
	if !h.Authz.Record("group.create", accesspolicy.CanCreateGroup(act)) {
		jsonresp.Denied(w)
		return
	}

	var in createInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if fe := inputval.Struct(in); fe != nil {
		jsonresp.Invalid(w, fe)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g := models.Group{
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Type:        in.Type,
	}
	if in.CoordinatorID != nil && !in.CoordinatorID.IsZero() {
		if _, err := h.Users.GetByID(ctx, *in.CoordinatorID); err != nil {
			jsonresp.Invalid(w, map[string]string{"coordinator_id": "must reference an existing user"})
			return
		}
		g.CoordinatorID = in.CoordinatorID
	}

	created, err := h.Groups.Create(ctx, g)
	if err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}
	h.Log.Info("group created", zap.Int64("group_id", int64(created.ID)), zap.Int64("user_id", int64(act.UserID)))
	jsonresp.Created(w, view(act, &created))
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /groups/{id}                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleUpdate edits the group's name and description.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	gid := idParam(r)
	if _, ok := h.Authz.CanMutateGroup(ctx, act, gid); !ok {
		jsonresp.Denied(w)
		return
	}

	var in updateInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	if fe := inputval.Struct(in); fe != nil {
		jsonresp.Invalid(w, fe)
		return
	}

	if err := h.Groups.UpdateInfo(ctx, gid, strings.TrimSpace(in.Name), strings.TrimSpace(in.Description)); err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}
	g, err := h.Groups.GetByID(ctx, gid)
	if err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}
	jsonresp.OK(w, view(act, g))
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /groups/{id}/requests                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

type pendingView struct {
	models.MembershipRequest
	Name string `json:"name"`
	// Resident is set when the requester owns or lives in the community.
	Resident bool `json:"resident"`
}

var residentRoles = roles.NewSet(roles.Owner, roles.CommunityMember)

// ServeRequests lists pending join requests for the group's editors.
func (h *Handler) ServeRequests(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	gid := idParam(r)
	if _, ok := h.Authz.CanMutateGroup(ctx, act, gid); !ok {
		jsonresp.Denied(w)
		return
	}

	reqs, err := h.Groups.PendingRequests(ctx, gid)
	if err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}
	ids := make([]ident.ID, 0, len(reqs))
	for _, rq := range reqs {
		ids = append(ids, rq.UserID)
	}
	names, err := h.Users.NamesByID(ctx, ids)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}

	out := make([]pendingView, 0, len(reqs))
	for _, rq := range reqs {
		resident, err := h.Profiles.HasAnyRole(ctx, rq.UserID, residentRoles)
		if err != nil {
			jsonresp.Error(w, r, h.Log, err)
			return
		}
		out = append(out, pendingView{MembershipRequest: rq, Name: names[rq.UserID], Resident: resident})
	}
	jsonresp.OK(w, struct {
		Requests []pendingView `json:"requests"`
	}{out})
}

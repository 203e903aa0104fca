// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"

	"github.com/dalemusser/villahub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/villahub/internal/app/system/auth"
	"github.com/dalemusser/villahub/internal/app/system/authz"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/app/system/timeouts"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// ProfileEnsurer creates the profile on first visit.
type ProfileEnsurer interface {
	EnsureProfile(ctx context.Context, uid ident.ID) (models.Profile, error)
}

// OwnershipIndex lists the properties a user owns.
type OwnershipIndex interface {
	PropertiesOwnedBy(ctx context.Context, uid ident.ID) ([]ident.ID, error)
}

// TicketIndex lists the tickets a user filed.
type TicketIndex interface {
	TicketsCreatedBy(ctx context.Context, uid ident.ID, pid *ident.ID) ([]ident.ID, error)
}

// Handler serves the member dashboard: which sections the caller may open.
type Handler struct {
	Authz    *authz.Authorizer
	Profiles ProfileEnsurer
	Owned    OwnershipIndex
	Filed    TicketIndex
	Log      *zap.Logger
}

// NewHandler builds the dashboard handler. owned and filed may be nil, in
// which case the record lists are always empty.
func NewHandler(az *authz.Authorizer, profiles ProfileEnsurer, owned OwnershipIndex, filed TicketIndex, logger *zap.Logger) *Handler {
	return &Handler{Authz: az, Profiles: profiles, Owned: owned, Filed: filed, Log: logger}
}

// Section is one navigation entry.
type Section struct {
	ID        string `json:"id"`
	CanRender bool   `json:"can_render"`
}

type userView struct {
	ID           ident.ID `json:"id"`
	Name         string   `json:"name"`
	IsSuperAdmin bool     `json:"is_super_admin"`
}

type dashboardData struct {
	User            userView   `json:"user"`
	Sections        []Section  `json:"sections"`
	Roles           []string   `json:"roles"`
	OwnedProperties []ident.ID `json:"owned_properties"`
	FiledTickets    []ident.ID `json:"filed_tickets"`
	Nonce           string     `json:"nonce"`
	Preview         bool       `json:"preview,omitempty"`
}

// Sections evaluates every section for act, in navigation order.
func Sections(az *authz.Authorizer, act accesspolicy.Actor) []Section {
	out := make([]Section, 0, len(accesspolicy.Sections))
	for _, sec := range accesspolicy.Sections {
		out = append(out, Section{ID: string(sec), CanRender: az.CanAccessSection(act, sec)})
	}
	return out
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /dashboard                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// Serve computes the caller's role set once and returns the section list
// with the caller's own property and ticket ids. The response also carries
// a fresh CSRF token for the ajax endpoints.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		jsonresp.Unauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Profiles.EnsureProfile(ctx, u.ID); err != nil {
		h.Log.Error("dashboard: ensure profile failed", zap.Int64("user_id", int64(u.ID)), zap.Error(err))
	}

	act := h.Authz.Actor(ctx, u.ID, u.IsSuperAdmin)
	act, preview := h.Authz.Preview(act)

	sections := Sections(h.Authz, act)
	owned, filed := h.records(ctx, act, sections)
	jsonresp.OK(w, dashboardData{
		User:            userView{ID: u.ID, Name: u.Name, IsSuperAdmin: u.IsSuperAdmin},
		Sections:        sections,
		Roles:           act.Roles.Strings(),
		OwnedProperties: owned,
		FiledTickets:    filed,
		Nonce:           csrf.Token(r),
		Preview:         preview,
	})
}

// records lists the caller's own properties and tickets for the sections
// they can open. Lookup failures are logged and leave the list empty.
func (h *Handler) records(ctx context.Context, act accesspolicy.Actor, sections []Section) (owned, filed []ident.ID) {
	owned, filed = []ident.ID{}, []ident.ID{}
	open := make(map[string]bool, len(sections))
	for _, s := range sections {
		open[s.ID] = s.CanRender
	}

	if h.Owned != nil && open[string(accesspolicy.SectionProperties)] {
		ids, err := h.Owned.PropertiesOwnedBy(ctx, act.UserID)
		if err != nil {
			h.Log.Warn("dashboard: owned properties lookup failed", zap.Int64("user_id", int64(act.UserID)), zap.Error(err))
		} else if ids != nil {
			owned = ids
		}
	}
	if h.Filed != nil && open[string(accesspolicy.SectionTickets)] {
		ids, err := h.Filed.TicketsCreatedBy(ctx, act.UserID, nil)
		if err != nil {
			h.Log.Warn("dashboard: filed tickets lookup failed", zap.Int64("user_id", int64(act.UserID)), zap.Error(err))
		} else if ids != nil {
			filed = ids
		}
	}
	return owned, filed
}

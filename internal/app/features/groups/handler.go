// internal/app/features/groups/handler.go
package groups

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/villahub/internal/app/policy/accesspolicy"
	groupstore "github.com/dalemusser/villahub/internal/app/store/groups"
	profilestore "github.com/dalemusser/villahub/internal/app/store/profiles"
	userstore "github.com/dalemusser/villahub/internal/app/store/users"
	"github.com/dalemusser/villahub/internal/app/system/auditlog"
	"github.com/dalemusser/villahub/internal/app/system/authz"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/app/system/mailer"
	"github.com/dalemusser/villahub/internal/app/system/metrics"
	"github.com/dalemusser/villahub/internal/domain/membership"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the groups feature. It
// holds the membership index, the user lookups needed for coordinator
// notifications and the mailer that sends them.
type Handler struct {
	Authz    *authz.Authorizer
	Groups   *groupstore.Store
	Users    *userstore.Store
	Profiles *profilestore.Store
	Mailer   *mailer.Mailer
	Metrics  *metrics.Metrics
	Audit    *auditlog.Logger
	Log      *zap.Logger

	// SiteName and BaseURL fill the coordinator email.
	SiteName string
	BaseURL  string
}

// NewHandler constructs a groups Handler. It is called from BuildHandler,
// where the database, mailer and metrics are already initialized.
func NewHandler(db *mongo.Database, az *authz.Authorizer, m *mailer.Mailer, mt *metrics.Metrics,
	audit *auditlog.Logger, siteName, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		Authz:    az,
		Groups:   groupstore.New(db),
		Users:    userstore.New(db),
		Profiles: profilestore.New(db),
		Mailer:   m,
		Metrics:  mt,
		Audit:    audit,
		Log:      logger,
		SiteName: siteName,
		BaseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// View is a group as seen by one user.
type View struct {
	ID            ident.ID  `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Type          string    `json:"type"`
	CoordinatorID *ident.ID `json:"coordinator_id,omitempty"`
	RoleInGroup   string    `json:"role_in_group"`
	MemberCount   int       `json:"member_count"`
	Pending       bool      `json:"pending_request"`
	CanRequest    bool      `json:"can_request"`
	CanEdit       bool      `json:"can_edit"`

	// Members is only filled for members and editors.
	Members []models.GroupMember `json:"members,omitempty"`
}

func view(act accesspolicy.Actor, g *models.Group) View {
	return View{
		ID:            g.ID,
		Name:          g.Name,
		Description:   g.Description,
		Type:          g.Type,
		CoordinatorID: g.CoordinatorID,
		RoleInGroup:   membership.RoleInGroup(g, act.UserID),
		MemberCount:   membership.MemberCount(g),
		Pending:       membership.HasPendingRequest(g, act.UserID),
		CanRequest:    accesspolicy.CanRequestMembership(act, g) && !membership.HasPendingRequest(g, act.UserID),
		CanEdit:       accesspolicy.CanMutateGroup(act, g),
	}
}

func views(act accesspolicy.Actor, gs []models.Group) []View {
	out := make([]View, 0, len(gs))
	for i := range gs {
		out = append(out, view(act, &gs[i]))
	}
	return out
}

func idParam(r *http.Request) ident.ID {
	id, _ := ident.Parse(chi.URLParam(r, "id"))
	return id
}

func storeError(err error) error {
	switch {
	case errors.Is(err, groupstore.ErrNotFound):
		return jsonresp.ErrDenied
	case errors.Is(err, groupstore.ErrAlreadyMember), errors.Is(err, groupstore.ErrAlreadyRequested):
		return jsonresp.Conflict{Msg: err.Error()}
	}
	return err
}

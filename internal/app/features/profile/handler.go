// internal/app/features/profile/handler.go
package profile

import (
	"errors"
	"net/http"
	"strings"

	profilestore "github.com/dalemusser/villahub/internal/app/store/profiles"
	userstore "github.com/dalemusser/villahub/internal/app/store/users"
	"github.com/dalemusser/villahub/internal/app/system/auditlog"
	"github.com/dalemusser/villahub/internal/app/system/authz"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/villahub/internal/domain/roles"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the caller's own profile and the administrator role
// assignment endpoints.
type Handler struct {
	Authz    *authz.Authorizer
	Profiles *profilestore.Store
	Users    *userstore.Store
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, az *authz.Authorizer, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Authz:    az,
		Profiles: profilestore.New(db),
		Users:    userstore.New(db),
		Audit:    audit,
		Log:      logger,
	}
}

// View is a profile joined with its account.
type View struct {
	UserID       ident.ID       `json:"user_id"`
	LoginID      string         `json:"login_id"`
	FullName     string         `json:"full_name"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	Address      models.Address `json:"address"`
	Roles        roles.Set      `json:"roles"`
	Capabilities []string       `json:"capabilities"`
	IsSuperAdmin bool           `json:"is_super_admin"`
}

func view(u *models.User, p models.Profile) View {
	caps := make([]string, 0, len(p.Capabilities))
	for _, c := range p.Capabilities.Normalize() {
		caps = append(caps, string(c))
	}
	return View{
		UserID:       u.ID,
		LoginID:      u.LoginID,
		FullName:     u.FullName,
		Email:        u.Email,
		Phone:        p.Phone,
		Address:      p.Address,
		Roles:        p.EffectiveRoles(),
		Capabilities: caps,
		IsSuperAdmin: u.IsSuperAdmin,
	}
}

func idParam(r *http.Request) ident.ID {
	id, _ := ident.Parse(chi.URLParam(r, "id"))
	return id
}

func storeError(err error) error {
	if errors.Is(err, userstore.ErrNotFound) || errors.Is(err, profilestore.ErrNotFound) {
		return jsonresp.ErrDenied
	}
	return err
}

func joinSet(s roles.Set) string { return strings.Join(s.Strings(), ",") }

// internal/app/features/login/handler.go
package login

// Terminology: User Identifiers
//   - UserID / userID / user_id: the integer _id of the user record
//   - LoginID / loginID / login_id: the human-readable string users type to sign in

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/villahub/internal/app/store/audit"
	userstore "github.com/dalemusser/villahub/internal/app/store/users"
	"github.com/dalemusser/villahub/internal/app/system/auditlog"
	"github.com/dalemusser/villahub/internal/app/system/auth"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/inputval"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/app/system/metrics"
	"github.com/dalemusser/villahub/internal/app/system/ratelimit"
	"github.com/dalemusser/villahub/internal/app/system/timeouts"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/gorilla/csrf"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler signs users in with a login id and password.
type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	AuditLog   *auditlog.Logger
	Metrics    *metrics.Metrics
	Log        *zap.Logger
}

// NewHandler builds the login handler. limiter, audit and m may be nil.
func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter,
	audit *auditlog.Logger, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		AuditLog:   audit,
		Metrics:    m,
		Log:        logger,
	}
}

const invalidCredentials = "invalid login id or password"

type loginInput struct {
	LoginID  string `json:"login_id" validate:"notblank,max=200"`
	Password string `json:"password" validate:"required,max=128"`
}

type loginData struct {
	UserID   ident.ID `json:"user_id"`
	LoginID  string   `json:"login_id"`
	FullName string   `json:"full_name"`
	Redirect string   `json:"redirect"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeLogin hands out the CSRF nonce the sign-in form must echo back.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	_, signedIn := auth.CurrentUser(r)
	jsonresp.OK(w, struct {
		Nonce    string `json:"nonce"`
		SignedIn bool   `json:"signed_in"`
	}{csrf.Token(r), signedIn})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleLogin checks the credentials and starts a session. Unknown login
// ids, wrong passwords and disabled accounts all get the same 401 so the
// response does not reveal which accounts exist.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	in.LoginID = strings.TrimSpace(in.LoginID)
	if fe := inputval.Struct(in); fe != nil {
		jsonresp.Invalid(w, fe)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Limiter != nil {
		if ok, which := h.Limiter.Check(r, in.LoginID); !ok {
			h.Log.Warn("login rate limited", zap.String("login_id", in.LoginID), zap.String("limit", which))
			h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedRateLimit, ident.Zero, in.LoginID, "rate limited ("+which+")")
			h.Metrics.Login("rate_limited")
			jsonresp.Fail(w, http.StatusTooManyRequests, "too many sign-in attempts; try again later")
			return
		}
	}

	u, err := h.Users.GetByLoginID(ctx, in.LoginID)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserNotFound, ident.Zero, in.LoginID, "user not found")
		h.Metrics.Login("unknown_user")
		jsonresp.Fail(w, http.StatusUnauthorized, invalidCredentials)
		return
	case err != nil:
		jsonresp.Error(w, r, h.Log, err)
		return
	}

	if !userstore.CheckPassword(u, in.Password) {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedWrongPassword, u.ID, in.LoginID, "wrong password")
		h.Metrics.Login("wrong_password")
		jsonresp.Fail(w, http.StatusUnauthorized, invalidCredentials)
		return
	}
	if u.Status == models.UserStatusDisabled {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserDisabled, u.ID, in.LoginID, "account disabled")
		h.Metrics.Login("disabled")
		jsonresp.Fail(w, http.StatusUnauthorized, invalidCredentials)
		return
	}

	if err := h.SessionMgr.Login(w, r, u.ID); err != nil {
		h.Log.Error("save session", zap.Error(err), zap.Int64("user_id", int64(u.ID)))
		jsonresp.ServerError(w)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetLogin(in.LoginID)
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.LoginID)
	h.Metrics.Login("success")
	h.Log.Info("user signed in", zap.Int64("user_id", int64(u.ID)))

	jsonresp.OK(w, loginData{
		UserID:   u.ID,
		LoginID:  u.LoginID,
		FullName: u.FullName,
		Redirect: "/dashboard",
	})
}

// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/villahub/internal/app/system/auditlog"
	"github.com/dalemusser/villahub/internal/app/system/auth"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
	}
}

// HandleLogout handles POST /logout. Signing out without a session is not
// an error; the cookie is expired either way.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.Logout(r.Context(), r, u.ID)
	}

	if err := h.SessionMgr.Logout(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}

	jsonresp.OK(w, struct {
		Redirect string `json:"redirect"`
	}{"/login"})
}

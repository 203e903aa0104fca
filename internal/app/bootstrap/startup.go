// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/villahub/internal/app/store/audit"
	userstore "github.com/dalemusser/villahub/internal/app/store/users"
	"github.com/dalemusser/villahub/internal/app/system/auditlog"
	"github.com/dalemusser/villahub/internal/app/system/ratelimit"
	"github.com/dalemusser/villahub/internal/app/system/workers"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.SuperAdminEmail != "" {
		if err := ensureSuperAdmin(ctx, deps, appCfg.SuperAdminEmail, appCfg.SuperAdminPassword, newAuditLogger(deps, appCfg, logger), logger); err != nil {
			return fmt.Errorf("superadmin bootstrap: %w", err)
		}
	}

	if deps.Background != nil {
		ll := ratelimit.NewLoginLimiter(appCfg.LoginRateLimitIP, appCfg.LoginRateLimitAccount)
		deps.Background.LoginLimiter = ll
		deps.Background.Sweeper = workers.NewSweeper("login-limiter", time.Minute, ll.Sweep, logger)
		deps.Background.Sweeper.Start()
	}
	return nil
}

func newAuditLogger(deps DBDeps, appCfg AppConfig, logger *zap.Logger) *auditlog.Logger {
	return auditlog.New(audit.New(deps.VillaHubMongoDatabase), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
}

// ensureSuperAdmin makes sure the account with email exists and carries the
// administrator flag. An existing account is promoted; otherwise one is
// created with password, or a random one when password is blank.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email, password string, al *auditlog.Logger, logger *zap.Logger) error {
	users := userstore.New(deps.VillaHubMongoDatabase)
	email = strings.TrimSpace(email)

	u, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.IsSuperAdmin {
			logger.Debug("superadmin already present", zap.Int64("user_id", int64(u.ID)))
			return nil
		}
		if err := users.SetSuperAdmin(ctx, u.ID, true); err != nil {
			return err
		}
		logger.Info("promoted user to superadmin", zap.Int64("user_id", int64(u.ID)), zap.String("email", email))
		al.Admin(ctx, nil, audit.EventSuperAdminBootstrap, u.ID, u.ID, map[string]string{"action": "promoted"})
		return nil
	case !errors.Is(err, userstore.ErrNotFound):
		return err
	}

	generated := password == ""
	if generated {
		password = uuid.NewString()
	}
	created, err := users.Create(ctx, models.User{
		LoginID:  email,
		FullName: "Super Admin",
		Email:    email,
		Status:   models.UserStatusActive,
	}, password)
	if err != nil {
		return err
	}
	if err := users.SetSuperAdmin(ctx, created.ID, true); err != nil {
		return err
	}
	if generated {
		logger.Warn("created superadmin with a generated password; change it after first sign-in",
			zap.String("email", email), zap.String("password", password))
	} else {
		logger.Info("created superadmin", zap.String("email", email))
	}
	al.Admin(ctx, nil, audit.EventSuperAdminBootstrap, created.ID, created.ID, map[string]string{"action": "created"})
	return nil
}

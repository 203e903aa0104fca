// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/villahub/internal/domain/roles"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for VillaHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: VILLAHUB_MONGO_URI, VILLAHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "villa_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "villahub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session lifetime (e.g., 12h, 168h)"},
	{Name: "csrf_key", Default: "", Desc: "32+ char key for the CSRF nonce (blank: random per process, dev only)"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank logs mail instead of sending)"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@villa.example.com", Desc: "From email address"},
	{Name: "mail_from_name", Default: "Villa Community", Desc: "From display name"},

	{Name: "site_name", Default: "Villa Community", Desc: "Site name used in notifications"},
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for email links"},

	// SuperAdmin bootstrap
	{Name: "superadmin_email", Default: "", Desc: "Email of the superadmin user (promotes/creates on startup)"},
	{Name: "superadmin_password", Default: "", Desc: "Password for a newly created superadmin (blank: random, logged once)"},

	{Name: "admin_preview_roles", Default: "", Desc: "Comma-separated roles shown to a role-less super admin (debug)"},

	{Name: "login_rate_limit_ip", Default: 10, Desc: "Login attempts per minute per client IP"},
	{Name: "login_rate_limit_account", Default: 5, Desc: "Login attempts per five minutes per login id"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, VILLAHUB_* for app) and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "VILLAHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 24*time.Hour),
		CSRFKey:          appValues.String("csrf_key"),

		// Email/SMTP
		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		SiteName: appValues.String("site_name"),
		BaseURL:  strings.TrimRight(appValues.String("base_url"), "/"),

		// SuperAdmin
		SuperAdminEmail:    appValues.String("superadmin_email"),
		SuperAdminPassword: appValues.String("superadmin_password"),

		AdminPreviewRoles: appValues.String("admin_preview_roles"),

		LoginRateLimitIP:      appValues.Int("login_rate_limit_ip"),
		LoginRateLimitAccount: appValues.Int("login_rate_limit_account"),

		// Audit logging
		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),
	}

	return coreCfg, appCfg, nil
}

var auditModes = map[string]bool{"all": true, "db": true, "log": true, "off": true}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database is required")
	}
	if appCfg.CSRFKey != "" && len(appCfg.CSRFKey) < 32 {
		return fmt.Errorf("csrf_key must be at least 32 characters")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && appCfg.CSRFKey == "" {
		return fmt.Errorf("csrf_key is required in production")
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}
	for key, mode := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_admin": appCfg.AuditLogAdmin} {
		if !auditModes[mode] {
			return fmt.Errorf("%s must be one of all|db|log|off, got %q", key, mode)
		}
	}
	if preview := previewRoles(appCfg.AdminPreviewRoles); len(preview.Unknown) > 0 {
		return fmt.Errorf("admin_preview_roles has unknown roles: %s", strings.Join(preview.Unknown, ", "))
	}
	return nil
}

// previewRoles parses the comma-separated admin_preview_roles value.
func previewRoles(raw string) roles.Set {
	if strings.TrimSpace(raw) == "" {
		return roles.Set{}
	}
	return roles.ParseSet(strings.Split(raw, ",")...)
}

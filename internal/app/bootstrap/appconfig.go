// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS, body limits).
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: villahub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Session lifetime

	// CSRFKey signs the nonce the dashboard echoes back on every mutation.
	// Blank generates a random key per process (development only).
	CSRFKey string

	// Email/SMTP configuration. A blank host logs mail instead of sending.
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	SiteName string // Used in email subjects and bodies
	BaseURL  string // Base URL for email links (e.g., "https://villa.example.com")

	// SuperAdmin bootstrap
	SuperAdminEmail    string
	SuperAdminPassword string // Only used when the account is created

	// AdminPreviewRoles is a comma-separated role list shown to a super
	// admin who holds no community roles. Debug affordance; blank disables it.
	AdminPreviewRoles string

	// Login rate limits
	LoginRateLimitIP      int // attempts per minute per client IP
	LoginRateLimitAccount int // attempts per five minutes per login id

	// Audit logging
	AuditLogAuth  string // 'all' (db+log), 'db', 'log', or 'off'
	AuditLogAdmin string
}

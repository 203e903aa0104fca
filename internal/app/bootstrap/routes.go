// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	ajaxfeature "github.com/dalemusser/villahub/internal/app/features/ajax"
	announcementsfeature "github.com/dalemusser/villahub/internal/app/features/announcements"
	auditlogfeature "github.com/dalemusser/villahub/internal/app/features/auditlog"
	businessesfeature "github.com/dalemusser/villahub/internal/app/features/businesses"
	dashboardfeature "github.com/dalemusser/villahub/internal/app/features/dashboard"
	groupsfeature "github.com/dalemusser/villahub/internal/app/features/groups"
	healthfeature "github.com/dalemusser/villahub/internal/app/features/health"
	loginfeature "github.com/dalemusser/villahub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/villahub/internal/app/features/logout"
	profilefeature "github.com/dalemusser/villahub/internal/app/features/profile"
	propertiesfeature "github.com/dalemusser/villahub/internal/app/features/properties"
	ticketsfeature "github.com/dalemusser/villahub/internal/app/features/tickets"
	announcementstore "github.com/dalemusser/villahub/internal/app/store/announcements"
	"github.com/dalemusser/villahub/internal/app/store/audit"
	groupstore "github.com/dalemusser/villahub/internal/app/store/groups"
	profilestore "github.com/dalemusser/villahub/internal/app/store/profiles"
	propertystore "github.com/dalemusser/villahub/internal/app/store/properties"
	ticketstore "github.com/dalemusser/villahub/internal/app/store/tickets"
	userstore "github.com/dalemusser/villahub/internal/app/store/users"
	"github.com/dalemusser/villahub/internal/app/system/auth"
	"github.com/dalemusser/villahub/internal/app/system/authz"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/app/system/mailer"
	"github.com/dalemusser/villahub/internal/app/system/metrics"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// VillaHub applies request metrics and session middleware to everything,
// exposes /health and /metrics without CSRF, and mounts the JSON features
// behind the CSRF nonce check.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.VillaHubMongoDatabase
	prod := coreCfg.Env == "prod"

	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, prod, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fetch fresh user data on each request so disabled accounts and super
	// admin changes take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	m := deps.Metrics
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	auditLog := newAuditLogger(deps, appCfg, logger)
	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)

	preview := previewRoles(appCfg.AdminPreviewRoles)
	if !preview.IsEmpty() {
		logger.Warn("admin preview roles enabled", zap.Strings("roles", preview.Strings()))
	}
	profiles := profilestore.New(db)
	propertyIndex := propertystore.New(db)
	ticketIndex := ticketstore.New(db)
	az := authz.New(authz.Sources{
		Profiles:   profiles,
		Properties: propertyIndex,
		Tickets:    ticketIndex,
		Groups:     groupstore.New(db),
	}, m, preview, logger)

	csrfKey := []byte(appCfg.CSRFKey)
	if len(csrfKey) == 0 {
		logger.Warn("csrf_key not set; using a random per-process key")
		csrfKey = securecookie.GenerateRandomKey(32)
	}
	protect := csrf.Protect(csrfKey[:32],
		csrf.Secure(prod),
		csrf.Path("/"),
		csrf.CookieName("villahub-csrf"),
		csrf.FieldName("nonce"),
		csrf.RequestHeader("X-WP-Nonce"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("csrf check failed", zap.String("path", r.URL.Path), zap.Error(csrf.FailureReason(r)))
			jsonresp.Fail(w, http.StatusForbidden, "invalid or missing nonce")
		})),
	)
	// Outside prod the server runs over plain HTTP; csrf otherwise assumes
	// TLS and demands a same-origin Referer on every mutation.
	plaintext := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !prod && r.TLS == nil {
				r = csrf.PlaintextHTTPRequest(r)
			}
			next.ServeHTTP(w, r)
		})
	}

	propertiesHandler := propertiesfeature.NewHandler(db, az, auditLog, logger)
	groupsHandler := groupsfeature.NewHandler(db, az, mail, m, auditLog, appCfg.SiteName, appCfg.BaseURL, logger)
	announcementsHandler := announcementsfeature.NewHandler(announcementstore.New(db), profiles, az, logger)

	r := chi.NewRouter()
	r.Use(m.Middleware)

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.VillaHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", m.Handler())

	r.Group(func(r chi.Router) {
		r.Use(plaintext, protect)

		// Authentication
		loginHandler := loginfeature.NewHandler(db, sessionMgr, deps.Background.loginLimiter(), auditLog, m, logger)
		r.Mount("/login", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
		r.Mount("/logout", logoutfeature.Routes(logoutHandler))

		r.Group(func(r chi.Router) {
			r.Use(sessionMgr.RequireSignedIn)

			dashboardHandler := dashboardfeature.NewHandler(az, profiles, propertyIndex, ticketIndex, logger)
			r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler))

			r.Mount("/properties", propertiesfeature.Routes(propertiesHandler))

			ticketsHandler := ticketsfeature.NewHandler(db, az, m, auditLog, logger)
			r.Mount("/tickets", ticketsfeature.Routes(ticketsHandler))

			r.Mount("/groups", groupsfeature.Routes(groupsHandler))
			r.Route("/announcements", announcementsHandler.MountRoutes)

			profileHandler := profilefeature.NewHandler(db, az, auditLog, logger)
			r.Mount("/profile", profilefeature.Routes(profileHandler))

			businessesHandler := businessesfeature.NewHandler(db, az, auditLog, logger)
			r.Mount("/businesses", businessesfeature.Routes(businessesHandler))

			auditHandler := auditlogfeature.NewHandler(az, audit.New(db), userstore.New(db), logger)
			r.Mount("/audit", auditlogfeature.Routes(auditHandler))

			ajaxHandler := ajaxfeature.NewHandler(az, propertiesHandler, groupsHandler, announcementsHandler, logger)
			r.Mount("/ajax", ajaxfeature.Routes(ajaxHandler))
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonresp.Fail(w, http.StatusNotFound, "not found")
	})
	return r, nil
}

// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/villahub/internal/app/store/audit"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Config holds audit logging configuration. Each field is one of
// "all" (MongoDB + zap), "db", "log" or "off".
type Config struct {
	Auth  string
	Admin string
}

// Logger records audit events to MongoDB (via audit.Store) and zap.
// A nil *Logger is a no-op, which keeps handler tests simple.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.Int64("user_id", int64(*event.UserID)))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.Int64("actor_id", int64(*event.ActorID)))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to the category's setting.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := "all"
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	}
	setting = strings.ToLower(strings.TrimSpace(setting))
	if setting == "off" {
		return
	}
	if setting == "" || setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if setting == "" || setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func idp(id ident.ID) *ident.ID {
	if id.IsZero() {
		return nil
	}
	return &id
}

func request(r *http.Request, e audit.Event) audit.Event {
	if r != nil {
		e.IP = ratelimit.ClientIP(r)
		e.UserAgent = r.UserAgent()
	}
	return e
}

// --- Authentication events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID ident.ID, loginID string) {
	l.Log(ctx, request(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    idp(userID),
		Success:   true,
		Details:   map[string]string{"login_id": loginID},
	}))
}

// LoginFailed logs a failed login. userID is zero when the login id matched
// no account.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, eventType string, userID ident.ID, loginID, reason string) {
	l.Log(ctx, request(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		UserID:        idp(userID),
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"login_id": loginID},
	}))
}

// Logout logs a sign-out.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID ident.ID) {
	l.Log(ctx, request(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    idp(userID),
		Success:   true,
	}))
}

// --- Admin events ---

// Admin logs an administrative change made by actor to target's records.
// details carries event-specific values (property_id, from, to, ...).
func (l *Logger) Admin(ctx context.Context, r *http.Request, eventType string, actor, target ident.ID, details map[string]string) {
	l.Log(ctx, request(r, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		ActorID:   idp(actor),
		UserID:    idp(target),
		Success:   true,
		Details:   details,
	}))
}

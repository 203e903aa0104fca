// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
)

// SessionUser is the signed-in account as seen by handlers. It is rebuilt
// from storage on every request; the cookie carries only the id.
type SessionUser struct {
	ID           ident.ID
	Name         string
	LoginID      string
	Email        string
	IsSuperAdmin bool
}

// UserFetcher loads the current state of a user. It returns nil when the
// user no longer exists or may not sign in.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID ident.ID) *SessionUser
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// SessionManager owns the cookie store and the session middleware.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	fetcher UserFetcher
	log     *zap.Logger
}

// NewSessionManager creates a manager backed by a signed cookie store.
// secure marks cookies Secure (production over HTTPS).
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide at least 32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended", zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "villahub-session"
	}
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	logger.Info("session store initialized", zap.Bool("secure", secure), zap.String("domain", domain))
	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetUserFetcher installs the per-request user lookup.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) { sm.fetcher = f }

// Login marks the session authenticated for userID.
func (sm *SessionManager) Login(w http.ResponseWriter, r *http.Request, userID ident.ID) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = int64(userID)
	return sess.Save(r, w)
}

// Logout expires the session cookie.
func (sm *SessionManager) Logout(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// LoadSessionUser puts the signed-in user into the request context. A
// session whose user cannot be fetched is treated as signed out.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.store.Get(r, sm.name)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
			next.ServeHTTP(w, r)
			return
		}
		uid, ok := ident.Parse(sess.Values[userIDKey])
		if !ok {
			sm.log.Warn("session carries an invalid user id")
			next.ServeHTTP(w, r)
			return
		}
		if sm.fetcher == nil {
			next.ServeHTTP(w, withUser(r, &SessionUser{ID: uid}))
			return
		}
		u := sm.fetcher.FetchUser(r.Context(), uid)
		if u == nil {
			sm.log.Debug("session user unavailable", zap.Int64("user_id", int64(uid)))
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, withUser(r, u))
	})
}

// RequireSignedIn rejects requests without a session user with a JSON 401.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			jsonresp.Unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CurrentUser returns the user loaded by LoadSessionUser.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser injects u as the current user. Tests only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

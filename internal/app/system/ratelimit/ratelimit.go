// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter is a fixed-window counter per key. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit hits per key in each period.
func New(limit int, period time.Duration) *Limiter {
	return &Limiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.period)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many hits key has left in its current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || l.now().After(w.expiresAt) {
		return l.limit
	}
	if left := l.limit - w.count; left > 0 {
		return left
	}
	return 0
}

// Reset forgets key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Sweep drops expired windows.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, w := range l.windows {
		if now.After(w.expiresAt) {
			delete(l.windows, key)
		}
	}
}

// ClientIP extracts the client IP: first X-Forwarded-For entry, then
// X-Real-IP, then RemoteAddr without its port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter limits sign-in attempts both per client IP and per login id,
// so neither one noisy address nor a spread-out attack on one account gets
// unlimited guesses.
type LoginLimiter struct {
	ip    *Limiter
	login *Limiter
}

// NewLoginLimiter allows perIP attempts per minute from one address and
// perLogin attempts per five minutes against one login id.
func NewLoginLimiter(perIP, perLogin int) *LoginLimiter {
	if perIP <= 0 {
		perIP = 10
	}
	if perLogin <= 0 {
		perLogin = 5
	}
	return &LoginLimiter{
		ip:    New(perIP, time.Minute),
		login: New(perLogin, 5*time.Minute),
	}
}

func loginKey(loginID string) string {
	return strings.ToLower(strings.TrimSpace(loginID))
}

// Check records an attempt. When blocked it returns false and the limit that
// tripped ("ip" or "login").
func (ll *LoginLimiter) Check(r *http.Request, loginID string) (bool, string) {
	if !ll.ip.Allow(ClientIP(r)) {
		return false, "ip"
	}
	if key := loginKey(loginID); key != "" && !ll.login.Allow(key) {
		return false, "login"
	}
	return true, ""
}

// ResetLogin clears the per-account counter after a successful sign-in.
func (ll *LoginLimiter) ResetLogin(loginID string) {
	if key := loginKey(loginID); key != "" {
		ll.login.Reset(key)
	}
}

// Sweep drops expired windows from both limiters.
func (ll *LoginLimiter) Sweep() {
	ll.ip.Sweep()
	ll.login.Sweep()
}

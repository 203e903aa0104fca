package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dalemusser/villahub/internal/app/system/auth"
	"github.com/dalemusser/villahub/internal/domain/models"
)

// WithUser adds u to the request context as the signed-in user.
// This bypasses the session middleware and injects the user directly.
func WithUser(r *http.Request, u models.User) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:           u.ID,
		Name:         u.FullName,
		LoginID:      u.LoginID,
		Email:        u.Email,
		IsSuperAdmin: u.IsSuperAdmin,
	})
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewAuthenticatedRequest creates an HTTP request with u signed in.
func NewAuthenticatedRequest(method, target string, u models.User) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), u)
}

// NewJSONRequest creates a request whose body is v encoded as JSON.
func NewJSONRequest(method, target string, v any) *http.Request {
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			panic(err)
		}
		body = strings.NewReader(string(b))
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewFormRequest creates a form-encoded POST, the shape the ajax endpoints
// take.
func NewFormRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks that the response has the expected status code.
func (r *ResponseRecorder) AssertStatus(t testing.TB, expected int) {
	t.Helper()
	if r.Code != expected {
		t.Errorf("expected status %d, got %d (body: %s)", expected, r.Code, r.Body.String())
	}
}

// Envelope is the decoded {success, data} response body.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// DecodeEnvelope decodes the response body and, when data is non-nil, the
// envelope's data member into it.
func (r *ResponseRecorder) DecodeEnvelope(t testing.TB, data any) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(r.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body: %s)", err, r.Body.String())
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode data: %v (data: %s)", err, string(env.Data))
		}
	}
	return env
}

// AssertDenied checks for the uniform 403 "access denied" response.
func (r *ResponseRecorder) AssertDenied(t testing.TB) {
	t.Helper()
	r.AssertStatus(t, http.StatusForbidden)
	var msg struct {
		Message string `json:"message"`
	}
	env := r.DecodeEnvelope(t, &msg)
	if env.Success || msg.Message != "access denied" {
		t.Errorf("expected access denied envelope, got %s", r.Body.String())
	}
}

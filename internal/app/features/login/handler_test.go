package login_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/villahub/internal/app/features/login"
	"github.com/dalemusser/villahub/internal/app/system/auth"
	"github.com/dalemusser/villahub/internal/app/system/metrics"
	"github.com/dalemusser/villahub/internal/app/system/ratelimit"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/villahub/internal/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, limiter *ratelimit.LoginLimiter) (*login.Handler, *testutil.Fixtures, *metrics.Metrics) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only-32", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	m := metrics.NewMetrics(nil)
	return login.NewHandler(db, sessionMgr, limiter, nil, m, logger), testutil.NewFixtures(t, db), m
}

func post(h *login.Handler, loginID, password string) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	req := testutil.NewJSONRequest(http.MethodPost, "/login", map[string]string{"login_id": loginID, "password": password})
	h.HandleLogin(rec, req)
	return rec
}

func hasSessionCookie(rec *testutil.ResponseRecorder) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.MaxAge >= 0 {
			return true
		}
	}
	return false
}

func TestHandleLogin_Success(t *testing.T) {
	h, fx, m := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "resident")

	rec := post(h, " RESIDENT ", "password")
	rec.AssertStatus(t, http.StatusOK)

	var data struct {
		UserID   int64  `json:"user_id"`
		Redirect string `json:"redirect"`
	}
	rec.DecodeEnvelope(t, &data)
	if data.UserID != int64(u.ID) || data.Redirect != "/dashboard" {
		t.Errorf("unexpected payload: %+v", data)
	}
	if !hasSessionCookie(rec) {
		t.Error("expected session cookie to be set")
	}
	if got := promtest.ToFloat64(m.LoginAttempts.WithLabelValues("success")); got != 1 {
		t.Errorf("success counter = %v", got)
	}
}

func TestHandleLogin_FailuresLookAlike(t *testing.T) {
	h, fx, m := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateUser(ctx, "resident")
	gone := fx.CreateUser(ctx, "gone")
	if _, err := fx.DB().Collection("users").UpdateOne(ctx,
		bson.M{"_id": int64(gone.ID)},
		bson.M{"$set": bson.M{"status": models.UserStatusDisabled}}); err != nil {
		t.Fatalf("disable user: %v", err)
	}

	cases := []struct {
		name, login, password, result string
	}{
		{"wrong password", "resident", "nope", "wrong_password"},
		{"unknown user", "nobody", "password", "unknown_user"},
		{"disabled", "gone", "password", "disabled"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := post(h, tc.login, tc.password)
			rec.AssertStatus(t, http.StatusUnauthorized)

			var msg struct {
				Message string `json:"message"`
			}
			rec.DecodeEnvelope(t, &msg)
			if msg.Message != "invalid login id or password" {
				t.Errorf("message = %q", msg.Message)
			}
			if hasSessionCookie(rec) {
				t.Error("no session cookie expected on failure")
			}
			if got := promtest.ToFloat64(m.LoginAttempts.WithLabelValues(tc.result)); got != 1 {
				t.Errorf("%s counter = %v", tc.result, got)
			}
		})
	}
}

func TestHandleLogin_Validation(t *testing.T) {
	h, _, _ := newTestHandler(t, nil)

	post(h, "", "password").AssertStatus(t, http.StatusBadRequest)
	post(h, "resident", "").AssertStatus(t, http.StatusBadRequest)
}

func TestHandleLogin_RateLimited(t *testing.T) {
	h, fx, _ := newTestHandler(t, ratelimit.NewLoginLimiter(100, 2))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateUser(ctx, "resident")

	post(h, "resident", "nope").AssertStatus(t, http.StatusUnauthorized)
	post(h, "resident", "nope").AssertStatus(t, http.StatusUnauthorized)
	post(h, "resident", "password").AssertStatus(t, http.StatusTooManyRequests)
}

func TestHandleLogin_SuccessResetsAccountLimit(t *testing.T) {
	h, fx, _ := newTestHandler(t, ratelimit.NewLoginLimiter(100, 2))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateUser(ctx, "resident")

	post(h, "resident", "nope").AssertStatus(t, http.StatusUnauthorized)
	post(h, "resident", "password").AssertStatus(t, http.StatusOK)
	post(h, "resident", "nope").AssertStatus(t, http.StatusUnauthorized)
	post(h, "resident", "password").AssertStatus(t, http.StatusOK)
}

func TestServeLogin_ReportsSessionState(t *testing.T) {
	h, _, _ := newTestHandler(t, nil)

	rec := testutil.NewRecorder()
	h.ServeLogin(rec, testutil.NewRequest(http.MethodGet, "/login"))
	rec.AssertStatus(t, http.StatusOK)

	var data struct {
		SignedIn bool `json:"signed_in"`
	}
	rec.DecodeEnvelope(t, &data)
	if data.SignedIn {
		t.Error("anonymous request reported as signed in")
	}
}

package health_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/villahub/internal/app/features/health"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context, *readpref.ReadPref) error { return f.err }

func TestServe_OK(t *testing.T) {
	h := &health.Handler{Client: fakePinger{}, Log: zap.NewNop()}

	rec := httptest.NewRecorder()
	h.Serve(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestServe_DatabaseDown(t *testing.T) {
	h := &health.Handler{Client: fakePinger{err: errors.New("no reachable servers")}, Log: zap.NewNop()}

	rec := httptest.NewRecorder()
	h.Serve(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

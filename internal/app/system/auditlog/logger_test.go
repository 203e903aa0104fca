package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/villahub/internal/app/store/audit"
	"github.com/dalemusser/villahub/internal/app/system/auditlog"
	"github.com/dalemusser/villahub/internal/testutil"
	"go.uber.org/zap"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, 1, "someone")
	logger.Logout(ctx, req, 1)
	logger.Admin(ctx, req, audit.EventRolesChanged, 1, 2, nil)
}

func TestLogger_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "off", Admin: "off"})
	logger.LoginSuccess(ctx, httptest.NewRequest("POST", "/login", nil), 5, "pat")

	n, err := store.CountByFilter(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no events when config is off, got %d", n)
	}
}

func TestLogger_AdminEventStored(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "log", Admin: "db"})
	req := httptest.NewRequest("POST", "/ajax/villa_delete_property", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	logger.Admin(ctx, req, audit.EventPropertyDeleted, 42, 42, map[string]string{"property_id": "101"})
	logger.LoginSuccess(ctx, req, 42, "owner42")

	events, err := store.Query(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected only the admin event in the database, got %d", len(events))
	}
	e := events[0]
	if e.EventType != audit.EventPropertyDeleted || e.IP != "203.0.113.9" || e.Details["property_id"] != "101" {
		t.Errorf("unexpected event %+v", e)
	}
	if e.ActorID == nil || *e.ActorID != 42 {
		t.Errorf("actor id not recorded: %+v", e.ActorID)
	}
}

package auditlog_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/villahub/internal/app/features/auditlog"
	"github.com/dalemusser/villahub/internal/app/store/audit"
	userstore "github.com/dalemusser/villahub/internal/app/store/users"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/domain/roles"
	"github.com/dalemusser/villahub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type item struct {
	EventType  string   `json:"event_type"`
	Category   string   `json:"category"`
	ActorID    ident.ID `json:"actor_id"`
	ActorName  string   `json:"actor_name"`
	TargetName string   `json:"target_name"`
}

type page struct {
	Items      []item   `json:"items"`
	Total      int64    `json:"total"`
	TotalPages int      `json:"total_pages"`
	EventTypes []string `json:"event_types"`
	HasNext    bool     `json:"has_next"`
}

func newHandler(db *mongo.Database) *auditlog.Handler {
	return auditlog.NewHandler(testutil.NewAuthorizer(db), audit.New(db), userstore.New(db), zap.NewNop())
}

func seed(t *testing.T, db *mongo.Database, actor, target ident.ID) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := audit.New(db)
	now := time.Now().UTC()
	events := []audit.Event{
		{Timestamp: now.Add(-2 * time.Hour), Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, UserID: &target, Success: true},
		{Timestamp: now.Add(-time.Hour), Category: audit.CategoryAdmin, EventType: audit.EventRolesChanged, ActorID: &actor, UserID: &target, Success: true,
			Details: map[string]string{"from": "", "to": "owner"}},
		{Timestamp: now, Category: audit.CategoryAuth, EventType: audit.EventLogout, UserID: &target, Success: true},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("log event: %v", err)
		}
	}
}

func TestServeList_SuperAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateSuperAdmin(ctx, "admin")
	owner := fx.CreateUser(ctx, "owner")
	seed(t, db, admin.ID, owner.ID)

	h := newHandler(db)

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/audit", admin))
	rec.AssertStatus(t, http.StatusOK)
	var p page
	rec.DecodeEnvelope(t, &p)
	if p.Total != 3 || len(p.Items) != 3 || p.TotalPages != 1 || p.HasNext {
		t.Fatalf("unexpected page: %+v", p)
	}
	if p.Items[0].EventType != audit.EventLogout {
		t.Errorf("expected newest first, got %q", p.Items[0].EventType)
	}
	roleChange := p.Items[1]
	if roleChange.ActorID != admin.ID || roleChange.ActorName != admin.FullName || roleChange.TargetName != owner.FullName {
		t.Errorf("names not resolved: %+v", roleChange)
	}
}

func TestServeList_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateSuperAdmin(ctx, "admin")
	owner := fx.CreateUser(ctx, "owner")
	seed(t, db, admin.ID, owner.ID)

	h := newHandler(db)

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/audit?category=auth", admin))
	rec.AssertStatus(t, http.StatusOK)
	var p page
	rec.DecodeEnvelope(t, &p)
	if p.Total != 2 {
		t.Errorf("auth events = %d, want 2", p.Total)
	}
	for _, it := range p.Items {
		if it.Category != audit.CategoryAuth {
			t.Errorf("unexpected category %q", it.Category)
		}
	}
	if len(p.EventTypes) == 0 {
		t.Error("expected event type options for the category")
	}

	rec = testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/audit?category=admin&event_type=roles_changed", admin))
	rec.AssertStatus(t, http.StatusOK)
	p = page{}
	rec.DecodeEnvelope(t, &p)
	if p.Total != 1 || p.Items[0].EventType != audit.EventRolesChanged {
		t.Errorf("unexpected admin page: %+v", p)
	}

	rec = testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/audit?page=5", admin))
	rec.AssertStatus(t, http.StatusOK)
	p = page{}
	rec.DecodeEnvelope(t, &p)
	if len(p.Items) != 0 || p.Total != 3 {
		t.Errorf("expected an empty page past the end, got %+v", p)
	}
}

func TestServeList_InvalidFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateSuperAdmin(ctx, "admin")
	h := newHandler(db)

	for _, target := range []string{
		"/audit?category=security",
		"/audit?category=auth&event_type=roles_changed",
		"/audit?start_date=yesterday",
		"/audit?user_id=abc",
	} {
		rec := testutil.NewRecorder()
		h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, target, admin))
		rec.AssertStatus(t, http.StatusBadRequest)
	}
}

func TestServeList_DeniedToMembers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	board := fx.CreateUser(ctx, "board")
	fx.GiveRoles(ctx, board.ID, []roles.Role{roles.BoardMember})

	h := newHandler(db)

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/audit", board))
	rec.AssertDenied(t)

	rec = testutil.NewRecorder()
	h.ServeList(rec, testutil.NewRequest(http.MethodGet, "/audit"))
	rec.AssertDenied(t)
}

package profile_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/villahub/internal/app/features/profile"
	profilestore "github.com/dalemusser/villahub/internal/app/store/profiles"
	userstore "github.com/dalemusser/villahub/internal/app/store/users"
	"github.com/dalemusser/villahub/internal/domain/roles"
	"github.com/dalemusser/villahub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandler(db *mongo.Database) *profile.Handler {
	return profile.NewHandler(db, testutil.NewAuthorizer(db), nil, zap.NewNop())
}

func TestServeProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "owner")
	fx.GiveRoles(ctx, owner.ID, []roles.Role{roles.Owner})
	roleless := fx.CreateUser(ctx, "nobody")

	h := newHandler(db)

	rec := testutil.NewRecorder()
	h.ServeProfile(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/profile", owner))
	rec.AssertStatus(t, http.StatusOK)
	var v profile.View
	rec.DecodeEnvelope(t, &v)
	if v.UserID != owner.ID || v.LoginID != "owner" || !v.Roles.Has(roles.Owner) {
		t.Fatalf("unexpected profile: %+v", v)
	}

	rec = testutil.NewRecorder()
	h.ServeProfile(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/profile", roleless))
	rec.AssertDenied(t)

	rec = testutil.NewRecorder()
	h.ServeProfile(rec, testutil.NewRequest(http.MethodGet, "/profile"))
	rec.AssertDenied(t)
}

func TestHandleUpdateContact(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "owner")
	fx.GiveRoles(ctx, owner.ID, []roles.Role{roles.Owner})

	h := newHandler(db)
	body := map[string]any{
		"phone":   " 555-0100 ",
		"address": map[string]string{"street": "1 Palm Way", "city": "Villa", "zip": "00001"},
		"roles":   []string{"board_member"},
	}
	rec := testutil.NewRecorder()
	h.HandleUpdateContact(rec, testutil.WithUser(testutil.NewJSONRequest(http.MethodPut, "/profile/contact", body), owner))
	rec.AssertStatus(t, http.StatusOK)

	p, err := profilestore.New(db).Get(ctx, owner.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.Phone != "555-0100" || p.Address.Street != "1 Palm Way" {
		t.Errorf("contact not stored: %+v", p)
	}
	if p.EffectiveRoles().Has(roles.BoardMember) {
		t.Error("self-service update must not change roles")
	}
}

func TestHandleChangePassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "resident")
	h := newHandler(db)

	rec := testutil.NewRecorder()
	wrong := map[string]string{"current_password": "nope", "new_password": "newpassword1"}
	h.HandleChangePassword(rec, testutil.WithUser(testutil.NewJSONRequest(http.MethodPut, "/profile/password", wrong), u))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	good := map[string]string{"current_password": "password", "new_password": "newpassword1"}
	h.HandleChangePassword(rec, testutil.WithUser(testutil.NewJSONRequest(http.MethodPut, "/profile/password", good), u))
	rec.AssertStatus(t, http.StatusOK)

	stored, err := userstore.New(db).GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !userstore.CheckPassword(stored, "newpassword1") || userstore.CheckPassword(stored, "password") {
		t.Error("password was not replaced")
	}
}

func TestHandleSetRoles_AdminOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateSuperAdmin(ctx, "admin")
	board := fx.CreateUser(ctx, "board")
	fx.GiveRoles(ctx, board.ID, []roles.Role{roles.BoardMember})
	target := fx.CreateUser(ctx, "resident")

	h := newHandler(db)
	body := map[string]any{"roles": []string{"owner", "bod"}}

	rec := testutil.NewRecorder()
	req := testutil.WithChiURLParam(testutil.NewJSONRequest(http.MethodPut, "/profile/x/roles", body), "id", target.ID.String())
	h.HandleSetRoles(rec, testutil.WithUser(req, board))
	rec.AssertDenied(t)

	rec = testutil.NewRecorder()
	req = testutil.WithChiURLParam(testutil.NewJSONRequest(http.MethodPut, "/profile/x/roles", body), "id", target.ID.String())
	h.HandleSetRoles(rec, testutil.WithUser(req, admin))
	rec.AssertStatus(t, http.StatusOK)

	held, err := profilestore.New(db).GetRoles(ctx, target.ID)
	if err != nil {
		t.Fatalf("get roles: %v", err)
	}
	if got := held.Strings(); len(got) != 2 || got[0] != "owner" || got[1] != "board_member" {
		t.Errorf("roles = %v", got)
	}

	rec = testutil.NewRecorder()
	bad := map[string]any{"roles": []string{"wizard"}}
	req = testutil.WithChiURLParam(testutil.NewJSONRequest(http.MethodPut, "/profile/x/roles", bad), "id", target.ID.String())
	h.HandleSetRoles(rec, testutil.WithUser(req, admin))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	req = testutil.WithChiURLParam(testutil.NewJSONRequest(http.MethodPut, "/profile/x/roles", body), "id", "999999")
	h.HandleSetRoles(rec, testutil.WithUser(req, admin))
	rec.AssertDenied(t)
}

func TestHandleSetCapabilities(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateSuperAdmin(ctx, "admin")
	staff := fx.CreateUser(ctx, "staff")
	fx.GiveRoles(ctx, staff.ID, []roles.Role{roles.Staff})

	h := newHandler(db)
	body := map[string]any{"capabilities": []string{"manage_tickets", "MANAGE_TICKETS"}}
	rec := testutil.NewRecorder()
	req := testutil.WithChiURLParam(testutil.NewJSONRequest(http.MethodPut, "/profile/x/capabilities", body), "id", staff.ID.String())
	h.HandleSetCapabilities(rec, testutil.WithUser(req, admin))
	rec.AssertStatus(t, http.StatusOK)

	var v profile.View
	rec.DecodeEnvelope(t, &v)
	if len(v.Capabilities) != 1 || v.Capabilities[0] != "manage_tickets" {
		t.Errorf("capabilities = %v", v.Capabilities)
	}
}

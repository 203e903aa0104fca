package bootstrap

import (
	"strings"
	"testing"

	userstore "github.com/dalemusser/villahub/internal/app/store/users"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/villahub/internal/domain/roles"
	"github.com/dalemusser/villahub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestEnsureSuperAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{VillaHubMongoDatabase: db}

	if err := ensureSuperAdmin(ctx, deps, "superadmin@test.com", "s3cret-password", nil, testLogger()); err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"email": "superadmin@test.com"}).Decode(&user); err != nil {
		t.Fatalf("failed to find created user: %v", err)
	}
	if !user.IsSuperAdmin {
		t.Error("expected is_super_admin to be set")
	}
	if user.Status != models.UserStatusActive {
		t.Errorf("expected status 'active', got %q", user.Status)
	}
	if !userstore.CheckPassword(&user, "s3cret-password") {
		t.Error("configured password should sign in")
	}
}

func TestEnsureSuperAdmin_GeneratedPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{VillaHubMongoDatabase: db}
	if err := ensureSuperAdmin(ctx, deps, "root@test.com", "", nil, testLogger()); err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"email": "root@test.com"}).Decode(&user); err != nil {
		t.Fatalf("failed to find created user: %v", err)
	}
	if user.PasswordHash == "" {
		t.Error("expected a generated password hash")
	}
}

func TestEnsureSuperAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	existing := fx.CreateUser(ctx, "existing")
	deps := DBDeps{VillaHubMongoDatabase: db}

	if err := ensureSuperAdmin(ctx, deps, existing.Email, "", nil, testLogger()); err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": int64(existing.ID)}).Decode(&user); err != nil {
		t.Fatalf("failed to find user: %v", err)
	}
	if !user.IsSuperAdmin {
		t.Error("expected existing user to be promoted")
	}
	if !userstore.CheckPassword(&user, "password") {
		t.Error("promotion must not touch the password")
	}

	n, err := db.Collection("users").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if n != 1 {
		t.Errorf("expected no new user, found %d", n)
	}
}

func TestEnsureSuperAdmin_AlreadySuperAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateSuperAdmin(ctx, "admin")
	deps := DBDeps{VillaHubMongoDatabase: db}

	if err := ensureSuperAdmin(ctx, deps, admin.Email, "", nil, testLogger()); err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": int64(admin.ID)}).Decode(&user); err != nil {
		t.Fatalf("failed to find user: %v", err)
	}
	if !user.IsSuperAdmin {
		t.Error("expected super admin flag to remain set")
	}
	n, err := db.Collection("users").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if n != 1 {
		t.Errorf("expected no new user, found %d", n)
	}
}

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:         "mongodb://localhost:27017",
		MongoDatabase:    "villa_hub",
		MongoMaxPoolSize: 100,
		MongoMinPoolSize: 5,
		AuditLogAuth:     "all",
		AuditLogAdmin:    "db",
	}
}

func TestValidateConfig(t *testing.T) {
	dev := &config.CoreConfig{Env: "dev"}
	prod := &config.CoreConfig{Env: "prod"}

	tests := []struct {
		name    string
		core    *config.CoreConfig
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", dev, func(*AppConfig) {}, ""},
		{"no database", dev, func(c *AppConfig) { c.MongoDatabase = "" }, "mongo_database"},
		{"short csrf key", dev, func(c *AppConfig) { c.CSRFKey = "short" }, "csrf_key"},
		{"prod needs csrf key", prod, func(*AppConfig) {}, "csrf_key"},
		{"prod with csrf key", prod, func(c *AppConfig) { c.CSRFKey = strings.Repeat("k", 32) }, ""},
		{"pool sizes", dev, func(c *AppConfig) { c.MongoMinPoolSize = 200 }, "mongo_min_pool_size"},
		{"audit mode", dev, func(c *AppConfig) { c.AuditLogAdmin = "sometimes" }, "audit_log_admin"},
		{"preview roles", dev, func(c *AppConfig) { c.AdminPreviewRoles = "owner, wizard" }, "wizard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAppConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(tt.core, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestPreviewRoles(t *testing.T) {
	if got := previewRoles("  "); !got.IsEmpty() {
		t.Errorf("blank value should give no roles, got %v", got)
	}
	got := previewRoles("owner, bod")
	if !got.Equal(roles.NewSet(roles.Owner, roles.BoardMember)) {
		t.Errorf("previewRoles = %v", got)
	}
}

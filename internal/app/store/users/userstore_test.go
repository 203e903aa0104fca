package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/dalemusser/villahub/internal/app/store/users"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/villahub/internal/testutil"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		LoginID:  "Jane.Doe",
		FullName: "  Jane   Doe ",
		Email:    "JANE@example.com",
	}, "s3cret-pass")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID.IsZero() {
		t.Error("expected ID to be assigned")
	}
	if created.FullName != "Jane Doe" {
		t.Errorf("FullName = %q", created.FullName)
	}
	if created.Email != "jane@example.com" {
		t.Errorf("Email = %q", created.Email)
	}
	if created.Status != models.UserStatusActive {
		t.Errorf("expected status active, got %q", created.Status)
	}
	if !userstore.CheckPassword(&created, "s3cret-pass") {
		t.Error("password should verify")
	}
	if userstore.CheckPassword(&created, "wrong") {
		t.Error("wrong password should not verify")
	}

	got, err := store.GetByLoginID(ctx, "jane.doe")
	if err != nil {
		t.Fatalf("GetByLoginID failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("expected id %d, got %d", created.ID, got.ID)
	}
}

func TestStore_Create_DuplicateLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.EnsureIndexes(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{LoginID: "sam"}, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.User{LoginID: "SAM"}, "")
	if !errors.Is(err, userstore.ErrDuplicateLogin) {
		t.Fatalf("expected ErrDuplicateLogin, got %v", err)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, 999); !errors.Is(err, userstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFetcher_SkipsDisabledUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "dana")
	f := userstore.NewFetcher(db)

	su := f.FetchUser(ctx, u.ID)
	if su == nil || su.ID != u.ID {
		t.Fatalf("expected session user for %d, got %+v", u.ID, su)
	}

	if err := store.SetStatus(ctx, u.ID, models.UserStatusDisabled); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if su := f.FetchUser(ctx, u.ID); su != nil {
		t.Errorf("disabled user should not load, got %+v", su)
	}
}

func TestNamesByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateUser(ctx, "ann")
	names, err := store.NamesByID(ctx, []ident.ID{a.ID, 9999})
	if err != nil {
		t.Fatalf("NamesByID failed: %v", err)
	}
	if names[a.ID] != "Test ann" {
		t.Errorf("name = %q", names[a.ID])
	}
	if _, ok := names[9999]; ok {
		t.Error("missing users should not appear")
	}
}

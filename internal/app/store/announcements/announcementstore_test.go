package announcementstore_test

import (
	"errors"
	"testing"
	"time"

	announcementstore "github.com/dalemusser/villahub/internal/app/store/announcements"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/villahub/internal/domain/roles"
	"github.com/dalemusser/villahub/internal/testutil"
)

func TestListRecent_NewestFirstAndSkipsScheduled(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := announcementstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	old, _ := store.Create(ctx, models.Announcement{Title: "old", PublishedAt: now.Add(-2 * time.Hour)})
	recent, _ := store.Create(ctx, models.Announcement{Title: "recent", PublishedAt: now.Add(-time.Minute), TargetRoles: roles.NewSet(roles.BoardMember)})
	_, _ = store.Create(ctx, models.Announcement{Title: "scheduled", PublishedAt: now.Add(time.Hour)})

	got, err := store.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != recent.ID || got[1].ID != old.ID {
		t.Fatalf("unexpected order: %+v", got)
	}
	if !got[0].TargetRoles.Has(roles.BoardMember) {
		t.Error("target roles should round-trip")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := announcementstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, 12345); !errors.Is(err, announcementstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

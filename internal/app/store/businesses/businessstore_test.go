package businessstore_test

import (
	"errors"
	"testing"

	businessstore "github.com/dalemusser/villahub/internal/app/store/businesses"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/villahub/internal/testutil"
)

func TestLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := businessstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	b, err := store.Create(ctx, models.Business{AuthorID: 6, Name: " Sunny Bakery "})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if b.Status != models.BusinessDraft {
		t.Errorf("new listing status = %q, want draft", b.Status)
	}
	if b.Name != "Sunny Bakery" {
		t.Errorf("name not trimmed: %q", b.Name)
	}

	if err := store.SetStatus(ctx, b.ID, models.BusinessPending); err != nil {
		t.Fatalf("SetStatus pending: %v", err)
	}
	if err := store.SetStatus(ctx, b.ID, models.BusinessPublish); err != nil {
		t.Fatalf("SetStatus publish: %v", err)
	}
	if err := store.SetStatus(ctx, b.ID, "archived"); !errors.Is(err, businessstore.ErrBadStatus) {
		t.Errorf("expected ErrBadStatus, got %v", err)
	}

	published, err := store.ListByStatus(ctx, models.BusinessPublish)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(published) != 1 || published[0].ID != b.ID {
		t.Errorf("expected the listing to be published, got %+v", published)
	}

	mine, err := store.ListByAuthor(ctx, 6)
	if err != nil {
		t.Fatalf("ListByAuthor: %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("expected 1 listing for author 6, got %d", len(mine))
	}

	if err := store.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetByID(ctx, b.ID); !errors.Is(err, businessstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

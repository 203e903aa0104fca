package counterstore_test

import (
	"testing"

	counterstore "github.com/dalemusser/villahub/internal/app/store/counters"
	"github.com/dalemusser/villahub/internal/testutil"
)

func TestNext_Increments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counterstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, err := store.Next(ctx, counterstore.Tickets)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	second, err := store.Next(ctx, counterstore.Tickets)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if first != 1 || second != 2 {
		t.Errorf("expected 1, 2; got %d, %d", first, second)
	}

	other, err := store.Next(ctx, counterstore.Groups)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if other != 1 {
		t.Errorf("sequences should be independent, got %d", other)
	}
}

func TestAtLeast(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counterstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.AtLeast(ctx, counterstore.Properties, 500); err != nil {
		t.Fatalf("AtLeast failed: %v", err)
	}
	// A lower floor must not move the sequence back.
	if err := store.AtLeast(ctx, counterstore.Properties, 10); err != nil {
		t.Fatalf("AtLeast failed: %v", err)
	}
	next, err := store.Next(ctx, counterstore.Properties)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if next != 501 {
		t.Errorf("expected 501, got %d", next)
	}
}

package indexes_test

import (
	"testing"

	"github.com/dalemusser/villahub/internal/app/system/indexes"
	"github.com/dalemusser/villahub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesOwnershipIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	want := map[string]string{
		"properties": "idx_properties_owner_ids",
		"groups":     "idx_groups_members_user",
		"users":      "uniq_users_login_id_ci",
		"tickets":    "idx_tickets_property_status",
	}
	for coll, name := range want {
		cur, err := db.Collection(coll).Indexes().List(ctx)
		if err != nil {
			t.Fatalf("list %s indexes: %v", coll, err)
		}
		found := false
		for cur.Next(ctx) {
			var idx bson.M
			if err := cur.Decode(&idx); err != nil {
				continue
			}
			if idx["name"] == name {
				found = true
			}
		}
		cur.Close(ctx)
		if !found {
			t.Errorf("%s: index %q not found", coll, name)
		}
	}
}

func TestEnsureAll_RenamesMismatchedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coll := db.Collection("properties")
	if _, err := coll.Indexes().CreateOne(ctx, mongoIndex("owner_ids", "old_owner_idx")); err != nil {
		t.Fatalf("seed index: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx bson.M
		_ = cur.Decode(&idx)
		if idx["name"] == "old_owner_idx" {
			t.Fatalf("old index name should have been replaced")
		}
	}
}

// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Problems are aggregated so every broken collection shows up in one error.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	steps := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"profiles", ensureProfiles},
		{"properties", ensureProperties},
		{"businesses", ensureBusinesses},
		{"tickets", ensureTickets},
		{"groups", ensureGroups},
		{"announcements", ensureAnnouncements},
	}

	var problems []string
	for _, s := range steps {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconciler: make one collection's indexes match the desired set            */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isUnique(p *bool) bool { return p != nil && *p }

func listExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listExisting(ctx, coll)
	if err != nil {
		// A collection that does not exist yet has no indexes to reconcile.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		name := ""
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", isUnique(unique)))

		if ex, ok := existing[sig]; ok {
			if isUnique(ex.Unique) == isUnique(unique) && (name == "" || ex.Name == name) {
				log.Debug("reusing existing index")
				continue
			}
			// Options or name differ: drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", zap.String("existing", ex.Name), zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if wafflemongo.IsDup(err) && isUnique(unique) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			log.Warn("index ensure failed", zap.Duration("took", time.Since(start)), zap.Error(err))
			continue
		}
		log.Info("index ensured", zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Per-collection index sets                                                  */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "login_id_ci", Value: 1}},
			Options: options.Index().SetName("uniq_users_login_id_ci").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_status_fullnameci_id"),
		},
	})
}

func ensureProfiles(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("profiles"), []mongo.IndexModel{
		{
			// Multikey over the role array; finds every holder of a role.
			Keys:    bson.D{{Key: "roles", Value: 1}},
			Options: options.Index().SetName("idx_profiles_roles"),
		},
	})
}

func ensureProperties(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("properties"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_ids", Value: 1}},
			Options: options.Index().SetName("idx_properties_owner_ids"),
		},
		{
			Keys:    bson.D{{Key: "listing_status", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_properties_listing_id"),
		},
	})
}

func ensureBusinesses(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("businesses"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "author_id", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_businesses_author_id"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_businesses_status_nameci"),
		},
	})
}

func ensureTickets(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("tickets"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "author_id", Value: 1}, {Key: "property_id", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_tickets_author_property_id"),
		},
		{
			Keys:    bson.D{{Key: "property_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_tickets_property_status"),
		},
	})
}

func ensureGroups(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("groups"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "members.user_id", Value: 1}},
			Options: options.Index().SetName("idx_groups_members_user"),
		},
		{
			Keys:    bson.D{{Key: "coordinator_id", Value: 1}},
			Options: options.Index().SetName("idx_groups_coordinator"),
		},
		{
			Keys:    bson.D{{Key: "type", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_groups_type_nameci"),
		},
	})
}

func ensureAnnouncements(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("announcements"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "published_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_announcements_published"),
		},
	})
}

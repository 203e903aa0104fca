// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/villahub/internal/domain/ticketflow"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. Validation is "moderate": legacy documents that already break
// a rule can still be updated, new writes must comply. Id-bearing fields are
// not typed here because legacy data mixes numbers and strings; the
// migrations canonicalize those. On servers that don't support collMod we
// log and skip.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("profiles", profilesSchema())
	ensure("properties", propertiesSchema())
	ensure("tickets", ticketsSchema())
	ensure("groups", groupsSchema())
	ensure("businesses", businessesSchema())
	ensure("announcements", announcementsSchema())

	ensure("counters", nil)
	ensure("migrations", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func enum(vals ...string) bson.M {
	a := bson.A{}
	for _, v := range vals {
		a = append(a, v)
	}
	return bson.M{"enum": a}
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"login_id", "login_id_ci", "status"},
			"properties": bson.M{
				"login_id":       nonBlank,
				"login_id_ci":    nonBlank,
				"full_name":      bson.M{"bsonType": "string"},
				"email":          bson.M{"bsonType": bson.A{"string", "null"}},
				"status":         enum(models.UserStatusActive, models.UserStatusDisabled),
				"is_super_admin": bson.M{"bsonType": "bool"},
			},
		},
	}
}

// profilesSchema leaves roles untyped: older profiles hold the truthy-map
// encoding until they are next written.
func profilesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"properties": bson.M{
				"legacy_role":        bson.M{"bsonType": bson.A{"string", "null"}},
				"capabilities":       bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
				"read_announcements": bson.M{"bsonType": "array"},
			},
		},
	}
}

func propertiesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "owner_ids", "listing_status"},
			"properties": bson.M{
				"title":     nonBlank,
				"owner_ids": bson.M{"bsonType": "array"},
				"listing_status": enum(models.ListingNotListed, models.ListingForSale,
					models.ListingForRent, models.ListingSold, models.ListingRented),
				"sale_price": bson.M{"bsonType": bson.A{"double", "int", "long", "null"}, "minimum": 0},
				"rent_price": bson.M{"bsonType": bson.A{"double", "int", "long", "null"}, "minimum": 0},
			},
		},
	}
}

func ticketsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"author_id", "title", "status", "priority", "last_update"},
			"properties": bson.M{
				"title": nonBlank,
				"status": enum(string(ticketflow.Open), string(ticketflow.InProgress),
					string(ticketflow.Resolved), string(ticketflow.Closed)),
				"priority": enum(models.PriorityLow, models.PriorityMedium,
					models.PriorityHigh, models.PriorityUrgent),
				"activity":    bson.M{"bsonType": "array"},
				"last_update": bson.M{"bsonType": "date"},
			},
		},
	}
}

func groupsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "type", "members"},
			"properties": bson.M{
				"name":     nonBlank,
				"name_ci":  nonBlank,
				"type":     enum(models.GroupCommittee, models.GroupStaff, models.GroupBoard),
				"members":  bson.M{"bsonType": "array"},
				"requests": bson.M{"bsonType": "array"},
				"version":  bson.M{"bsonType": bson.A{"int", "long"}},
			},
		},
	}
}

func businessesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"author_id", "name", "status"},
			"properties": bson.M{
				"name":   nonBlank,
				"status": enum(models.BusinessDraft, models.BusinessPending, models.BusinessPublish),
			},
		},
	}
}

func announcementsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "published_at"},
			"properties": bson.M{
				"title":        nonBlank,
				"target_roles": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
				"published_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

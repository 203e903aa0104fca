// internal/app/store/profiles/profilestore.go
package profilestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/villahub/internal/domain/roles"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the role store: it owns the profiles collection, which carries a
// user's community roles, capabilities, contact data and announcement read
// state.
type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("profile not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("profiles")}
}

// Get loads the profile for uid. Returns ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, uid ident.ID) (models.Profile, error) {
	var p models.Profile
	if err := s.c.FindOne(ctx, bson.M{"_id": int64(uid)}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Profile{}, ErrNotFound
		}
		return models.Profile{}, err
	}
	p.Capabilities = p.Capabilities.Normalize()
	return p, nil
}

// GetRoles returns the union of the legacy single role and the role set.
// A user without a profile has no roles; that is not an error.
// Unknown tags are reported on the returned set's Unknown field.
func (s *Store) GetRoles(ctx context.Context, uid ident.ID) (roles.Set, error) {
	var p models.Profile
	proj := options.FindOne().SetProjection(bson.M{"legacy_role": 1, "roles": 1})
	err := s.c.FindOne(ctx, bson.M{"_id": int64(uid)}, proj).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return roles.Set{}, nil
	}
	if err != nil {
		return roles.Set{}, err
	}
	return p.EffectiveRoles(), nil
}

// HasAnyRole reports whether uid holds at least one role in allowed.
func (s *Store) HasAnyRole(ctx context.Context, uid ident.ID, allowed roles.Set) (bool, error) {
	held, err := s.GetRoles(ctx, uid)
	if err != nil {
		return false, err
	}
	return held.Intersects(allowed), nil
}

// GetCapabilities returns uid's capabilities (empty when no profile exists).
func (s *Store) GetCapabilities(ctx context.Context, uid ident.ID) (roles.Capabilities, error) {
	var p models.Profile
	proj := options.FindOne().SetProjection(bson.M{"capabilities": 1})
	err := s.c.FindOne(ctx, bson.M{"_id": int64(uid)}, proj).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p.Capabilities.Normalize(), nil
}

// EnsureProfile creates an empty profile for uid when none exists and returns
// the stored profile. Existing profiles are left untouched.
func (s *Store) EnsureProfile(ctx context.Context, uid ident.ID) (models.Profile, error) {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": int64(uid)},
		bson.M{"$setOnInsert": bson.M{
			"roles":              bson.A{},
			"capabilities":       bson.A{},
			"read_announcements": bson.A{},
			"created_at":         now,
			"updated_at":         now,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return models.Profile{}, err
	}
	return s.Get(ctx, uid)
}

// SetRoles replaces uid's roles. The legacy single-role field is cleared, so
// the stored set is the whole truth afterwards.
func (s *Store) SetRoles(ctx context.Context, uid ident.ID, set roles.Set) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": int64(uid)},
		bson.M{
			"$set":         bson.M{"roles": set, "updated_at": now},
			"$unset":       bson.M{"legacy_role": ""},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// AddRole grants r. Granting a role already held is a no-op.
func (s *Store) AddRole(ctx context.Context, uid ident.ID, r roles.Role) error {
	if !r.Valid() {
		return errors.New("unknown role " + string(r))
	}
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": int64(uid)},
		bson.M{
			"$addToSet":    bson.M{"roles": string(r)},
			"$set":         bson.M{"updated_at": now},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// RemoveRole revokes r from both the role set and the legacy field.
func (s *Store) RemoveRole(ctx context.Context, uid ident.ID, r roles.Role) error {
	now := time.Now().UTC()
	if _, err := s.c.UpdateOne(ctx,
		bson.M{"_id": int64(uid)},
		bson.M{"$pull": bson.M{"roles": string(r)}, "$set": bson.M{"updated_at": now}},
	); err != nil {
		return err
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": int64(uid), "legacy_role": string(r)},
		bson.M{"$unset": bson.M{"legacy_role": ""}},
	)
	return err
}

// SetCapabilities replaces uid's capabilities.
func (s *Store) SetCapabilities(ctx context.Context, uid ident.ID, caps roles.Capabilities) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": int64(uid)},
		bson.M{
			"$set":         bson.M{"capabilities": caps.Normalize(), "updated_at": now},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// ContactUpdate holds the self-service profile fields.
type ContactUpdate struct {
	Phone   string
	Address models.Address
}

// UpdateContact writes the self-service fields. Roles and capabilities are
// never touched here.
func (s *Store) UpdateContact(ctx context.Context, uid ident.ID, upd ContactUpdate) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": int64(uid)},
		bson.M{"$set": bson.M{
			"phone":      upd.Phone,
			"address":    upd.Address,
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAnnouncementRead records that uid has read annID. Marking twice is a
// no-op.
func (s *Store) MarkAnnouncementRead(ctx context.Context, uid, annID ident.ID) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": int64(uid)},
		bson.M{
			"$addToSet":    bson.M{"read_announcements": int64(annID)},
			"$set":         bson.M{"updated_at": now},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// ReadAnnouncements returns the ids uid has marked read.
func (s *Store) ReadAnnouncements(ctx context.Context, uid ident.ID) ([]ident.ID, error) {
	var doc struct {
		Read ident.List `bson:"read_announcements"`
	}
	proj := options.FindOne().SetProjection(bson.M{"read_announcements": 1})
	err := s.c.FindOne(ctx, bson.M{"_id": int64(uid)}, proj).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.Read.IDs, nil
}

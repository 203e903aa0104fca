// internal/app/store/counters/counterstore.go
package counterstore

import (
	"context"
	"fmt"

	"github.com/dalemusser/villahub/internal/app/system/ident"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Sequence names, one per collection that mints integer ids.
const (
	Users         = "users"
	Properties    = "properties"
	Businesses    = "businesses"
	Tickets       = "tickets"
	Groups        = "groups"
	Announcements = "announcements"
)

// Store mints monotonically increasing integer ids.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("counters")}
}

// Next returns the next id in sequence name. The counter document is created
// on first use.
func (s *Store) Next(ctx context.Context, name string) (ident.ID, error) {
	var out struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&out)
	if err != nil {
		return ident.Zero, fmt.Errorf("next %s id: %w", name, err)
	}
	return ident.ID(out.Seq), nil
}

// AtLeast moves sequence name forward so the next id is greater than floor.
// Used after importing records that already carry ids.
func (s *Store) AtLeast(ctx context.Context, name string, floor ident.ID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": name},
		bson.M{"$max": bson.M{"seq": int64(floor)}},
		options.Update().SetUpsert(true),
	)
	return err
}

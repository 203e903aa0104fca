// internal/app/store/announcements/announcementstore.go
package announcementstore

import (
	"context"
	"errors"
	"time"

	counterstore "github.com/dalemusser/villahub/internal/app/store/counters"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store owns the announcements collection. Read state lives on profiles.
type Store struct {
	c   *mongo.Collection
	seq *counterstore.Store
}

var ErrNotFound = errors.New("announcement not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("announcements"), seq: counterstore.New(db)}
}

// Create inserts a with a fresh id. PublishedAt defaults to now.
func (s *Store) Create(ctx context.Context, a models.Announcement) (models.Announcement, error) {
	id, err := s.seq.Next(ctx, counterstore.Announcements)
	if err != nil {
		return models.Announcement{}, err
	}
	now := time.Now().UTC()
	a.ID = id
	if a.PublishedAt.IsZero() {
		a.PublishedAt = now
	}
	a.CreatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Announcement{}, err
	}
	return a, nil
}

// GetByID loads one announcement.
func (s *Store) GetByID(ctx context.Context, id ident.ID) (*models.Announcement, error) {
	var a models.Announcement
	if err := s.c.FindOne(ctx, bson.M{"_id": int64(id)}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListRecent returns published announcements, newest first. Filtering by
// audience is the access policy's job.
func (s *Store) ListRecent(ctx context.Context, limit int64) ([]models.Announcement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "published_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{"published_at": bson.M{"$lte": time.Now().UTC()}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Announcement{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes one announcement.
func (s *Store) Delete(ctx context.Context, id ident.ID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": int64(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

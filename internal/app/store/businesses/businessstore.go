// internal/app/store/businesses/businessstore.go
package businessstore

import (
	"context"
	"errors"
	"strings"
	"time"

	counterstore "github.com/dalemusser/villahub/internal/app/store/counters"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store owns partner business listings. A listing has exactly one owner, its
// author.
type Store struct {
	c   *mongo.Collection
	seq *counterstore.Store
}

var (
	ErrNotFound  = errors.New("business not found")
	ErrBadStatus = errors.New(`status must be "draft"|"pending"|"publish"`)
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("businesses"), seq: counterstore.New(db)}
}

// ValidStatus reports whether st is a listing status.
func ValidStatus(st string) bool {
	switch st {
	case models.BusinessDraft, models.BusinessPending, models.BusinessPublish:
		return true
	}
	return false
}

// Create inserts b as a draft unless another valid status is given.
func (s *Store) Create(ctx context.Context, b models.Business) (models.Business, error) {
	if b.Status == "" {
		b.Status = models.BusinessDraft
	}
	if !ValidStatus(b.Status) {
		return models.Business{}, ErrBadStatus
	}
	id, err := s.seq.Next(ctx, counterstore.Businesses)
	if err != nil {
		return models.Business{}, err
	}
	now := time.Now().UTC()
	b.ID = id
	b.Name = strings.TrimSpace(b.Name)
	b.NameCI = text.Fold(b.Name)
	b.CreatedAt = now
	b.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, b); err != nil {
		return models.Business{}, err
	}
	return b, nil
}

// GetByID loads one listing.
func (s *Store) GetByID(ctx context.Context, id ident.ID) (*models.Business, error) {
	var b models.Business
	if err := s.c.FindOne(ctx, bson.M{"_id": int64(id)}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// ListByAuthor returns uid's listings in any status.
func (s *Store) ListByAuthor(ctx context.Context, uid ident.ID) ([]models.Business, error) {
	return s.find(ctx, bson.M{"author_id": bson.M{"$in": ident.LooseMatches(uid)}})
}

// ListByStatus returns listings in status st by name.
func (s *Store) ListByStatus(ctx context.Context, st string) ([]models.Business, error) {
	return s.find(ctx, bson.M{"status": st})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Business, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Business{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DetailsUpdate holds the editable listing fields.
type DetailsUpdate struct {
	Name        string
	Description string
	Category    string
	Phone       string
	Website     string
}

// Update writes the listing details.
func (s *Store) Update(ctx context.Context, id ident.ID, upd DetailsUpdate) error {
	set := bson.M{
		"description": upd.Description,
		"category":    upd.Category,
		"phone":       upd.Phone,
		"website":     upd.Website,
	}
	if name := strings.TrimSpace(upd.Name); name != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	return s.set(ctx, id, set)
}

// SetStatus moves a listing between draft, pending and publish.
func (s *Store) SetStatus(ctx context.Context, id ident.ID, st string) error {
	if !ValidStatus(st) {
		return ErrBadStatus
	}
	return s.set(ctx, id, bson.M{"status": st})
}

// Delete removes a listing.
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

func (s *Store) set(ctx context.Context, id ident.ID, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": int64(id)}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

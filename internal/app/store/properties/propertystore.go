// internal/app/store/properties/propertystore.go
package propertystore

import (
	"context"
	"errors"
	"time"

	counterstore "github.com/dalemusser/villahub/internal/app/store/counters"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/paging"
	"github.com/dalemusser/villahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the property half of the ownership index.
//
// owner_ids is a plain array; ownership is array membership, never an exact
// match on the whole list. Filters match both the canonical integer and the
// string form older records may hold.
type Store struct {
	c     *mongo.Collection
	users *mongo.Collection
	seq   *counterstore.Store
}

var (
	ErrNotFound = errors.New("property not found")
	// ErrUnknownOwner is returned when an owner id does not reference a user.
	ErrUnknownOwner   = errors.New("owner does not reference an existing user")
	ErrBadListing     = errors.New("unknown listing status")
	ErrConcurrentEdit = errors.New("property changed while updating; reload and retry")
)

func New(db *mongo.Database) *Store {
	return &Store{
		c:     db.Collection("properties"),
		users: db.Collection("users"),
		seq:   counterstore.New(db),
	}
}

func ownerFilter(uid ident.ID) bson.M {
	return bson.M{"owner_ids": bson.M{"$in": ident.LooseMatches(uid)}}
}

func (s *Store) checkOwners(ctx context.Context, ids []ident.ID) error {
	if len(ids) == 0 {
		return nil
	}
	n, err := s.users.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ident.ToInt64s(ids)}})
	if err != nil {
		return err
	}
	if int(n) != len(ids) {
		return ErrUnknownOwner
	}
	return nil
}

// Create inserts p with a fresh id. Owners are deduplicated and must all
// exist. An empty owner list leaves the property unassigned.
func (s *Store) Create(ctx context.Context, p models.Property) (models.Property, error) {
	p.Owners = ident.List{IDs: ident.Dedupe(p.OwnerIDs())}
	if err := s.checkOwners(ctx, p.Owners.IDs); err != nil {
		return models.Property{}, err
	}
	if p.ListingStatus == "" {
		p.ListingStatus = models.ListingNotListed
	}
	if !models.ValidListingStatus(p.ListingStatus) {
		return models.Property{}, ErrBadListing
	}
	if p.ListingStatus == models.ListingNotListed {
		p.SalePrice, p.RentPrice = nil, nil
	}

	id, err := s.seq.Next(ctx, counterstore.Properties)
	if err != nil {
		return models.Property{}, err
	}
	p.ID = id
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Property{}, err
	}
	return p, nil
}

// GetByID loads a property. Returns ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id ident.ID) (*models.Property, error) {
	var p models.Property
	if err := s.c.FindOne(ctx, bson.M{"_id": int64(id)}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// PropertiesOwnedBy returns the ids of every property whose owner list
// contains uid, ascending.
func (s *Store) PropertiesOwnedBy(ctx context.Context, uid ident.ID) ([]ident.ID, error) {
	if uid.IsZero() {
		return nil, nil
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, ownerFilter(uid), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []ident.ID
	for cur.Next(ctx) {
		var doc struct {
			ID ident.ID `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.ID)
	}
	return out, cur.Err()
}

// ListOwnedBy returns the full records of uid's properties.
func (s *Store) ListOwnedBy(ctx context.Context, uid ident.ID) ([]models.Property, error) {
	if uid.IsZero() {
		return nil, nil
	}
	return s.find(ctx, ownerFilter(uid))
}

// ListPage returns one keyset page of all properties in id order.
func (s *Store) ListPage(ctx context.Context, page paging.Page) ([]models.Property, paging.Result, error) {
	filter, opts := page.Apply(bson.M{})
	out, err := s.findWith(ctx, filter, opts)
	if err != nil {
		return nil, paging.Result{}, err
	}
	res := paging.Trim(&out, page, func(p models.Property) ident.ID { return p.ID })
	return out, res, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Property, error) {
	return s.findWith(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (s *Store) findWith(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Property, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Property{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IsOwner reports whether uid is on property pid's owner list.
func (s *Store) IsOwner(ctx context.Context, uid, pid ident.ID) (bool, error) {
	if uid.IsZero() || pid.IsZero() {
		return false, nil
	}
	filter := ownerFilter(uid)
	filter["_id"] = int64(pid)
	n, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetOwners replaces pid's owner list. Every id must reference a user; an
// empty list unassigns the property.
func (s *Store) SetOwners(ctx context.Context, pid ident.ID, ids []ident.ID) error {
	ids = ident.Dedupe(ids)
	if err := s.checkOwners(ctx, ids); err != nil {
		return err
	}
	return s.set(ctx, pid, bson.M{"owner_ids": ident.List{IDs: ids}})
}

// DetailsUpdate holds the editable descriptive fields.
type DetailsUpdate struct {
	Title   string
	Address models.Address
}

// UpdateDetails writes title and address.
func (s *Store) UpdateDetails(ctx context.Context, pid ident.ID, upd DetailsUpdate) error {
	return s.set(ctx, pid, bson.M{"title": upd.Title, "address": upd.Address})
}

// SetListing sets the listing status and prices. Moving to not_listed clears
// both prices.
func (s *Store) SetListing(ctx context.Context, pid ident.ID, status string, sale, rent *float64) error {
	if !models.ValidListingStatus(status) {
		return ErrBadListing
	}
	if status == models.ListingNotListed {
		return s.update(ctx, pid, bson.M{
			"$set":   bson.M{"listing_status": status, "updated_at": time.Now().UTC()},
			"$unset": bson.M{"sale_price": "", "rent_price": ""},
		})
	}
	fields := bson.M{"listing_status": status}
	if sale != nil {
		fields["sale_price"] = *sale
	}
	if rent != nil {
		fields["rent_price"] = *rent
	}
	return s.set(ctx, pid, fields)
}

// ToggleListing takes a listed property off the market, or puts an unlisted
// one back in the status it had before. A property that was never listed
// goes to for_sale. Prices are kept across the toggle.
//
// The write is conditional on the status read, so two concurrent toggles
// cannot both apply; the loser gets ErrConcurrentEdit.
func (s *Store) ToggleListing(ctx context.Context, pid ident.ID) (string, error) {
	p, err := s.GetByID(ctx, pid)
	if err != nil {
		return "", err
	}
	current := p.ListingStatus
	if current == "" {
		current = models.ListingNotListed
	}

	next := models.ListingNotListed
	set := bson.M{"updated_at": time.Now().UTC()}
	if current == models.ListingNotListed {
		next = p.LastListingStatus
		if next == "" || next == models.ListingNotListed {
			next = models.ListingForSale
		}
	} else {
		set["last_listing_status"] = current
	}
	set["listing_status"] = next

	filter := bson.M{"_id": int64(pid)}
	if p.ListingStatus == "" {
		filter["listing_status"] = bson.M{"$in": bson.A{nil, ""}}
	} else {
		filter["listing_status"] = p.ListingStatus
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return "", err
	}
	if res.MatchedCount == 0 {
		return "", ErrConcurrentEdit
	}
	return next, nil
}

// Delete removes pid.
func (s *Store) Delete(ctx context.Context, pid ident.ID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": int64(pid)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) set(ctx context.Context, pid ident.ID, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	return s.update(ctx, pid, bson.M{"$set": fields})
}

func (s *Store) update(ctx context.Context, pid ident.ID, upd bson.M) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": int64(pid)}, upd)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

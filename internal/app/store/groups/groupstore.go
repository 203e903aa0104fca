// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"strings"
	"time"

	counterstore "github.com/dalemusser/villahub/internal/app/store/counters"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/domain/membership"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the group membership index. Members and pending requests are
// embedded in the group document; every membership write bumps version.
type Store struct {
	c   *mongo.Collection
	seq *counterstore.Store
}

var (
	ErrNotFound         = errors.New("group not found")
	ErrAlreadyMember    = errors.New("user is already a member of this group")
	ErrAlreadyRequested = errors.New("a membership request is already pending")
	errBadType          = errors.New(`type must be "committee"|"staff"|"board"`)
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups"), seq: counterstore.New(db)}
}

func validType(t string) bool {
	switch t {
	case models.GroupCommittee, models.GroupStaff, models.GroupBoard:
		return true
	}
	return false
}

// Create inserts g with a fresh id.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	if g.Type == "" {
		g.Type = models.GroupCommittee
	}
	if !validType(g.Type) {
		return models.Group{}, errBadType
	}
	id, err := s.seq.Next(ctx, counterstore.Groups)
	if err != nil {
		return models.Group{}, err
	}
	now := time.Now().UTC()
	g.ID = id
	g.NameCI = text.Fold(g.Name)
	if g.Members == nil {
		g.Members = []models.GroupMember{}
	}
	if g.Requests == nil {
		g.Requests = []models.MembershipRequest{}
	}
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// GetByID loads a group. Returns ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id ident.ID) (*models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": int64(id)}).Decode(&g); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// GroupsFor returns every group uid coordinates or is listed in, by name.
//
// The query matches both integer and string encodings; the result is then
// re-checked on canonical ids so a loose match can never add a group.
func (s *Store) GroupsFor(ctx context.Context, uid ident.ID) ([]models.Group, error) {
	if uid.IsZero() {
		return []models.Group{}, nil
	}
	loose := ident.LooseMatches(uid)
	filter := bson.M{"$or": bson.A{
		bson.M{"coordinator_id": bson.M{"$in": loose}},
		bson.M{"members.user_id": bson.M{"$in": loose}},
	}}
	all, err := s.find(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for i := range all {
		if membership.IsMember(&all[i], uid) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// List returns every group by name, optionally filtered by type.
func (s *Store) List(ctx context.Context, groupType string) ([]models.Group, error) {
	filter := bson.M{}
	if t := strings.TrimSpace(groupType); t != "" {
		filter["type"] = t
	}
	return s.find(ctx, filter)
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Group, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Group{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateInfo writes name and description.
func (s *Store) UpdateInfo(ctx context.Context, id ident.ID, name, desc string) error {
	set := bson.M{"description": desc, "updated_at": time.Now().UTC()}
	if strings.TrimSpace(name) != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": int64(id)}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RequestMembership appends a pending request for uid to group gid.
//
// The append is one conditional update: it only lands while uid is neither
// coordinator nor member and has no pending request, so concurrent duplicate
// requests cannot both be recorded. When nothing matched, the group is
// reloaded to report why.
func (s *Store) RequestMembership(ctx context.Context, uid, gid ident.ID) (*models.Group, error) {
	if uid.IsZero() || gid.IsZero() {
		return nil, ErrNotFound
	}
	loose := ident.LooseMatches(uid)
	now := time.Now().UTC()
	filter := bson.M{
		"_id":             int64(gid),
		"coordinator_id":  bson.M{"$nin": loose},
		"members.user_id": bson.M{"$nin": loose},
		"requests": bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"user_id": bson.M{"$in": loose},
			"status":  models.RequestPending,
		}}},
	}
	update := bson.M{
		"$push": bson.M{"requests": models.MembershipRequest{
			UserID:      uid,
			RequestedAt: now,
			Status:      models.RequestPending,
		}},
		"$inc": bson.M{"version": int64(1)},
		"$set": bson.M{"updated_at": now},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var g models.Group
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&g)
	if err == nil {
		return &g, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	cur, gerr := s.GetByID(ctx, gid)
	if gerr != nil {
		return nil, gerr
	}
	if membership.IsMember(cur, uid) {
		return nil, ErrAlreadyMember
	}
	return nil, ErrAlreadyRequested
}

// PendingRequests returns the pending join requests on gid.
func (s *Store) PendingRequests(ctx context.Context, gid ident.ID) ([]models.MembershipRequest, error) {
	g, err := s.GetByID(ctx, gid)
	if err != nil {
		return nil, err
	}
	out := []models.MembershipRequest{}
	for _, r := range g.Requests {
		if r.Status == models.RequestPending {
			out = append(out, r)
		}
	}
	return out, nil
}

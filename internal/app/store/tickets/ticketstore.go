// internal/app/store/tickets/ticketstore.go
package ticketstore

import (
	"context"
	"errors"
	"time"

	counterstore "github.com/dalemusser/villahub/internal/app/store/counters"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/paging"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/villahub/internal/domain/ticketflow"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store owns the tickets collection. Every mutation refreshes last_update and
// appends to the activity log in the same write.
type Store struct {
	c   *mongo.Collection
	seq *counterstore.Store
}

var (
	ErrNotFound = errors.New("ticket not found")
	// ErrStatusChanged means the ticket left the expected status before the
	// transition was written.
	ErrStatusChanged = errors.New("ticket status changed; reload and retry")
	ErrBadPriority   = errors.New(`priority must be "low"|"medium"|"high"|"urgent"`)
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tickets"), seq: counterstore.New(db)}
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p string) bool {
	switch p {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent:
		return true
	}
	return false
}

func activity(actor ident.ID, action string) models.TicketActivity {
	return models.TicketActivity{
		ID:      uuid.NewString(),
		ActorID: actor,
		Action:  action,
		At:      time.Now().UTC(),
	}
}

// Create inserts t in the initial status with a "created" activity entry.
func (s *Store) Create(ctx context.Context, t models.Ticket) (models.Ticket, error) {
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if !ValidPriority(t.Priority) {
		return models.Ticket{}, ErrBadPriority
	}
	id, err := s.seq.Next(ctx, counterstore.Tickets)
	if err != nil {
		return models.Ticket{}, err
	}
	t.ID = id
	t.Status = string(ticketflow.Initial)
	created := activity(t.AuthorID, models.ActivityCreated)
	created.To = t.Status
	t.Activity = []models.TicketActivity{created}
	t.CreatedAt = created.At
	t.LastUpdate = created.At

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Ticket{}, err
	}
	return t, nil
}

// GetByID loads a ticket. Returns ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id ident.ID) (*models.Ticket, error) {
	var t models.Ticket
	if err := s.c.FindOne(ctx, bson.M{"_id": int64(id)}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func authorFilter(uid ident.ID, pid *ident.ID) bson.M {
	f := bson.M{"author_id": bson.M{"$in": ident.LooseMatches(uid)}}
	if pid != nil {
		f["property_id"] = bson.M{"$in": ident.LooseMatches(*pid)}
	}
	return f
}

// TicketsCreatedBy returns the ids of tickets uid filed, optionally limited to
// one property.
func (s *Store) TicketsCreatedBy(ctx context.Context, uid ident.ID, pid *ident.ID) ([]ident.ID, error) {
	if uid.IsZero() {
		return nil, nil
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, authorFilter(uid, pid), opts)
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

// ListByAuthor returns uid's tickets, most recently updated first.
func (s *Store) ListByAuthor(ctx context.Context, uid ident.ID) ([]models.Ticket, error) {
	if uid.IsZero() {
		return []models.Ticket{}, nil
	}
	return s.find(ctx, authorFilter(uid, nil))
}

// ListPage returns one keyset page of all tickets in id order, optionally
// restricted to status st.
func (s *Store) ListPage(ctx context.Context, st string, page paging.Page) ([]models.Ticket, paging.Result, error) {
	filter := bson.M{}
	if st != "" {
		filter["status"] = st
	}
	filter, opts := page.Apply(filter)
	cur, err := s.c.Find(ctx, filter, opts.SetProjection(bson.M{"activity": 0}))
	if err != nil {
		return nil, paging.Result{}, err
	}
	defer cur.Close(ctx)

	out := []models.Ticket{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, paging.Result{}, err
	}
	res := paging.Trim(&out, page, func(t models.Ticket) ident.ID { return t.ID })
	return out, res, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Ticket, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "last_update", Value: -1}, {Key: "_id", Value: -1}}).
		SetProjection(bson.M{"activity": 0})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Ticket{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountOpenTickets counts tickets on pid that are open or in progress.
func (s *Store) CountOpenTickets(ctx context.Context, pid ident.ID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"property_id": bson.M{"$in": ident.LooseMatches(pid)},
		"status":      bson.M{"$in": bson.A{string(ticketflow.Open), string(ticketflow.InProgress)}},
	})
}

// DetailsUpdate holds the editable fields. Empty strings leave a field as is.
type DetailsUpdate struct {
	Title       string
	Description string
	Type        string
	Category    string
	Priority    string
}

// Update writes the non-empty fields of upd and logs an "updated" entry.
func (s *Store) Update(ctx context.Context, id, actor ident.ID, upd DetailsUpdate) error {
	if upd.Priority != "" && !ValidPriority(upd.Priority) {
		return ErrBadPriority
	}
	entry := activity(actor, models.ActivityUpdated)
	set := bson.M{"last_update": entry.At}
	for k, v := range map[string]string{
		"title":       upd.Title,
		"description": upd.Description,
		"type":        upd.Type,
		"category":    upd.Category,
		"priority":    upd.Priority,
	} {
		if v != "" {
			set[k] = v
		}
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": int64(id)},
		bson.M{"$set": set, "$push": bson.M{"activity": entry}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DetachProperty clears the property link on every ticket filed against pid,
// logging the change as actor. It returns the number of tickets changed.
func (s *Store) DetachProperty(ctx context.Context, pid, actor ident.ID) (int64, error) {
	entry := activity(actor, models.ActivityUpdated)
	entry.Note = "property " + pid.String() + " removed"
	res, err := s.c.UpdateMany(ctx,
		bson.M{"property_id": bson.M{"$in": ident.LooseMatches(pid)}},
		bson.M{
			"$unset": bson.M{"property_id": ""},
			"$set":   bson.M{"last_update": entry.At},
			"$push":  bson.M{"activity": entry},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Transition moves ticket id from -> to and logs a status_changed entry.
// Whether the move is allowed is the caller's decision; the write only lands
// if the ticket is still in from.
func (s *Store) Transition(ctx context.Context, id, actor ident.ID, from, to ticketflow.Status, note string) error {
	entry := activity(actor, models.ActivityStatusChanged)
	entry.From = string(from)
	entry.To = string(to)
	entry.Note = note

	update := bson.M{
		"$set":  bson.M{"status": string(to), "last_update": entry.At},
		"$push": bson.M{"activity": entry},
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": int64(id), "status": string(from)}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	cur, gerr := s.GetByID(ctx, id)
	if errors.Is(gerr, ErrNotFound) {
		return ErrNotFound
	}
	if gerr != nil {
		return gerr
	}
	// A stored spelling such as "In-Progress" still names from; guard on it
	// verbatim so the write lands and the status comes out canonical.
	if st, ok := ticketflow.Parse(cur.Status); !ok || st != from || cur.Status == string(from) {
		return ErrStatusChanged
	}
	res, err = s.c.UpdateOne(ctx, bson.M{"_id": int64(id), "status": cur.Status}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStatusChanged
	}
	return nil
}

package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	counterstore "github.com/dalemusser/villahub/internal/app/store/counters"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/villahub/internal/domain/roles"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db  *mongo.Database
	t   *testing.T
	seq *counterstore.Store
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t, seq: counterstore.New(db)}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) next(ctx context.Context, name string) ident.ID {
	f.t.Helper()
	id, err := f.seq.Next(ctx, name)
	if err != nil {
		f.t.Fatalf("next %s id: %v", name, err)
	}
	return id
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("insert into %s: %v", coll, err)
	}
}

// CreateUser creates an active user whose login id, full name and email are
// derived from login. The password is "password".
func (f *Fixtures) CreateUser(ctx context.Context, login string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	u := models.User{
		ID:           f.next(ctx, counterstore.Users),
		LoginID:      login,
		LoginIDCI:    text.Fold(login),
		FullName:     "Test " + login,
		FullNameCI:   text.Fold("Test " + login),
		Email:        login + "@example.com",
		PasswordHash: string(hash),
		Status:       models.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateSuperAdmin creates a user flagged as site administrator.
func (f *Fixtures) CreateSuperAdmin(ctx context.Context, login string) models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, login)
	if _, err := f.db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": int64(u.ID)},
		bson.M{"$set": bson.M{"is_super_admin": true}},
	); err != nil {
		f.t.Fatalf("set super admin: %v", err)
	}
	u.IsSuperAdmin = true
	return u
}

// GiveRoles writes a profile for uid holding rs and caps.
func (f *Fixtures) GiveRoles(ctx context.Context, uid ident.ID, rs []roles.Role, caps ...roles.Capability) {
	f.t.Helper()
	now := time.Now().UTC()
	f.insert(ctx, "profiles", models.Profile{
		UserID:            uid,
		Roles:             roles.NewSet(rs...),
		Capabilities:      roles.Capabilities(caps).Normalize(),
		ReadAnnouncements: ident.List{IDs: []ident.ID{}},
		CreatedAt:         now,
		UpdatedAt:         now,
	})
}

// CreateProperty creates a not-listed property owned by owners.
func (f *Fixtures) CreateProperty(ctx context.Context, title string, createdBy ident.ID, owners ...ident.ID) models.Property {
	f.t.Helper()
	if owners == nil {
		owners = []ident.ID{}
	}
	now := time.Now().UTC()
	p := models.Property{
		ID:            f.next(ctx, counterstore.Properties),
		Title:         title,
		Owners:        ident.List{IDs: owners},
		CreatedBy:     createdBy,
		ListingStatus: models.ListingNotListed,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	f.insert(ctx, "properties", p)
	return p
}

// CreateTicket creates an open ticket filed by author.
func (f *Fixtures) CreateTicket(ctx context.Context, title string, author ident.ID, property *ident.ID) models.Ticket {
	f.t.Helper()
	now := time.Now().UTC()
	tk := models.Ticket{
		ID:          f.next(ctx, counterstore.Tickets),
		AuthorID:    author,
		PropertyID:  property,
		Title:       title,
		Description: "<p>" + title + "</p>",
		Priority:    "medium",
		Status:      "open",
		Activity:    []models.TicketActivity{},
		LastUpdate:  now,
		CreatedAt:   now,
	}
	f.insert(ctx, "tickets", tk)
	return tk
}

// CreateGroup creates a committee coordinated by coordinator (may be zero)
// with the given active members.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, coordinator ident.ID, members ...ident.ID) models.Group {
	f.t.Helper()
	now := time.Now().UTC()
	g := models.Group{
		ID:        f.next(ctx, counterstore.Groups),
		Name:      name,
		NameCI:    text.Fold(name),
		Type:      models.GroupCommittee,
		Members:   []models.GroupMember{},
		Requests:  []models.MembershipRequest{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !coordinator.IsZero() {
		c := coordinator
		g.CoordinatorID = &c
	}
	for _, m := range members {
		g.Members = append(g.Members, models.GroupMember{UserID: m, JoinDate: now, Status: models.MemberActive})
	}
	f.insert(ctx, "groups", g)
	return g
}

// CreateAnnouncement publishes an announcement targeted at target (empty =
// everyone).
func (f *Fixtures) CreateAnnouncement(ctx context.Context, title string, author ident.ID, target ...roles.Role) models.Announcement {
	f.t.Helper()
	now := time.Now().UTC()
	a := models.Announcement{
		ID:          f.next(ctx, counterstore.Announcements),
		Title:       title,
		Content:     "<p>" + title + "</p>",
		TargetRoles: roles.NewSet(target...),
		AuthorID:    author,
		PublishedAt: now,
		CreatedAt:   now,
	}
	f.insert(ctx, "announcements", a)
	return a
}

package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	counterstore "github.com/dalemusser/villahub/internal/app/store/counters"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/normalize"
	"github.com/dalemusser/villahub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	c   *mongo.Collection
	seq *counterstore.Store
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users"), seq: counterstore.New(db)}
}

var (
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateLogin is returned when the login id is already taken.
	ErrDuplicateLogin = errors.New("a user with this login id already exists")
	errBadStatus      = errors.New(`status must be "active"|"disabled"`)
	errNoLogin        = errors.New("login id is required")
)

// GetByID loads a user. Returns ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id ident.ID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": int64(id)}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByLoginID looks up a user by case-insensitive login id.
func (s *Store) GetByLoginID(ctx context.Context, loginID string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"login_id_ci": normalize.LoginIDCI(loginID)}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user, minting its id. A non-empty password is hashed
// with bcrypt; an empty one leaves the account without a local password.
func (s *Store) Create(ctx context.Context, u models.User, password string) (models.User, error) {
	u.LoginID = normalize.LoginID(u.LoginID)
	if u.LoginID == "" {
		return models.User{}, errNoLogin
	}
	u.LoginIDCI = normalize.LoginIDCI(u.LoginID)
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Status = normalize.Status(u.Status)
	if u.Status == "" {
		u.Status = models.UserStatusActive
	}
	if u.Status != models.UserStatusActive && u.Status != models.UserStatusDisabled {
		return models.User{}, errBadStatus
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}

	id, err := s.seq.Next(ctx, counterstore.Users)
	if err != nil {
		return models.User{}, err
	}
	u.ID = id
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateLogin
		}
		return models.User{}, err
	}
	return u, nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(u *models.User, password string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetPassword replaces a user's password hash.
func (s *Store) SetPassword(ctx context.Context, id ident.ID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.set(ctx, id, bson.M{"password_hash": string(hash)})
}

// SetSuperAdmin grants or revokes the administrator bypass.
func (s *Store) SetSuperAdmin(ctx context.Context, id ident.ID, on bool) error {
	return s.set(ctx, id, bson.M{"is_super_admin": on})
}

// SetStatus enables or disables an account.
func (s *Store) SetStatus(ctx context.Context, id ident.ID, status string) error {
	status = normalize.Status(status)
	if status != models.UserStatusActive && status != models.UserStatusDisabled {
		return errBadStatus
	}
	return s.set(ctx, id, bson.M{"status": status})
}

func (s *Store) set(ctx context.Context, id ident.ID, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateByID(ctx, int64(id), bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// NamesByID returns the full names of the users in ids. Missing users are
// absent from the map.
func (s *Store) NamesByID(ctx context.Context, ids []ident.ID) (map[ident.ID]string, error) {
	out := make(map[ident.ID]string, len(ids))
	ids = ident.Dedupe(ids)
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx,
		bson.M{"_id": bson.M{"$in": ident.ToInt64s(ids)}},
		options.Find().SetProjection(bson.M{"full_name": 1, "login_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc struct {
			ID       ident.ID `bson:"_id"`
			FullName string   `bson:"full_name"`
			LoginID  string   `bson:"login_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		name := doc.FullName
		if name == "" {
			name = doc.LoginID
		}
		out[doc.ID] = name
	}
	return out, cur.Err()
}

package userstore

import (
	"context"

	"github.com/dalemusser/villahub/internal/app/system/auth"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/normalize"
	"github.com/dalemusser/villahub/internal/app/system/timeouts"
	"github.com/dalemusser/villahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher so every request sees the current
// account state (a disabled user or a revoked super admin flag takes effect
// on the next request).
type Fetcher struct {
	users *mongo.Collection
}

// NewFetcher creates a UserFetcher over the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{users: db.Collection("users")}
}

// FetchUser returns nil if the user is missing, disabled, or the lookup fails.
func (f *Fetcher) FetchUser(ctx context.Context, userID ident.ID) *auth.SessionUser {
	if userID.IsZero() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id":            1,
		"full_name":      1,
		"login_id":       1,
		"email":          1,
		"status":         1,
		"is_super_admin": 1,
	})
	if err := f.users.FindOne(ctx, bson.M{"_id": int64(userID)}, proj).Decode(&u); err != nil {
		return nil
	}
	if normalize.Status(u.Status) == models.UserStatusDisabled {
		return nil
	}
	return &auth.SessionUser{
		ID:           u.ID,
		Name:         u.FullName,
		LoginID:      u.LoginID,
		Email:        u.Email,
		IsSuperAdmin: u.IsSuperAdmin,
	}
}

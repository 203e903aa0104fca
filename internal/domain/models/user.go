// internal/domain/models/user.go
package models

import (
	"time"

	"github.com/dalemusser/villahub/internal/app/system/ident"
)

// User is an account. Community roles do not live here; they are part of the
// user's Profile.
//
// IsSuperAdmin marks a site administrator. It is the single administrator
// bypass honored by the access policy.
type User struct {
	ID           ident.ID `bson:"_id" json:"id"`
	LoginID      string   `bson:"login_id" json:"login_id"`
	LoginIDCI    string   `bson:"login_id_ci" json:"-"`
	FullName     string   `bson:"full_name" json:"full_name"`
	FullNameCI   string   `bson:"full_name_ci" json:"-"`
	Email        string   `bson:"email" json:"email"`
	PasswordHash string   `bson:"password_hash,omitempty" json:"-"`
	Status       string   `bson:"status" json:"status"` // active | disabled
	IsSuperAdmin bool     `bson:"is_super_admin" json:"is_super_admin"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

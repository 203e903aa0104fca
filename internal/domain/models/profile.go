// internal/domain/models/profile.go
package models

import (
	"time"

	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/domain/roles"
)

// Profile is the one-to-one extension of a User: contact data, community
// roles and per-user read state. The _id is the user id.
//
// LegacyRole is the single-role field older accounts carry; the effective
// role set is the union of LegacyRole and Roles.
type Profile struct {
	UserID       ident.ID           `bson:"_id" json:"user_id"`
	Phone        string             `bson:"phone" json:"phone"`
	Address      Address            `bson:"address" json:"address"`
	LegacyRole   string             `bson:"legacy_role,omitempty" json:"-"`
	Roles        roles.Set          `bson:"roles" json:"roles"`
	Capabilities roles.Capabilities `bson:"capabilities" json:"capabilities"`

	// ReadAnnouncements is the canonical read-state store: one list per user.
	ReadAnnouncements ident.List `bson:"read_announcements" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Address is a postal address on a profile or property.
type Address struct {
	Street string `bson:"street" json:"street"`
	Unit   string `bson:"unit,omitempty" json:"unit,omitempty"`
	City   string `bson:"city" json:"city"`
	Zip    string `bson:"zip" json:"zip"`
}

// EffectiveRoles returns the union of the legacy single role and the role set.
func (p *Profile) EffectiveRoles() roles.Set {
	if p == nil {
		return roles.Set{}
	}
	if p.LegacyRole == "" {
		return p.Roles.Union(roles.Set{})
	}
	return p.Roles.Union(roles.ParseSet(p.LegacyRole))
}

// internal/domain/models/property.go
package models

import (
	"time"

	"github.com/dalemusser/villahub/internal/app/system/ident"
)

// Listing statuses. Prices only mean something when the status is not
// ListingNotListed.
const (
	ListingNotListed = "not_listed"
	ListingForSale   = "for_sale"
	ListingForRent   = "for_rent"
	ListingSold      = "sold"
	ListingRented    = "rented"
)

// ValidListingStatus reports whether s is a known listing status.
func ValidListingStatus(s string) bool {
	switch s {
	case ListingNotListed, ListingForSale, ListingForRent, ListingSold, ListingRented:
		return true
	}
	return false
}

// Property is a villa/unit. Ownership is an explicit list of users, not the
// author: an empty list means the property is unassigned.
type Property struct {
	ID        ident.ID   `bson:"_id" json:"id"`
	Title     string     `bson:"title" json:"title"`
	Address   Address    `bson:"address" json:"address"`
	Owners    ident.List `bson:"owner_ids" json:"-"`
	CreatedBy ident.ID   `bson:"created_by" json:"created_by"`

	ListingStatus string   `bson:"listing_status" json:"listing_status"`
	SalePrice     *float64 `bson:"sale_price,omitempty" json:"sale_price,omitempty"`
	RentPrice     *float64 `bson:"rent_price,omitempty" json:"rent_price,omitempty"`

	// LastListingStatus remembers the listing status before a toggle to
	// not_listed so the toggle can restore it.
	LastListingStatus string `bson:"last_listing_status,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// OwnerIDs returns the canonical owner list.
func (p *Property) OwnerIDs() []ident.ID {
	if p == nil {
		return nil
	}
	return p.Owners.IDs
}

// IsUnassigned reports whether no user owns the property.
func (p *Property) IsUnassigned() bool {
	return len(p.OwnerIDs()) == 0
}

// HasOwner reports whether uid is on the ownership list.
func (p *Property) HasOwner(uid ident.ID) bool {
	return ident.Contains(p.OwnerIDs(), uid)
}

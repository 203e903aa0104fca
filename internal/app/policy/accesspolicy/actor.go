// internal/app/policy/accesspolicy/actor.go
package accesspolicy

import (
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/domain/roles"
)

// Actor is everything a decision needs to know about the caller. It is built
// once per request (see authz) and passed by value.
//
// SuperAdmin is the single administrator bypass. It is honored only for an
// actor with a valid UserID.
type Actor struct {
	UserID       ident.ID
	Roles        roles.Set
	Capabilities roles.Capabilities
	SuperAdmin   bool
}

// Authenticated reports whether the actor is a signed-in user.
func (a Actor) Authenticated() bool { return !a.UserID.IsZero() }

func (a Actor) isSuper() bool { return a.Authenticated() && a.SuperAdmin }

func (a Actor) has(c roles.Capability) bool { return a.Capabilities.Has(c) }

func (a Actor) hasAny(rs ...roles.Role) bool {
	return a.Authenticated() && a.Roles.HasAny(rs...)
}

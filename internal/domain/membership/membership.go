// Package membership answers questions about a single group's membership:
// who is in it, in what standing, and how many people it has.
//
// All comparisons use ident.ID, so a member stored as "42" and a user 42 match.
package membership

import (
	"strings"

	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/domain/models"
)

// Standing labels returned by RoleInGroup.
const (
	Coordinator = "Coordinator"
	Member      = "Member"
)

// IsCoordinator reports whether uid coordinates g.
func IsCoordinator(g *models.Group, uid ident.ID) bool {
	if g == nil || g.CoordinatorID == nil || uid.IsZero() {
		return false
	}
	return *g.CoordinatorID == uid
}

func findMember(g *models.Group, uid ident.ID) (models.GroupMember, bool) {
	if g == nil || uid.IsZero() {
		return models.GroupMember{}, false
	}
	for _, m := range g.Members {
		if m.UserID == uid {
			return m, true
		}
	}
	return models.GroupMember{}, false
}

// IsMember reports whether uid is the coordinator or on the member list.
func IsMember(g *models.Group, uid ident.ID) bool {
	if IsCoordinator(g, uid) {
		return true
	}
	_, ok := findMember(g, uid)
	return ok
}

// RoleInGroup returns "Coordinator" when uid coordinates g (even if also
// listed as a member), else the member entry's role ("Member" when blank),
// else "".
func RoleInGroup(g *models.Group, uid ident.ID) string {
	if IsCoordinator(g, uid) {
		return Coordinator
	}
	m, ok := findMember(g, uid)
	if !ok {
		return ""
	}
	if r := strings.TrimSpace(m.Role); r != "" {
		return r
	}
	return Member
}

// MemberCount is 1 for a coordinator (when present) plus the member list.
func MemberCount(g *models.Group) int {
	if g == nil {
		return 0
	}
	n := len(g.Members)
	if g.CoordinatorID != nil && !g.CoordinatorID.IsZero() {
		n++
	}
	return n
}

// HasPendingRequest reports whether uid already asked to join g.
func HasPendingRequest(g *models.Group, uid ident.ID) bool {
	if g == nil || uid.IsZero() {
		return false
	}
	for _, r := range g.Requests {
		if r.UserID == uid && r.Status == models.RequestPending {
			return true
		}
	}
	return false
}

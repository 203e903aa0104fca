// Package accesspolicy decides who may see and change what.
//
// Every function here is pure: it looks only at its arguments. Rules are
// combined with OR, and anything not explicitly allowed is denied. A nil
// resource, an unauthenticated actor or an unknown section always yields
// false.
package accesspolicy

import (
	"github.com/dalemusser/villahub/internal/domain/membership"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/villahub/internal/domain/roles"
	"github.com/dalemusser/villahub/internal/domain/ticketflow"
)

// CanAccessSection reports whether a may open the dashboard section sec.
func CanAccessSection(a Actor, sec Section) bool {
	if !a.Authenticated() {
		return false
	}
	if _, known := ParseSection(string(sec)); !known {
		return false
	}
	if a.isSuper() {
		return true
	}
	switch sec {
	case SectionAnnouncements:
		return true
	case SectionProfile:
		return !a.Roles.IsEmpty()
	}
	return a.Roles.Intersects(sectionRoles[sec])
}

// managesProperties is the elevated property standing: board members, and
// staff who hold the property management capability.
func managesProperties(a Actor) bool {
	return a.hasAny(roles.BoardMember) ||
		(a.hasAny(roles.Staff) && a.has(roles.ManageProperties))
}

// CanCreateProperty reports whether a may add a new property.
func CanCreateProperty(a Actor) bool {
	return a.isSuper() || a.hasAny(roles.Owner) || managesProperties(a)
}

// CanViewProperty reports whether a may read p's details.
func CanViewProperty(a Actor, p *models.Property) bool {
	if p == nil || !a.Authenticated() {
		return false
	}
	return CanMutateProperty(a, p) || a.hasAny(roles.Staff)
}

// CanListAllProperties reports whether a may browse every property rather
// than only the ones they own.
func CanListAllProperties(a Actor) bool {
	return a.isSuper() || a.hasAny(roles.BoardMember, roles.Staff)
}

// CanMutateProperty: listed owner, board member, staff with the property
// capability, or super admin.
func CanMutateProperty(a Actor, p *models.Property) bool {
	if p == nil || !a.Authenticated() {
		return false
	}
	return a.isSuper() || p.HasOwner(a.UserID) || managesProperties(a)
}

// CanDeleteProperty: only an owner who also created the property, or a super
// admin.
func CanDeleteProperty(a Actor, p *models.Property) bool {
	if p == nil || !a.Authenticated() {
		return false
	}
	if a.isSuper() {
		return true
	}
	return p.HasOwner(a.UserID) && p.CreatedBy == a.UserID
}

// CanTransferOwnership reports whether a may replace p's owner list. Listed
// owners cannot reassign a property on their own.
func CanTransferOwnership(a Actor, p *models.Property) bool {
	if p == nil || !a.Authenticated() {
		return false
	}
	return a.isSuper() || managesProperties(a)
}

// CanCreateTicket reports whether a may file a ticket, optionally against p.
// Filing against a property requires being able to act on that property.
func CanCreateTicket(a Actor, p *models.Property) bool {
	if !CanAccessSection(a, SectionTickets) {
		return false
	}
	if p == nil {
		return true
	}
	return CanMutateProperty(a, p)
}

// CanMutateTicket: the ticket's author or a super admin. Owning the linked
// property does not count.
func CanMutateTicket(a Actor, t *models.Ticket) bool {
	if t == nil || !a.Authenticated() {
		return false
	}
	return a.isSuper() || t.AuthorID == a.UserID
}

// CanManageTickets reports whether a holds ticket management rights.
func CanManageTickets(a Actor) bool {
	return a.isSuper() || (a.Authenticated() && a.has(roles.ManageTickets))
}

// CanViewTicket reports whether a may read t.
func CanViewTicket(a Actor, t *models.Ticket) bool {
	return CanMutateTicket(a, t) || (t != nil && CanManageTickets(a))
}

// CanTransitionTicket reports whether a may move t to status to. The move must
// be valid for the lifecycle; reopening needs ticket management rights.
func CanTransitionTicket(a Actor, t *models.Ticket, to ticketflow.Status) bool {
	if t == nil || !a.Authenticated() {
		return false
	}
	from, ok := ticketflow.Parse(t.Status)
	if !ok {
		return false
	}
	if !ticketflow.Allowed(from, to, CanManageTickets(a)) {
		return false
	}
	return CanMutateTicket(a, t) || CanManageTickets(a)
}

// CanMutateGroup: the group's coordinator, a board member, staff, or a super
// admin.
func CanMutateGroup(a Actor, g *models.Group) bool {
	if g == nil || !a.Authenticated() {
		return false
	}
	if a.isSuper() || a.hasAny(roles.BoardMember, roles.Staff) {
		return true
	}
	return membership.RoleInGroup(g, a.UserID) == membership.Coordinator
}

// CanCreateGroup reports whether a may start a new group.
func CanCreateGroup(a Actor) bool {
	return a.isSuper() || (a.Authenticated() && a.hasAny(roles.BoardMember, roles.Staff))
}

// CanRequestMembership reports whether a may ask to join g.
func CanRequestMembership(a Actor, g *models.Group) bool {
	if g == nil || !a.Authenticated() {
		return false
	}
	return !membership.IsMember(g, a.UserID)
}

// CanSeeAnnouncement: untargeted announcements are public to every signed-in
// user; targeted ones need a shared role.
func CanSeeAnnouncement(a Actor, ann *models.Announcement) bool {
	if ann == nil || !a.Authenticated() {
		return false
	}
	if a.isSuper() {
		return true
	}
	// Only a target list with no tags at all is public. Unrecognized tags
	// match nobody, so a list holding only those hides the announcement.
	if ann.TargetRoles.IsEmpty() && len(ann.TargetRoles.Unknown) == 0 {
		return true
	}
	return a.Roles.Intersects(ann.TargetRoles)
}

// VisibleAnnouncements filters list down to what a may see, keeping order.
func VisibleAnnouncements(a Actor, list []models.Announcement) []models.Announcement {
	out := make([]models.Announcement, 0, len(list))
	for i := range list {
		if CanSeeAnnouncement(a, &list[i]) {
			out = append(out, list[i])
		}
	}
	return out
}

// CanPublishAnnouncement reports whether a may post announcements.
func CanPublishAnnouncement(a Actor) bool {
	return a.isSuper() || a.hasAny(roles.BoardMember, roles.Staff)
}

// CanCreateBusiness reports whether a may add a business listing.
func CanCreateBusiness(a Actor) bool {
	return CanAccessSection(a, SectionBusiness)
}

// CanManageBusiness: the listing's author or a super admin.
func CanManageBusiness(a Actor, b *models.Business) bool {
	if b == nil || !a.Authenticated() {
		return false
	}
	return a.isSuper() || b.AuthorID == a.UserID
}

// CanModerateBusiness reports whether a may publish listings written by
// others.
func CanModerateBusiness(a Actor) bool {
	return a.isSuper() || a.hasAny(roles.BoardMember)
}

// CanAssignRoles reports whether a may change other users' roles and
// capabilities.
func CanAssignRoles(a Actor) bool {
	return a.isSuper()
}

// CanViewAuditLog reports whether a may read the audit trail.
func CanViewAuditLog(a Actor) bool {
	return a.isSuper()
}

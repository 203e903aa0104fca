// internal/app/policy/accesspolicy/sections.go
package accesspolicy

import "github.com/dalemusser/villahub/internal/domain/roles"

// Section is one dashboard tab.
type Section string

const (
	SectionProperties    Section = "properties"
	SectionTickets       Section = "tickets"
	SectionAnnouncements Section = "announcements"
	SectionOwnerPortal   Section = "owner_portal"
	SectionBusiness      Section = "business"
	SectionGroups        Section = "groups"
	SectionBilling       Section = "billing"
	SectionProfile       Section = "profile"
)

// Sections is the navigation order of the dashboard.
var Sections = []Section{
	SectionProperties,
	SectionTickets,
	SectionAnnouncements,
	SectionOwnerPortal,
	SectionBusiness,
	SectionGroups,
	SectionBilling,
	SectionProfile,
}

// sectionRoles holds the fixed allow-lists. Announcements and profile are not
// listed: they are decided by authentication and "holds any role".
var sectionRoles = map[Section]roles.Set{
	SectionProperties:  roles.NewSet(roles.Owner, roles.BoardMember, roles.Staff),
	SectionTickets:     roles.NewSet(roles.Owner, roles.CommunityMember, roles.BoardMember, roles.Staff, roles.DepartmentLiaison),
	SectionOwnerPortal: roles.NewSet(roles.Owner, roles.BoardMember),
	SectionBusiness:    roles.NewSet(roles.BusinessPartner, roles.BoardMember, roles.Staff),
	SectionGroups:      roles.NewSet(roles.CommitteeMember, roles.BoardMember, roles.Staff, roles.DepartmentLiaison),
	SectionBilling:     roles.NewSet(roles.Owner, roles.BoardMember, roles.Staff),
}

// ParseSection returns the section named s, or ok=false.
func ParseSection(s string) (Section, bool) {
	for _, sec := range Sections {
		if string(sec) == s {
			return sec, true
		}
	}
	return "", false
}

// AllowedRoles returns the allow-list for sec (empty for announcements,
// profile and unknown sections).
func AllowedRoles(sec Section) roles.Set {
	return sectionRoles[sec]
}

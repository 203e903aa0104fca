package roles

import "strings"

// Capability is a fine-grained grant layered on top of a role, e.g. a staff
// member who handles property records.
type Capability string

const (
	ManageProperties Capability = "manage_properties"
	ManageTickets    Capability = "manage_tickets"
)

// ParseCapability normalizes a raw capability tag.
func ParseCapability(raw string) (Capability, bool) {
	switch c := Capability(strings.ToLower(strings.TrimSpace(raw))); c {
	case ManageProperties, ManageTickets:
		return c, true
	default:
		return "", false
	}
}

// Capabilities is the list stored on a profile.
type Capabilities []Capability

// Has reports whether c is granted.
func (cs Capabilities) Has(c Capability) bool {
	for _, x := range cs {
		if x == c {
			return true
		}
	}
	return false
}

// Normalize drops unknown and repeated capabilities.
func (cs Capabilities) Normalize() Capabilities {
	out := make(Capabilities, 0, len(cs))
	for _, raw := range cs {
		c, ok := ParseCapability(string(raw))
		if !ok || out.Has(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Package roles defines the community role vocabulary and the set type used
// to carry a user's roles.
//
// A user may hold several roles at once. Presence in a Set means the role is
// held; there is no "false" entry. Unknown tags are never admitted into a
// Set, so they cannot grant anything.
package roles

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Role is one community role tag.
type Role string

const (
	Owner             Role = "owner"
	BoardMember       Role = "board_member"
	DepartmentLiaison Role = "department_liaison"
	CommitteeMember   Role = "committee_member"
	Staff             Role = "staff"
	BusinessPartner   Role = "business_partner"
	CommunityMember   Role = "community_member"
)

// All lists the vocabulary in display order.
var All = []Role{
	Owner,
	BoardMember,
	DepartmentLiaison,
	CommitteeMember,
	Staff,
	BusinessPartner,
	CommunityMember,
}

// aliases maps tags found in older profile data to the current vocabulary.
var aliases = map[string]Role{
	"bod":       BoardMember,
	"board":     BoardMember,
	"partner":   BusinessPartner,
	"liaison":   DepartmentLiaison,
	"committee": CommitteeMember,
	"member":    CommunityMember,
}

// Parse normalizes a raw tag (case, spaces, dashes, legacy aliases).
// ok=false means the tag is not part of the vocabulary.
func Parse(raw string) (Role, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	if s == "" {
		return "", false
	}
	if r, ok := aliases[s]; ok {
		return r, true
	}
	for _, r := range All {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// Valid reports whether r is part of the vocabulary.
func (r Role) Valid() bool {
	for _, known := range All {
		if r == known {
			return true
		}
	}
	return false
}

// Set is an unordered, deduplicated collection of roles.
// The zero value is an empty set ready to use for reads; use NewSet or Add
// to build one.
type Set struct {
	m map[Role]struct{}
	// Unknown holds raw tags that were seen while decoding but are not part
	// of the vocabulary. They never grant anything; callers log them.
	Unknown []string
}

// NewSet builds a set from known roles. Invalid entries are skipped.
func NewSet(rs ...Role) Set {
	var s Set
	for _, r := range rs {
		s.Add(r)
	}
	return s
}

// ParseSet builds a set from raw tags, collecting unknown tags.
func ParseSet(tags ...string) Set {
	var s Set
	for _, t := range tags {
		s.addRaw(t)
	}
	return s
}

func (s *Set) addRaw(tag string) {
	if strings.TrimSpace(tag) == "" {
		return
	}
	r, ok := Parse(tag)
	if !ok {
		s.Unknown = append(s.Unknown, tag)
		return
	}
	s.Add(r)
}

// Add inserts r. Adding a role already present is a no-op.
func (s *Set) Add(r Role) bool {
	norm, ok := Parse(string(r))
	if !ok {
		return false
	}
	if s.m == nil {
		s.m = make(map[Role]struct{}, 4)
	}
	if _, has := s.m[norm]; has {
		return false
	}
	s.m[norm] = struct{}{}
	return true
}

// Remove deletes r if present.
func (s *Set) Remove(r Role) {
	if s.m == nil {
		return
	}
	if norm, ok := Parse(string(r)); ok {
		delete(s.m, norm)
	}
}

// Has reports whether r is in the set.
func (s Set) Has(r Role) bool {
	_, ok := s.m[r]
	return ok
}

// Len is the number of known roles held.
func (s Set) Len() int { return len(s.m) }

// IsEmpty reports whether no known role is held.
func (s Set) IsEmpty() bool { return len(s.m) == 0 }

// Intersects reports whether s and other share at least one role.
func (s Set) Intersects(other Set) bool {
	small, big := s, other
	if small.Len() > big.Len() {
		small, big = big, small
	}
	for r := range small.m {
		if big.Has(r) {
			return true
		}
	}
	return false
}

// HasAny reports whether s holds any of rs.
func (s Set) HasAny(rs ...Role) bool {
	for _, r := range rs {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Union returns a new set holding the roles of s and other.
func (s Set) Union(other Set) Set {
	out := NewSet(s.Slice()...)
	for r := range other.m {
		out.Add(r)
	}
	out.Unknown = append(append([]string(nil), s.Unknown...), other.Unknown...)
	return out
}

// Slice returns the roles in vocabulary order.
func (s Set) Slice() []Role {
	out := make([]Role, 0, len(s.m))
	for _, r := range All {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// Strings returns the roles as plain strings in vocabulary order.
func (s Set) Strings() []string {
	rs := s.Slice()
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

// Equal reports whether both sets hold the same known roles.
func (s Set) Equal(other Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for r := range s.m {
		if !other.Has(r) {
			return false
		}
	}
	return true
}

func (s Set) String() string {
	return "{" + strings.Join(s.Strings(), ",") + "}"
}

// MarshalBSONValue writes the set as a sorted string array.
func (s Set) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(s.Strings())
}

// UnmarshalBSONValue reads either the array encoding ["owner", ...] or the
// legacy truthy-map encoding {"owner": true, "bod": "1"}.
func (s *Set) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	*s = Set{}
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		return nil
	case bsontype.String:
		s.addRaw(rv.StringValue())
		return nil
	case bsontype.Array:
		vals, err := bson.Raw(data).Values()
		if err != nil {
			return err
		}
		for _, v := range vals {
			if str, ok := v.StringValueOK(); ok {
				s.addRaw(str)
			}
		}
		return nil
	case bsontype.EmbeddedDocument:
		elems, err := bson.Raw(data).Elements()
		if err != nil {
			return err
		}
		for _, e := range elems {
			if truthy(e.Value()) {
				s.addRaw(e.Key())
			}
		}
		return nil
	default:
		return fmt.Errorf("roles: cannot decode BSON %s into Set", t)
	}
}

// truthy mirrors how the legacy map flagged membership: true, non-zero
// numbers and non-empty strings other than "0"/"false" count as held.
func truthy(v bson.RawValue) bool {
	switch v.Type {
	case bsontype.Boolean:
		return v.Boolean()
	case bsontype.Int32:
		return v.Int32() != 0
	case bsontype.Int64:
		return v.Int64() != 0
	case bsontype.Double:
		return v.Double() != 0
	case bsontype.String:
		str := strings.ToLower(strings.TrimSpace(v.StringValue()))
		return str != "" && str != "0" && str != "false"
	default:
		return false
	}
}

// MarshalJSON writes the set as a string array.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// UnmarshalJSON reads a string array or a truthy map.
func (s *Set) UnmarshalJSON(b []byte) error {
	*s = Set{}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		for _, t := range list {
			s.addRaw(t)
		}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("roles: expected array or object: %w", err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := m[k].(type) {
		case bool:
			if v {
				s.addRaw(k)
			}
		case float64:
			if v != 0 {
				s.addRaw(k)
			}
		case string:
			if v != "" && v != "0" && strings.ToLower(v) != "false" {
				s.addRaw(k)
			}
		}
	}
	return nil
}

// Package ident defines the canonical identifier used for every record
// (users, properties, tickets, groups, ...).
//
// Older data stores the same id as a number in one place and as a string in
// another. Every ownership and membership check compares ids, so the values
// are normalized to ID at the decode boundary instead of at each comparison.
package ident

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// ID is a positive 64-bit record identifier. The zero value means "none".
type ID int64

// Zero is the "no id" value.
const Zero ID = 0

// IsZero reports whether id is unset.
func (id ID) IsZero() bool { return id <= 0 }

// String renders the id in base 10.
func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

// Parse normalizes a loosely typed value into an ID.
// Accepted: integer kinds, whole floats, decimal strings (surrounding spaces
// ignored). Anything else, and any value <= 0, returns ok=false.
func Parse(v any) (ID, bool) {
	var n int64
	switch x := v.(type) {
	case ID:
		n = int64(x)
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case uint32:
		n = int64(x)
	case float64:
		if x != math.Trunc(x) || x > math.MaxInt64 {
			return Zero, false
		}
		n = int64(x)
	case string:
		p, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return Zero, false
		}
		n = p
	case json.Number:
		p, err := x.Int64()
		if err != nil {
			return Zero, false
		}
		n = p
	default:
		return Zero, false
	}
	if n <= 0 {
		return Zero, false
	}
	return ID(n), true
}

// MustParse is Parse for tests and constants; it panics on bad input.
func MustParse(v any) ID {
	id, ok := Parse(v)
	if !ok {
		panic(fmt.Sprintf("ident: cannot parse %v (%T)", v, v))
	}
	return id
}

// Contains reports whether ids holds id. A zero id is never contained.
func Contains(ids []ID, id ID) bool {
	if id.IsZero() {
		return false
	}
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// Dedupe returns ids without zero values or repeats, keeping first-seen order.
func Dedupe(ids []ID) []ID {
	out := make([]ID, 0, len(ids))
	seen := make(map[ID]struct{}, len(ids))
	for _, id := range ids {
		if id.IsZero() {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// LooseMatches returns the values a legacy document may hold for id:
// the canonical integer and its decimal string. Use it in $in filters.
func LooseMatches(id ID) []any {
	return []any{int64(id), id.String()}
}

// UnmarshalBSONValue accepts int32, int64, double and decimal strings.
// Null decodes to Zero.
func (id *ID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	var src any
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*id = Zero
		return nil
	case bsontype.Int32:
		src = rv.Int32()
	case bsontype.Int64:
		src = rv.Int64()
	case bsontype.Double:
		src = rv.Double()
	case bsontype.String:
		src = rv.StringValue()
	case bsontype.Decimal128:
		src = rv.Decimal128().String()
	default:
		return fmt.Errorf("ident: cannot decode BSON %s into ID", t)
	}
	parsed, ok := Parse(src)
	if !ok {
		return fmt.Errorf("ident: invalid id %v", src)
	}
	*id = parsed
	return nil
}

// UnmarshalJSON accepts numbers and numeric strings.
func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = Zero
		return nil
	}
	s = strings.Trim(s, `"`)
	parsed, ok := Parse(s)
	if !ok {
		return fmt.Errorf("ident: invalid id %s", string(b))
	}
	*id = parsed
	return nil
}

// List decodes an array whose elements may be mixed numbers and strings.
// Elements that cannot be normalized are dropped and counted in Dropped so
// callers can log them; they never grant membership.
type List struct {
	IDs     []ID
	Dropped int
}

// UnmarshalBSONValue decodes a BSON array leniently.
func (l *List) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	l.IDs = nil
	l.Dropped = 0
	if t == bsontype.Null || t == bsontype.Undefined {
		return nil
	}
	if t != bsontype.Array {
		return fmt.Errorf("ident: expected array, got %s", t)
	}
	vals, err := bson.Raw(data).Values()
	if err != nil {
		return err
	}
	for _, v := range vals {
		var id ID
		if err := id.UnmarshalBSONValue(v.Type, v.Value); err != nil || id.IsZero() {
			l.Dropped++
			continue
		}
		l.IDs = append(l.IDs, id)
	}
	return nil
}

// MarshalBSONValue always writes the canonical integer array.
func (l List) MarshalBSONValue() (bsontype.Type, []byte, error) {
	arr := make(bson.A, 0, len(l.IDs))
	for _, id := range l.IDs {
		arr = append(arr, int64(id))
	}
	return bson.MarshalValue(arr)
}

// ToInt64s converts ids for use in $in filters.
func ToInt64s(ids []ID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

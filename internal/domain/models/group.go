// internal/domain/models/group.go
package models

import (
	"time"

	"github.com/dalemusser/villahub/internal/app/system/ident"
	"go.mongodb.org/mongo-driver/bson"
)

// Group types. The type is a filter tag only; it does not change access rules.
const (
	GroupCommittee = "committee"
	GroupStaff     = "staff"
	GroupBoard     = "board"
)

// Group is a committee, board or staff team.
//
// Membership is embedded: Members holds the accepted members and Requests
// the pending join requests. Version is bumped on every membership write.
type Group struct {
	ID            ident.ID  `bson:"_id" json:"id"`
	Name          string    `bson:"name" json:"name"`
	NameCI        string    `bson:"name_ci" json:"-"`
	Description   string    `bson:"description" json:"description"`
	Type          string    `bson:"type" json:"type"`
	CoordinatorID *ident.ID `bson:"coordinator_id,omitempty" json:"coordinator_id,omitempty"`

	Members  []GroupMember       `bson:"members" json:"members"`
	Requests []MembershipRequest `bson:"requests" json:"-"`
	Version  int64               `bson:"version" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// GroupMember is one membership record. Role is the role within the group
// (e.g. "Secretary"); blank means a plain member.
type GroupMember struct {
	UserID   ident.ID  `bson:"user_id" json:"user_id"`
	Role     string    `bson:"role" json:"role"`
	JoinDate time.Time `bson:"join_date" json:"join_date"`
	Status   string    `bson:"status" json:"status"`
}

// UnmarshalBSON keeps a member record with an unusable user_id instead of
// failing the whole group; its UserID stays zero and never matches anyone.
func (m *GroupMember) UnmarshalBSON(data []byte) error {
	var aux struct {
		UserID   bson.RawValue `bson:"user_id"`
		Role     string        `bson:"role"`
		JoinDate time.Time     `bson:"join_date"`
		Status   string        `bson:"status"`
	}
	if err := bson.Unmarshal(data, &aux); err != nil {
		return err
	}
	var uid ident.ID
	if err := uid.UnmarshalBSONValue(aux.UserID.Type, aux.UserID.Value); err != nil {
		uid = ident.Zero
	}
	*m = GroupMember{UserID: uid, Role: aux.Role, JoinDate: aux.JoinDate, Status: aux.Status}
	return nil
}

const (
	MemberActive   = "active"
	MemberInactive = "inactive"

	RequestPending = "pending"
)

// MembershipRequest is a pending join request awaiting coordinator approval.
type MembershipRequest struct {
	UserID      ident.ID  `bson:"user_id" json:"user_id"`
	RequestedAt time.Time `bson:"requested_at" json:"requested_at"`
	Status      string    `bson:"status" json:"status"`
}

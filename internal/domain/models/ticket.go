// internal/domain/models/ticket.go
package models

import (
	"time"

	"github.com/dalemusser/villahub/internal/app/system/ident"
)

// Ticket statuses.
const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
)

// Ticket priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Ticket is a support request. It belongs to its author; being an owner of
// the linked property does not make someone the ticket's owner.
type Ticket struct {
	ID          ident.ID  `bson:"_id" json:"id"`
	AuthorID    ident.ID  `bson:"author_id" json:"author_id"`
	PropertyID  *ident.ID `bson:"property_id,omitempty" json:"property_id,omitempty"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description" json:"description"`
	Type        string    `bson:"type" json:"type"`
	Category    string    `bson:"category" json:"category"`
	Priority    string    `bson:"priority" json:"priority"`
	Status      string    `bson:"status" json:"status"`

	// Activity is append-only.
	Activity []TicketActivity `bson:"activity" json:"activity"`

	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	LastUpdate time.Time `bson:"last_update" json:"last_update"`
}

// TicketActivity records one mutation of a ticket.
type TicketActivity struct {
	ID      string    `bson:"id" json:"id"`
	ActorID ident.ID  `bson:"actor_id" json:"actor_id"`
	Action  string    `bson:"action" json:"action"` // created | updated | status_changed
	From    string    `bson:"from,omitempty" json:"from,omitempty"`
	To      string    `bson:"to,omitempty" json:"to,omitempty"`
	Note    string    `bson:"note,omitempty" json:"note,omitempty"`
	At      time.Time `bson:"at" json:"at"`
}

const (
	ActivityCreated       = "created"
	ActivityUpdated       = "updated"
	ActivityStatusChanged = "status_changed"
)

// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/villahub/internal/app/store/audit"
	"github.com/dalemusser/villahub/internal/app/system/ident"
)

// listItem is one audit event as returned to the client.
type listItem struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Category   string            `json:"category"`
	EventType  string            `json:"event_type"`
	ActorID    *ident.ID         `json:"actor_id,omitempty"`
	ActorName  string            `json:"actor_name,omitempty"`
	TargetID   *ident.ID         `json:"target_id,omitempty"`
	TargetName string            `json:"target_name,omitempty"`
	IP         string            `json:"ip,omitempty"`
	Success    bool              `json:"success"`
	Reason     string            `json:"failure_reason,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

type listData struct {
	Items []listItem `json:"items"`

	Category  string `json:"category,omitempty"`
	EventType string `json:"event_type,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`

	EventTypes []string `json:"event_types"`

	Page       int   `json:"page"`
	TotalPages int   `json:"total_pages"`
	Total      int64 `json:"total"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

var authEvents = []string{
	audit.EventLoginSuccess,
	audit.EventLoginFailedUserNotFound,
	audit.EventLoginFailedWrongPassword,
	audit.EventLoginFailedUserDisabled,
	audit.EventLoginFailedRateLimit,
	audit.EventLogout,
}

var adminEvents = []string{
	audit.EventRolesChanged,
	audit.EventCapabilitiesChanged,
	audit.EventPropertyDeleted,
	audit.EventOwnershipTransferred,
	audit.EventTicketReopened,
	audit.EventMembershipRequested,
	audit.EventBusinessStatusChanged,
	audit.EventSuperAdminBootstrap,
}

// eventTypesForCategory returns the event types for a category; all of them
// when category is empty and nil for an unknown category.
func eventTypesForCategory(category string) []string {
	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(adminEvents))
		all = append(all, authEvents...)
		return append(all, adminEvents...)
	default:
		return nil
	}
}

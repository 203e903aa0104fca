// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/villahub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/villahub/internal/app/store/audit"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

const pageSize = 50

const dateLayout = "2006-01-02"

// ServeList handles GET /audit with optional category, event_type,
// start_date, end_date (YYYY-MM-DD) and page filters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)
	if !h.Authz.Record("audit.view", accesspolicy.CanViewAuditLog(act)) {
		jsonresp.Denied(w)
		return
	}

	q := r.URL.Query()
	category := strings.TrimSpace(q.Get("category"))
	eventType := strings.TrimSpace(q.Get("event_type"))
	startDate := strings.TrimSpace(q.Get("start_date"))
	endDate := strings.TrimSpace(q.Get("end_date"))

	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}

	eventTypes := eventTypesForCategory(category)
	fields := map[string]string{}
	if eventTypes == nil {
		fields["category"] = "must be auth or admin"
	}
	if eventType != "" && !slices.Contains(eventTypes, eventType) {
		fields["event_type"] = "is not an event of the selected category"
	}

	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}
	if startDate != "" {
		t, err := time.Parse(dateLayout, startDate)
		if err != nil {
			fields["start_date"] = "must be YYYY-MM-DD"
		} else {
			filter.StartTime = &t
		}
	}
	if endDate != "" {
		t, err := time.Parse(dateLayout, endDate)
		if err != nil {
			fields["end_date"] = "must be YYYY-MM-DD"
		} else {
			endOfDay := t.Add(24*time.Hour - time.Nanosecond)
			filter.EndTime = &endOfDay
		}
	}
	if uid := strings.TrimSpace(q.Get("user_id")); uid != "" {
		id, ok := ident.Parse(uid)
		if !ok {
			fields["user_id"] = "must be a user id"
		} else {
			filter.UserID = &id
		}
	}
	if len(fields) > 0 {
		jsonresp.Invalid(w, fields)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.Log.Error("failed to query audit events", zap.Error(err))
		jsonresp.ServerError(w)
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		h.Log.Error("failed to count audit events", zap.Error(err))
		jsonresp.ServerError(w)
		return
	}

	var ids []ident.ID
	for _, e := range events {
		if e.ActorID != nil {
			ids = append(ids, *e.ActorID)
		}
		if e.UserID != nil {
			ids = append(ids, *e.UserID)
		}
	}
	names := map[ident.ID]string{}
	if ids = ident.Dedupe(ids); len(ids) > 0 {
		if names, err = h.Users.NamesByID(ctx, ids); err != nil {
			// Ids still identify the accounts.
			h.Log.Warn("failed to fetch user names for audit log", zap.Error(err))
			names = map[ident.ID]string{}
		}
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:        e.ID.Hex(),
			Timestamp: e.Timestamp,
			Category:  e.Category,
			EventType: e.EventType,
			ActorID:   e.ActorID,
			TargetID:  e.UserID,
			IP:        e.IP,
			Success:   e.Success,
			Reason:    e.FailureReason,
			Details:   e.Details,
		}
		if e.ActorID != nil {
			item.ActorName = names[*e.ActorID]
		}
		if e.UserID != nil {
			item.TargetName = names[*e.UserID]
		}
		items = append(items, item)
	}

	totalPages := max(int((total+pageSize-1)/pageSize), 1)

	jsonresp.OK(w, listData{
		Items:      items,
		Category:   category,
		EventType:  eventType,
		StartDate:  startDate,
		EndDate:    endDate,
		EventTypes: eventTypes,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	})
}

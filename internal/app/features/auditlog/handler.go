// internal/app/features/auditlog/handler.go
package auditlog

import (
	"context"

	"github.com/dalemusser/villahub/internal/app/store/audit"
	"github.com/dalemusser/villahub/internal/app/system/authz"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"go.uber.org/zap"
)

// EventSource is the slice of the audit store the viewer reads.
type EventSource interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
	CountByFilter(ctx context.Context, filter audit.QueryFilter) (int64, error)
}

// NameResolver turns user ids into display names.
type NameResolver interface {
	NamesByID(ctx context.Context, ids []ident.ID) (map[ident.ID]string, error)
}

type Handler struct {
	Authz  *authz.Authorizer
	Events EventSource
	Users  NameResolver
	Log    *zap.Logger
}

// NewHandler constructs the audit trail viewer.
func NewHandler(az *authz.Authorizer, events EventSource, users NameResolver, logger *zap.Logger) *Handler {
	return &Handler{
		Authz:  az,
		Events: events,
		Users:  users,
		Log:    logger,
	}
}

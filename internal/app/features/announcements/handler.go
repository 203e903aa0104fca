// internal/app/features/announcements/handler.go
package announcements

import (
	"context"
	"errors"

	announcementstore "github.com/dalemusser/villahub/internal/app/store/announcements"
	"github.com/dalemusser/villahub/internal/app/system/authz"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/domain/models"
	"go.uber.org/zap"
)

// ReadState stores which announcements a user has read.
type ReadState interface {
	MarkAnnouncementRead(ctx context.Context, uid, annID ident.ID) error
	ReadAnnouncements(ctx context.Context, uid ident.ID) ([]ident.ID, error)
}

// Handler owns all announcement handlers.
type Handler struct {
	Authz *authz.Authorizer
	Store *announcementstore.Store
	Reads ReadState
	Log   *zap.Logger
}

// NewHandler constructs an announcements Handler.
func NewHandler(store *announcementstore.Store, reads ReadState, az *authz.Authorizer, logger *zap.Logger) *Handler {
	return &Handler{
		Authz: az,
		Store: store,
		Reads: reads,
		Log:   logger,
	}
}

// View is an announcement with the caller's read flag.
type View struct {
	models.Announcement
	Read bool `json:"read"`
}

// warnUnknownTargets logs target tags outside the role vocabulary. They
// match no reader.
func (h *Handler) warnUnknownTargets(a *models.Announcement) {
	if len(a.TargetRoles.Unknown) == 0 {
		return
	}
	h.Log.Warn("announcement targets unknown roles",
		zap.Int64("announcement_id", int64(a.ID)),
		zap.Strings("tags", a.TargetRoles.Unknown))
}

func storeError(err error) error {
	if errors.Is(err, announcementstore.ErrNotFound) {
		return jsonresp.ErrDenied
	}
	return err
}

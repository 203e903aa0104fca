// internal/app/features/properties/delete.go
package properties

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/villahub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/villahub/internal/app/store/audit"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/app/system/timeouts"
	"github.com/dalemusser/villahub/internal/app/system/txn"
	"go.uber.org/zap"
)

// DeleteProperty removes pid on behalf of act. Tickets filed against the
// property stay with their authors and lose the property link; both writes
// commit together.
func (h *Handler) DeleteProperty(ctx context.Context, r *http.Request, act accesspolicy.Actor, pid ident.ID) error {
	p, ok := h.Authz.CanDeleteProperty(ctx, act, pid)
	if !ok {
		return jsonresp.ErrDenied
	}

	var detached int64
	err := txn.Run(ctx, h.DB.Client(), func(ctx context.Context) error {
		if err := h.Properties.Delete(ctx, pid); err != nil {
			return err
		}
		n, err := h.Tickets.DetachProperty(ctx, pid, act.UserID)
		detached = n
		return err
	}, h.Log)
	if err != nil {
		return storeError(err)
	}

	h.Log.Info("property deleted",
		zap.Int64("property_id", int64(pid)),
		zap.Int64("user_id", int64(act.UserID)),
		zap.Int64("tickets_detached", detached))
	h.Audit.Admin(ctx, r, audit.EventPropertyDeleted, act.UserID, ident.Zero, map[string]string{
		"property_id":      pid.String(),
		"title":            p.Title,
		"owners":           idStrings(p.OwnerIDs()),
		"tickets_detached": strconv.FormatInt(detached, 10),
	})
	return nil
}

type deleteData struct {
	ID      ident.ID `json:"id"`
	Deleted bool     `json:"deleted"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /properties/{id}                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pid := idParam(r)
	if err := h.DeleteProperty(ctx, r, act, pid); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, deleteData{ID: pid, Deleted: true})
}

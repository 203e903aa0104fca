// internal/app/features/announcements/announcements.go
package announcements

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/villahub/internal/app/policy/accesspolicy"
	"github.com/dalemusser/villahub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/inputval"
	"github.com/dalemusser/villahub/internal/app/system/jsonresp"
	"github.com/dalemusser/villahub/internal/app/system/timeouts"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/villahub/internal/domain/roles"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// recentLimit bounds how far back the list looks before audience filtering.
const recentLimit = 200

type listData struct {
	Announcements []View `json:"announcements"`
	Unread        int    `json:"unread"`
}

// List returns the announcements visible to the caller, newest first, each
// flagged read or unread.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)
	if !h.Authz.CanAccessSection(act, accesspolicy.SectionAnnouncements) {
		jsonresp.Denied(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	all, err := h.Store.ListRecent(ctx, recentLimit)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	read, err := h.Reads.ReadAnnouncements(ctx, act.UserID)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}

	for i := range all {
		h.warnUnknownTargets(&all[i])
	}
	visible := accesspolicy.VisibleAnnouncements(act, all)
	data := listData{Announcements: make([]View, 0, len(visible))}
	for _, a := range visible {
		isRead := ident.Contains(read, a.ID)
		if !isRead {
			data.Unread++
		}
		data.Announcements = append(data.Announcements, View{Announcement: a, Read: isRead})
	}
	jsonresp.OK(w, data)
}

type createInput struct {
	Title       string   `json:"title" validate:"notblank,max=200"`
	Content     string   `json:"content" validate:"notblank,max=50000"`
	TargetRoles []string `json:"target_roles" validate:"dive,villa_role"`
}

// Create publishes an announcement. An empty target list addresses
// everyone.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)
	if !h.Authz.Record("announcement.publish", accesspolicy.CanPublishAnnouncement(act)) {
		jsonresp.Denied(w)
		return
	}

	var in createInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	in.Title = strings.TrimSpace(in.Title)
	if fe := inputval.Struct(in); fe != nil {
		jsonresp.Invalid(w, fe)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := h.Store.Create(ctx, models.Announcement{
		Title:       in.Title,
		Content:     htmlsanitize.Prepare(in.Content),
		TargetRoles: roles.ParseSet(in.TargetRoles...),
		AuthorID:    act.UserID,
	})
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	h.Log.Info("announcement published",
		zap.Int64("announcement_id", int64(a.ID)),
		zap.Int64("user_id", int64(act.UserID)),
		zap.Strings("target_roles", a.TargetRoles.Strings()))
	jsonresp.Created(w, View{Announcement: a})
}

// Show returns one announcement the caller is in the audience of.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := h.visible(ctx, act, idParam(r))
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	read, err := h.Reads.ReadAnnouncements(ctx, act.UserID)
	if err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, View{Announcement: *a, Read: ident.Contains(read, a.ID)})
}

// visible loads annID and checks that act is in its audience.
func (h *Handler) visible(ctx context.Context, act accesspolicy.Actor, annID ident.ID) (*models.Announcement, error) {
	a, err := h.Store.GetByID(ctx, annID)
	if err != nil {
		h.Authz.Record("announcement.view", false)
		return nil, storeError(err)
	}
	h.warnUnknownTargets(a)
	if !h.Authz.Record("announcement.view", accesspolicy.CanSeeAnnouncement(act, a)) {
		return nil, jsonresp.ErrDenied
	}
	return a, nil
}

// MarkRead records that act has read annID. Only announcements act can see
// may be marked; marking twice is harmless.
func (h *Handler) MarkRead(ctx context.Context, act accesspolicy.Actor, annID ident.ID) error {
	if _, err := h.visible(ctx, act, annID); err != nil {
		return err
	}
	return h.Reads.MarkAnnouncementRead(ctx, act.UserID, annID)
}

type readData struct {
	ID   ident.ID `json:"id"`
	Read bool     `json:"read"`
}

// HandleMarkRead is the REST form of MarkRead.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id := idParam(r)
	if err := h.MarkRead(ctx, act, id); err != nil {
		jsonresp.Error(w, r, h.Log, err)
		return
	}
	jsonresp.OK(w, readData{ID: id, Read: true})
}

// Delete removes an announcement. Publishers may delete any announcement.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	act := h.Authz.ActorFor(r)
	if !h.Authz.Record("announcement.delete", accesspolicy.CanPublishAnnouncement(act)) {
		jsonresp.Denied(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id := idParam(r)
	if err := h.Store.Delete(ctx, id); err != nil {
		jsonresp.Error(w, r, h.Log, storeError(err))
		return
	}
	h.Log.Info("announcement deleted", zap.Int64("announcement_id", int64(id)), zap.Int64("user_id", int64(act.UserID)))
	jsonresp.OK(w, struct {
		ID      ident.ID `json:"id"`
		Deleted bool     `json:"deleted"`
	}{id, true})
}

func idParam(r *http.Request) ident.ID {
	id, _ := ident.Parse(chi.URLParam(r, "id"))
	return id
}

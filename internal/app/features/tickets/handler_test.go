package tickets_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/villahub/internal/app/features/tickets"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/metrics"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/villahub/internal/domain/roles"
	"github.com/dalemusser/villahub/internal/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandler(db *mongo.Database, m *metrics.Metrics) *tickets.Handler {
	return tickets.NewHandler(db, testutil.NewAuthorizer(db), m, nil, zap.NewNop())
}

func transition(t *testing.T, h *tickets.Handler, u models.User, id ident.ID, to string) *testutil.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(http.MethodPost, "/tickets/"+id.String()+"/transition", map[string]string{"to": to})
	req = testutil.WithChiURLParam(testutil.WithUser(req, u), "id", id.String())
	rec := testutil.NewRecorder()
	h.HandleTransition(rec, req)
	return rec
}

func setStatus(t *testing.T, db *mongo.Database, id ident.ID, status string) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := db.Collection("tickets").UpdateOne(ctx, bson.M{"_id": int64(id)}, bson.M{"$set": bson.M{"status": status}}); err != nil {
		t.Fatalf("set status: %v", err)
	}
}

func TestHandleCreate_AgainstProperty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "owner")
	other := fx.CreateUser(ctx, "other")
	fx.GiveRoles(ctx, owner.ID, []roles.Role{roles.Owner})
	fx.GiveRoles(ctx, other.ID, []roles.Role{roles.Owner})
	mine := fx.CreateProperty(ctx, "Villa 1", owner.ID, owner.ID)
	theirs := fx.CreateProperty(ctx, "Villa 2", other.ID, other.ID)

	h := newHandler(db, nil)

	req := testutil.NewJSONRequest(http.MethodPost, "/tickets", map[string]any{
		"title":       "Leaking tap",
		"description": "<p>Kitchen</p><script>alert(1)</script>",
		"property_id": int64(mine.ID),
	})
	rec := testutil.NewRecorder()
	h.HandleCreate(rec, testutil.WithUser(req, owner))
	rec.AssertStatus(t, http.StatusCreated)

	var v tickets.View
	rec.DecodeEnvelope(t, &v)
	if v.AuthorID != owner.ID || v.Status != models.TicketOpen || v.PropertyID == nil || *v.PropertyID != mine.ID {
		t.Errorf("unexpected ticket %+v", v.Ticket)
	}
	if v.Description != "<p>Kitchen</p>" {
		t.Errorf("description not sanitized: %q", v.Description)
	}

	for _, pid := range []int64{int64(theirs.ID), 999999} {
		req = testutil.NewJSONRequest(http.MethodPost, "/tickets", map[string]any{"title": "Noise", "property_id": pid})
		rec = testutil.NewRecorder()
		h.HandleCreate(rec, testutil.WithUser(req, owner))
		rec.AssertDenied(t)
	}
}

func TestHandleCreate_NoTicketSection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	partner := fx.CreateUser(ctx, "partner")
	fx.GiveRoles(ctx, partner.ID, []roles.Role{roles.BusinessPartner})

	req := testutil.NewJSONRequest(http.MethodPost, "/tickets", map[string]any{"title": "Hello"})
	rec := testutil.NewRecorder()
	newHandler(db, nil).HandleCreate(rec, testutil.WithUser(req, partner))
	rec.AssertDenied(t)
}

func TestHandleUpdate_PropertyOwnerIsNotTicketOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateUser(ctx, "owner")
	tenant := fx.CreateUser(ctx, "tenant")
	fx.GiveRoles(ctx, owner.ID, []roles.Role{roles.Owner})
	fx.GiveRoles(ctx, tenant.ID, []roles.Role{roles.CommunityMember})
	p := fx.CreateProperty(ctx, "Villa 1", owner.ID, owner.ID)
	pid := p.ID
	tk := fx.CreateTicket(ctx, "Broken gate", tenant.ID, &pid)

	h := newHandler(db, nil)
	id := tk.ID.String()
	body := map[string]any{"priority": "high"}

	req := testutil.NewJSONRequest(http.MethodPut, "/tickets/"+id, body)
	rec := testutil.NewRecorder()
	h.HandleUpdate(rec, testutil.WithChiURLParam(testutil.WithUser(req, owner), "id", id))
	rec.AssertDenied(t)

	req = testutil.NewJSONRequest(http.MethodPut, "/tickets/"+id, body)
	rec = testutil.NewRecorder()
	h.HandleUpdate(rec, testutil.WithChiURLParam(testutil.WithUser(req, tenant), "id", id))
	rec.AssertStatus(t, http.StatusOK)

	var v tickets.View
	rec.DecodeEnvelope(t, &v)
	if v.Priority != models.PriorityHigh || v.Title != "Broken gate" {
		t.Errorf("unexpected ticket after update %+v", v.Ticket)
	}
	if n := len(v.Activity); n != 1 || v.Activity[0].Action != models.ActivityUpdated {
		t.Errorf("expected one updated activity entry, got %+v", v.Activity)
	}

	req = testutil.NewJSONRequest(http.MethodPut, "/tickets/"+id, map[string]any{"priority": "asap"})
	rec = testutil.NewRecorder()
	h.HandleUpdate(rec, testutil.WithChiURLParam(testutil.WithUser(req, tenant), "id", id))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleTransition(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fx.CreateUser(ctx, "author")
	manager := fx.CreateUser(ctx, "manager")
	fx.GiveRoles(ctx, author.ID, []roles.Role{roles.CommunityMember})
	fx.GiveRoles(ctx, manager.ID, []roles.Role{roles.Staff}, roles.ManageTickets)
	tk := fx.CreateTicket(ctx, "Streetlight", author.ID, nil)

	m := metrics.NewMetrics(nil)
	h := newHandler(db, m)

	transition(t, h, author, tk.ID, "resolved").AssertStatus(t, http.StatusOK)
	transition(t, h, author, tk.ID, "open").AssertDenied(t)
	transition(t, h, author, tk.ID, "resolved").AssertDenied(t)
	transition(t, h, author, tk.ID, "closed").AssertStatus(t, http.StatusOK)

	// Reopening needs ticket management rights.
	transition(t, h, author, tk.ID, "open").AssertDenied(t)
	rec := transition(t, h, manager, tk.ID, "open")
	rec.AssertStatus(t, http.StatusOK)

	var v tickets.View
	rec.DecodeEnvelope(t, &v)
	if v.Status != models.TicketOpen {
		t.Errorf("status = %q, want open", v.Status)
	}
	last := v.Activity[len(v.Activity)-1]
	if last.Action != models.ActivityStatusChanged || last.From != "closed" || last.To != "open" || last.ActorID != manager.ID {
		t.Errorf("unexpected last activity %+v", last)
	}

	if got := promtest.ToFloat64(m.TicketTransitions.WithLabelValues("open")); got != 1 {
		t.Errorf("open transitions = %v, want 1", got)
	}
	if got := promtest.ToFloat64(m.TicketTransitions.WithLabelValues("resolved")); got != 1 {
		t.Errorf("resolved transitions = %v, want 1", got)
	}

	rec = transition(t, h, manager, tk.ID, "done")
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeShowAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fx.CreateUser(ctx, "author")
	neighbor := fx.CreateUser(ctx, "neighbor")
	manager := fx.CreateUser(ctx, "manager")
	fx.GiveRoles(ctx, author.ID, []roles.Role{roles.Owner})
	fx.GiveRoles(ctx, neighbor.ID, []roles.Role{roles.Owner})
	fx.GiveRoles(ctx, manager.ID, []roles.Role{roles.Staff}, roles.ManageTickets)
	a := fx.CreateTicket(ctx, "Pool", author.ID, nil)
	b := fx.CreateTicket(ctx, "Gym", neighbor.ID, nil)
	setStatus(t, db, b.ID, models.TicketResolved)

	h := newHandler(db, nil)
	id := a.ID.String()

	rec := testutil.NewRecorder()
	h.ServeShow(rec, testutil.WithChiURLParam(testutil.NewAuthenticatedRequest(http.MethodGet, "/tickets/"+id, neighbor), "id", id))
	rec.AssertDenied(t)

	rec = testutil.NewRecorder()
	h.ServeShow(rec, testutil.WithChiURLParam(testutil.NewAuthenticatedRequest(http.MethodGet, "/tickets/"+id, manager), "id", id))
	rec.AssertStatus(t, http.StatusOK)
	var shown tickets.View
	rec.DecodeEnvelope(t, &shown)
	if shown.AuthorOwnsProperty {
		t.Error("a ticket without a property has no owning author")
	}

	var list struct {
		Scope   string         `json:"scope"`
		Tickets []tickets.View `json:"tickets"`
	}
	rec = testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/tickets", author))
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeEnvelope(t, &list)
	if len(list.Tickets) != 1 || list.Tickets[0].ID != a.ID {
		t.Errorf("author should see only their ticket, got %+v", list.Tickets)
	}

	rec = testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/tickets?scope=all", author))
	rec.AssertDenied(t)

	rec = testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/tickets?scope=all&status=resolved", manager))
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeEnvelope(t, &list)
	if list.Scope != "all" || len(list.Tickets) != 1 || list.Tickets[0].ID != b.ID {
		t.Errorf("expected only the resolved ticket, got %+v", list.Tickets)
	}

	home := fx.CreateProperty(ctx, "12 Palm Way", manager.ID, author.ID)
	c := fx.CreateTicket(ctx, "Roof", author.ID, &home.ID)
	cid := c.ID.String()
	rec = testutil.NewRecorder()
	h.ServeShow(rec, testutil.WithChiURLParam(testutil.NewAuthenticatedRequest(http.MethodGet, "/tickets/"+cid, manager), "id", cid))
	rec.AssertStatus(t, http.StatusOK)
	var owned tickets.View
	rec.DecodeEnvelope(t, &owned)
	if !owned.AuthorOwnsProperty {
		t.Error("expected author_owns_property for a ticket on the author's own property")
	}
}

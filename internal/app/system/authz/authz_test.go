package authz_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/villahub/internal/app/policy/accesspolicy"
	groupstore "github.com/dalemusser/villahub/internal/app/store/groups"
	profilestore "github.com/dalemusser/villahub/internal/app/store/profiles"
	propertystore "github.com/dalemusser/villahub/internal/app/store/properties"
	ticketstore "github.com/dalemusser/villahub/internal/app/store/tickets"
	"github.com/dalemusser/villahub/internal/app/system/auth"
	"github.com/dalemusser/villahub/internal/app/system/authz"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/metrics"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/villahub/internal/domain/roles"
	"github.com/dalemusser/villahub/internal/domain/ticketflow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeProfiles struct {
	m   map[ident.ID]models.Profile
	err error
}

func (f fakeProfiles) Get(_ context.Context, uid ident.ID) (models.Profile, error) {
	if f.err != nil {
		return models.Profile{}, f.err
	}
	p, ok := f.m[uid]
	if !ok {
		return models.Profile{}, profilestore.ErrNotFound
	}
	return p, nil
}

type fakeProperties map[ident.ID]*models.Property

func (f fakeProperties) GetByID(_ context.Context, id ident.ID) (*models.Property, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, propertystore.ErrNotFound
}

type fakeTickets map[ident.ID]*models.Ticket

func (f fakeTickets) GetByID(_ context.Context, id ident.ID) (*models.Ticket, error) {
	if t, ok := f[id]; ok {
		return t, nil
	}
	return nil, ticketstore.ErrNotFound
}

type fakeGroups map[ident.ID]*models.Group

func (f fakeGroups) GetByID(_ context.Context, id ident.ID) (*models.Group, error) {
	if g, ok := f[id]; ok {
		return g, nil
	}
	return nil, groupstore.ErrNotFound
}

// community builds the fixture used by the owner and ticket scenarios:
// user 42 owns properties 101 and 102; user 7 filed ticket 55 on 101.
func community() authz.Sources {
	pid := ident.ID(101)
	return authz.Sources{
		Profiles: fakeProfiles{m: map[ident.ID]models.Profile{
			42: {UserID: 42, Roles: roles.NewSet(roles.Owner)},
			7:  {UserID: 7, Roles: roles.NewSet(roles.CommunityMember)},
			9:  {UserID: 9, Roles: roles.NewSet(roles.Staff), Capabilities: roles.Capabilities{roles.ManageTickets}},
		}},
		Properties: fakeProperties{
			101: {ID: 101, Owners: ident.List{IDs: []ident.ID{42}}, CreatedBy: 1},
			102: {ID: 102, Owners: ident.List{IDs: []ident.ID{42}}, CreatedBy: 42},
		},
		Tickets: fakeTickets{
			55: {ID: 55, AuthorID: 7, PropertyID: &pid, Status: models.TicketClosed},
		},
		Groups: fakeGroups{
			3: {ID: 3, Members: []models.GroupMember{{UserID: 7, Role: "Member"}}},
		},
	}
}

func newAuthorizer(t *testing.T, src authz.Sources) (*authz.Authorizer, *metrics.Metrics) {
	t.Helper()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	return authz.New(src, m, roles.Set{}, zap.NewNop()), m
}

func TestScenario_OwnerDashboard(t *testing.T) {
	a, _ := newAuthorizer(t, community())
	owner := a.Actor(context.Background(), 42, false)

	assert.True(t, owner.Roles.Has(roles.Owner))
	assert.True(t, a.CanAccessSection(owner, accesspolicy.SectionProperties))
	assert.False(t, a.CanAccessSection(owner, accesspolicy.SectionBusiness))

	_, ok := a.CanMutateProperty(context.Background(), owner, 101)
	assert.True(t, ok)
	_, ok = a.CanMutateProperty(context.Background(), owner, 102)
	assert.True(t, ok)
}

func TestScenario_TicketAuthorization(t *testing.T) {
	a, _ := newAuthorizer(t, community())
	ctx := context.Background()

	author := a.Actor(ctx, 7, false)
	owner := a.Actor(ctx, 42, false)

	tk, ok := a.CanMutateTicket(ctx, author, 55)
	require.NotNil(t, tk)
	assert.True(t, ok)

	_, ok = a.CanMutateTicket(ctx, owner, 55)
	assert.False(t, ok, "property ownership must not imply ticket ownership")
}

func TestMissingResourceDenies(t *testing.T) {
	a, _ := newAuthorizer(t, community())
	ctx := context.Background()
	super := accesspolicy.Actor{UserID: 1, SuperAdmin: true}

	p, ok := a.CanMutateProperty(ctx, super, 999)
	assert.Nil(t, p)
	assert.False(t, ok)

	_, ok = a.CanMutateTicket(ctx, super, 999)
	assert.False(t, ok)

	_, ok = a.CanMutateGroup(ctx, super, 999)
	assert.False(t, ok)
}

func TestReopenNeedsTicketCapability(t *testing.T) {
	a, _ := newAuthorizer(t, community())
	ctx := context.Background()

	_, ok := a.CanTransitionTicket(ctx, a.Actor(ctx, 7, false), 55, ticketflow.Open)
	assert.False(t, ok, "author cannot reopen a closed ticket")

	_, ok = a.CanTransitionTicket(ctx, a.Actor(ctx, 9, false), 55, ticketflow.Open)
	assert.True(t, ok, "manage_tickets may reopen")
}

func TestActor_MissingProfileHasNoRoles(t *testing.T) {
	a, _ := newAuthorizer(t, community())
	act := a.Actor(context.Background(), 500, false)

	assert.Equal(t, ident.ID(500), act.UserID)
	assert.True(t, act.Roles.IsEmpty())
	assert.False(t, a.CanAccessSection(act, accesspolicy.SectionProfile))
	assert.True(t, a.CanAccessSection(act, accesspolicy.SectionAnnouncements))
}

func TestActor_StorageFailureFailsClosed(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	src := community()
	src.Profiles = fakeProfiles{err: errors.New("connection reset")}
	a := authz.New(src, nil, roles.Set{}, zap.New(core))

	act := a.Actor(context.Background(), 42, false)

	assert.True(t, act.Roles.IsEmpty())
	assert.False(t, a.CanAccessSection(act, accesspolicy.SectionProperties))
	assert.Equal(t, 1, logs.Len())
}

func TestActor_UnknownTagsAreLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	src := community()
	src.Profiles = fakeProfiles{m: map[ident.ID]models.Profile{
		5: {UserID: 5, Roles: roles.ParseSet("owner", "wizard")},
	}}
	a := authz.New(src, nil, roles.Set{}, zap.New(core))

	act := a.Actor(context.Background(), 5, false)

	assert.Equal(t, []string{"owner"}, act.Roles.Strings())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "authz: unknown role tags ignored", logs.All()[0].Message)
}

func TestActorFor_NoSessionIsAnonymous(t *testing.T) {
	a, _ := newAuthorizer(t, community())

	act := a.ActorFor(httptest.NewRequest("GET", "/dashboard", nil))
	assert.False(t, act.Authenticated())

	req := auth.WithTestUser(httptest.NewRequest("GET", "/dashboard", nil), &auth.SessionUser{ID: 42})
	act = a.ActorFor(req)
	assert.Equal(t, ident.ID(42), act.UserID)
	assert.True(t, act.Roles.Has(roles.Owner))
}

func TestPreview(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	preview := roles.NewSet(roles.Owner, roles.BoardMember)
	a := authz.New(community(), nil, preview, zap.New(core))

	admin := accesspolicy.Actor{UserID: 1, SuperAdmin: true}
	got, ok := a.Preview(admin)
	require.True(t, ok)
	assert.True(t, got.Roles.Equal(preview))
	assert.Equal(t, 1, logs.Len())

	_, ok = a.Preview(accesspolicy.Actor{UserID: 2, Roles: roles.NewSet(roles.Staff), SuperAdmin: true})
	assert.False(t, ok, "admins with real roles keep them")

	_, ok = a.Preview(accesspolicy.Actor{UserID: 3})
	assert.False(t, ok, "only super admins get the preview set")

	off := authz.New(community(), nil, roles.Set{}, zap.NewNop())
	_, ok = off.Preview(admin)
	assert.False(t, ok, "preview is off when no roles are configured")
}

func TestDecisionsAreCounted(t *testing.T) {
	a, m := newAuthorizer(t, community())
	ctx := context.Background()
	owner := a.Actor(ctx, 42, false)

	a.CanMutateProperty(ctx, owner, 101)
	a.CanMutateTicket(ctx, owner, 55)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthzDecisions.WithLabelValues("property.mutate", "allow")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthzDecisions.WithLabelValues("ticket.mutate", "deny")))
}

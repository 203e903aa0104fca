// internal/app/system/authz/authz.go
package authz

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/villahub/internal/app/policy/accesspolicy"
	groupstore "github.com/dalemusser/villahub/internal/app/store/groups"
	profilestore "github.com/dalemusser/villahub/internal/app/store/profiles"
	propertystore "github.com/dalemusser/villahub/internal/app/store/properties"
	ticketstore "github.com/dalemusser/villahub/internal/app/store/tickets"
	"github.com/dalemusser/villahub/internal/app/system/auth"
	"github.com/dalemusser/villahub/internal/app/system/ident"
	"github.com/dalemusser/villahub/internal/app/system/metrics"
	"github.com/dalemusser/villahub/internal/app/system/timeouts"
	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/villahub/internal/domain/roles"
	"github.com/dalemusser/villahub/internal/domain/ticketflow"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ProfileSource loads the profile carrying roles and capabilities.
type ProfileSource interface {
	Get(ctx context.Context, uid ident.ID) (models.Profile, error)
}

type PropertySource interface {
	GetByID(ctx context.Context, id ident.ID) (*models.Property, error)
}

type TicketSource interface {
	GetByID(ctx context.Context, id ident.ID) (*models.Ticket, error)
}

type GroupSource interface {
	GetByID(ctx context.Context, id ident.ID) (*models.Group, error)
}

// Sources bundles the lookups the Authorizer needs.
type Sources struct {
	Profiles   ProfileSource
	Properties PropertySource
	Tickets    TicketSource
	Groups     GroupSource
}

// Authorizer resolves the request's actor and answers id-based questions by
// loading the resource and asking accesspolicy. Every answer is counted.
type Authorizer struct {
	src     Sources
	metrics *metrics.Metrics
	log     *zap.Logger
	preview roles.Set
}

// New builds an Authorizer. previewRoles is the synthetic role set shown to
// a super admin who holds no community role; empty disables it.
func New(src Sources, m *metrics.Metrics, previewRoles roles.Set, logger *zap.Logger) *Authorizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authorizer{src: src, metrics: m, log: logger, preview: previewRoles}
}

// ActorFor resolves the request's actor. Without a session user it is the
// zero Actor, which every check denies.
func (a *Authorizer) ActorFor(r *http.Request) accesspolicy.Actor {
	u, ok := auth.CurrentUser(r)
	if !ok || u.ID.IsZero() {
		return accesspolicy.Actor{}
	}
	return a.Actor(r.Context(), u.ID, u.IsSuperAdmin)
}

// Actor loads roles and capabilities for uid. A missing profile yields no
// roles. A storage failure is logged and also yields no roles.
func (a *Authorizer) Actor(ctx context.Context, uid ident.ID, superAdmin bool) accesspolicy.Actor {
	act := accesspolicy.Actor{UserID: uid, SuperAdmin: superAdmin}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	p, err := a.src.Profiles.Get(ctx, uid)
	switch {
	case err == nil:
	case isNotFound(err):
		return act
	default:
		a.log.Error("authz: profile lookup failed; treating as no roles",
			zap.Int64("user_id", int64(uid)), zap.Error(err))
		return act
	}

	act.Roles = p.EffectiveRoles()
	act.Capabilities = p.Capabilities.Normalize()
	if len(act.Roles.Unknown) > 0 {
		a.log.Warn("authz: unknown role tags ignored",
			zap.Int64("user_id", int64(uid)), zap.Strings("tags", act.Roles.Unknown))
	}
	return act
}

// Preview swaps in the preview role set for a super admin without roles.
// It reports whether it did so.
func (a *Authorizer) Preview(act accesspolicy.Actor) (accesspolicy.Actor, bool) {
	if a.preview.IsEmpty() || !act.SuperAdmin || act.UserID.IsZero() || !act.Roles.IsEmpty() {
		return act, false
	}
	a.log.Warn("authz: showing preview roles to super admin without community roles",
		zap.Int64("user_id", int64(act.UserID)), zap.Strings("roles", a.preview.Strings()))
	act.Roles = a.preview.Union(roles.Set{})
	return act, true
}

// Record counts a decision made directly with accesspolicy.
func (a *Authorizer) Record(check string, allowed bool) bool {
	allowed = a.metrics.Decision(check, allowed)
	if !allowed {
		a.log.Debug("authz: denied", zap.String("check", check))
	}
	return allowed
}

func (a *Authorizer) lookupFailed(kind string, id ident.ID, err error) {
	if !isNotFound(err) {
		a.log.Error("authz: lookup failed", zap.String("kind", kind),
			zap.Int64("id", int64(id)), zap.Error(err))
	}
}

// CanAccessSection is accesspolicy.CanAccessSection, counted.
func (a *Authorizer) CanAccessSection(act accesspolicy.Actor, sec accesspolicy.Section) bool {
	return a.Record("section."+string(sec), accesspolicy.CanAccessSection(act, sec))
}

// Property loads a property and reports whether check allows it. The
// property is nil when missing.
func (a *Authorizer) Property(ctx context.Context, act accesspolicy.Actor, pid ident.ID, check string,
	rule func(accesspolicy.Actor, *models.Property) bool) (*models.Property, bool) {
	p, err := a.src.Properties.GetByID(ctx, pid)
	if err != nil {
		a.lookupFailed("property", pid, err)
		return nil, a.Record(check, false)
	}
	return p, a.Record(check, rule(act, p))
}

// CanMutateProperty answers by id.
func (a *Authorizer) CanMutateProperty(ctx context.Context, act accesspolicy.Actor, pid ident.ID) (*models.Property, bool) {
	return a.Property(ctx, act, pid, "property.mutate", accesspolicy.CanMutateProperty)
}

// CanDeleteProperty answers by id.
func (a *Authorizer) CanDeleteProperty(ctx context.Context, act accesspolicy.Actor, pid ident.ID) (*models.Property, bool) {
	return a.Property(ctx, act, pid, "property.delete", accesspolicy.CanDeleteProperty)
}

// Ticket loads a ticket and applies rule.
func (a *Authorizer) Ticket(ctx context.Context, act accesspolicy.Actor, tid ident.ID, check string,
	rule func(accesspolicy.Actor, *models.Ticket) bool) (*models.Ticket, bool) {
	t, err := a.src.Tickets.GetByID(ctx, tid)
	if err != nil {
		a.lookupFailed("ticket", tid, err)
		return nil, a.Record(check, false)
	}
	return t, a.Record(check, rule(act, t))
}

// CanMutateTicket answers by id.
func (a *Authorizer) CanMutateTicket(ctx context.Context, act accesspolicy.Actor, tid ident.ID) (*models.Ticket, bool) {
	return a.Ticket(ctx, act, tid, "ticket.mutate", accesspolicy.CanMutateTicket)
}

// CanTransitionTicket answers by id for a move to `to`.
func (a *Authorizer) CanTransitionTicket(ctx context.Context, act accesspolicy.Actor, tid ident.ID, to ticketflow.Status) (*models.Ticket, bool) {
	return a.Ticket(ctx, act, tid, "ticket.transition", func(act accesspolicy.Actor, t *models.Ticket) bool {
		return accesspolicy.CanTransitionTicket(act, t, to)
	})
}

// Group loads a group and applies rule.
func (a *Authorizer) Group(ctx context.Context, act accesspolicy.Actor, gid ident.ID, check string,
	rule func(accesspolicy.Actor, *models.Group) bool) (*models.Group, bool) {
	g, err := a.src.Groups.GetByID(ctx, gid)
	if err != nil {
		a.lookupFailed("group", gid, err)
		return nil, a.Record(check, false)
	}
	return g, a.Record(check, rule(act, g))
}

// CanMutateGroup answers by id.
func (a *Authorizer) CanMutateGroup(ctx context.Context, act accesspolicy.Actor, gid ident.ID) (*models.Group, bool) {
	return a.Group(ctx, act, gid, "group.mutate", accesspolicy.CanMutateGroup)
}

// isNotFound separates a missing record from a storage failure. Both deny;
// only the latter is logged as an error.
func isNotFound(err error) bool {
	return errors.Is(err, profilestore.ErrNotFound) ||
		errors.Is(err, propertystore.ErrNotFound) ||
		errors.Is(err, ticketstore.ErrNotFound) ||
		errors.Is(err, groupstore.ErrNotFound) ||
		errors.Is(err, mongo.ErrNoDocuments)
}

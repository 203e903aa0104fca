package testutil

import (
	groupstore "github.com/dalemusser/villahub/internal/app/store/groups"
	profilestore "github.com/dalemusser/villahub/internal/app/store/profiles"
	propertystore "github.com/dalemusser/villahub/internal/app/store/properties"
	ticketstore "github.com/dalemusser/villahub/internal/app/store/tickets"
	"github.com/dalemusser/villahub/internal/app/system/authz"
	"github.com/dalemusser/villahub/internal/domain/roles"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// NewAuthorizer builds an Authorizer over the stores in db, without metrics
// or preview roles.
func NewAuthorizer(db *mongo.Database) *authz.Authorizer {
	return authz.New(authz.Sources{
		Profiles:   profilestore.New(db),
		Properties: propertystore.New(db),
		Tickets:    ticketstore.New(db),
		Groups:     groupstore.New(db),
	}, nil, roles.Set{}, zap.NewNop())
}

// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/villahub/internal/app/system/metrics"
	"github.com/dalemusser/villahub/internal/app/system/ratelimit"
	"github.com/dalemusser/villahub/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	VillaHubMongoClient   *mongo.Client
	VillaHubMongoDatabase *mongo.Database

	// Metrics is shared by the migration runner, the authorizer and the
	// HTTP middleware so everything lands in one registry.
	Metrics *metrics.Metrics

	// Background is filled in by Startup. DBDeps is passed by value
	// through the lifecycle, so it is a pointer.
	Background *Background
}

// Background holds the long-lived in-process helpers started at boot.
type Background struct {
	LoginLimiter *ratelimit.LoginLimiter
	Sweeper      *workers.Sweeper
}

func (b *Background) loginLimiter() *ratelimit.LoginLimiter {
	if b == nil {
		return nil
	}
	return b.LoginLimiter
}

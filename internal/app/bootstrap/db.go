// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/villahub/internal/app/store/audit"
	"github.com/dalemusser/villahub/internal/app/system/indexes"
	"github.com/dalemusser/villahub/internal/app/system/metrics"
	"github.com/dalemusser/villahub/internal/app/system/migrations"
	"github.com/dalemusser/villahub/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB client and verifies it with a ping.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetAppName("villahub")
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	if appCfg.MongoMinPoolSize > 0 {
		opts.SetMinPoolSize(appCfg.MongoMinPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	return DBDeps{
		VillaHubMongoClient:   client,
		VillaHubMongoDatabase: client.Database(appCfg.MongoDatabase),
		Metrics:               metrics.NewMetrics(nil),
		Background:            &Background{},
	}, nil
}

// EnsureSchema installs collection validators and indexes, then applies any
// pending data migrations. Every step is idempotent.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.VillaHubMongoDatabase

	if err := validators.EnsureAll(ctx, db); err != nil {
		return fmt.Errorf("ensure validators: %w", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	if err := audit.New(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure audit indexes: %w", err)
	}

	applied, err := migrations.NewRunner(db, deps.Metrics, logger).Run(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if len(applied) > 0 {
		logger.Info("migrations applied", zap.Strings("names", applied))
	}
	return nil
}

// Package migrations applies one-off data migrations that bring older
// records to the canonical shapes the stores expect.
//
// Each migration runs at most once per database. A migration is claimed by
// inserting its record into the migrations collection (the name is the _id),
// so two instances starting together cannot both run it. A failed run
// releases its claim and is retried on the next start.
package migrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/villahub/internal/app/system/metrics"
	"github.com/dalemusser/villahub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Migration is one named data fix. Up returns the number of documents it
// changed.
type Migration struct {
	Name string
	Up   func(ctx context.Context, db *mongo.Database, log *zap.Logger) (int64, error)
}

// All lists the migrations in the order they run.
func All() []Migration {
	return []Migration{
		{Name: "0001_fold_legacy_roles", Up: foldLegacyRoles},
		{Name: "0002_canonical_record_ids", Up: canonicalRecordIDs},
		{Name: "0003_canonical_group_ids", Up: canonicalGroupIDs},
		{Name: "0004_fold_announcement_readers", Up: foldAnnouncementReaders},
		{Name: "0005_canonical_ticket_status", Up: canonicalTicketStatus},
	}
}

// Runner applies pending migrations and keeps the log.
type Runner struct {
	db         *mongo.Database
	c          *mongo.Collection
	metrics    *metrics.Metrics
	log        *zap.Logger
	migrations []Migration
	now        func() time.Time
}

// NewRunner returns a runner for All(). m may be nil.
func NewRunner(db *mongo.Database, m *metrics.Metrics, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		db:         db,
		c:          db.Collection("migrations"),
		metrics:    m,
		log:        log,
		migrations: All(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithMigrations replaces the migration list.
func (r *Runner) WithMigrations(ms []Migration) *Runner {
	r.migrations = ms
	return r
}

// Run applies every migration that has not been recorded yet, in order, and
// returns the names it applied. It stops at the first failure.
func (r *Runner) Run(ctx context.Context) ([]string, error) {
	runID := uuid.NewString()
	var applied []string

	for _, m := range r.migrations {
		claimed, err := r.claim(ctx, m.Name, runID)
		if err != nil {
			return applied, fmt.Errorf("claim migration %s: %w", m.Name, err)
		}
		if !claimed {
			r.log.Debug("migration already recorded", zap.String("migration", m.Name))
			continue
		}

		start := r.now()
		affected, err := m.Up(ctx, r.db, r.log.With(zap.String("migration", m.Name)))
		if err != nil {
			r.release(m.Name, runID)
			return applied, fmt.Errorf("migration %s: %w", m.Name, err)
		}
		took := r.now().Sub(start)

		if err := r.complete(ctx, m.Name, runID, took, affected); err != nil {
			return applied, fmt.Errorf("record migration %s: %w", m.Name, err)
		}
		r.metrics.Migration()
		r.log.Info("migration applied",
			zap.String("migration", m.Name),
			zap.String("run_id", runID),
			zap.Int64("affected", affected),
			zap.Duration("took", took))
		applied = append(applied, m.Name)
	}
	return applied, nil
}

func (r *Runner) claim(ctx context.Context, name, runID string) (bool, error) {
	_, err := r.c.InsertOne(ctx, models.MigrationRecord{
		Name:      name,
		RunID:     runID,
		Status:    models.MigrationRunning,
		StartedAt: r.now(),
	})
	if err == nil {
		return true, nil
	}
	if wafflemongo.IsDup(err) {
		return false, nil
	}
	return false, err
}

// release drops a claim after a failed run. It uses its own context so a
// cancelled run still frees the name.
func (r *Runner) release(name, runID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := r.c.DeleteOne(ctx, bson.M{"_id": name, "run_id": runID}); err != nil {
		r.log.Error("failed to release migration claim", zap.String("migration", name), zap.Error(err))
	}
}

func (r *Runner) complete(ctx context.Context, name, runID string, took time.Duration, affected int64) error {
	res, err := r.c.UpdateOne(ctx,
		bson.M{"_id": name, "run_id": runID},
		bson.M{"$set": bson.M{
			"status":     models.MigrationApplied,
			"applied_at": r.now(),
			"took_ms":    took.Milliseconds(),
			"affected":   affected,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errors.New("claim record disappeared")
	}
	return nil
}

// Applied returns the migration log, oldest first.
func (r *Runner) Applied(ctx context.Context) ([]models.MigrationRecord, error) {
	cur, err := r.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "started_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.MigrationRecord{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

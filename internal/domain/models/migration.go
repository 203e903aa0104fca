// internal/domain/models/migration.go
package models

import "time"

const (
	MigrationRunning = "running"
	MigrationApplied = "applied"
)

// MigrationRecord marks a data migration as claimed or applied. _id is the
// migration name, so a migration can only ever be recorded once.
type MigrationRecord struct {
	Name      string    `bson:"_id"`
	RunID     string    `bson:"run_id"`
	Status    string    `bson:"status"`
	StartedAt time.Time `bson:"started_at"`
	AppliedAt time.Time `bson:"applied_at,omitempty"`
	TookMS    int64     `bson:"took_ms"`
	Affected  int64     `bson:"affected"`
}

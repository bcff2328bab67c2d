// Package testutil provides database fixtures shared by package tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"birdbox/internal/database"
	"birdbox/migrations"
)

// NewTestDB opens a migrated SQLite database in a temporary directory.
// The database is closed when the test finishes.
func NewTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "birdbox_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations(context.Background(), migrations.FS))
	return db
}

// SeedSpecies inserts the given species and returns their ids by name
func SeedSpecies(t *testing.T, db database.DBTX, names ...string) map[string]int64 {
	t.Helper()

	ids := make(map[string]int64, len(names))
	for _, name := range names {
		id, err := db.ExecReturningID(context.Background(), "INSERT INTO species (common_name) VALUES (?)", name)
		require.NoError(t, err)
		ids[name] = id
	}
	return ids
}

// SeedChecklist inserts a checklist row as the external import would, with
// optional coordinates. date may be empty.
func SeedChecklist(t *testing.T, db database.DBTX, samplingEventID, observerID string, lat, lng sql.NullFloat64, date string) int64 {
	t.Helper()

	var observationDate any
	if date != "" {
		observationDate = date
	}

	id, err := db.ExecReturningID(context.Background(), `
		INSERT INTO checklists (sampling_event_id, latitude, longitude, observation_date, observer_id)
		VALUES (?, ?, ?, ?, ?)
	`, samplingEventID, lat, lng, observationDate, observerID)
	require.NoError(t, err)
	return id
}

// SeedSighting inserts a sighting row. A nil count stores NULL.
func SeedSighting(t *testing.T, db database.DBTX, checklistID, speciesID int64, count *int64) int64 {
	t.Helper()

	var observationCount any
	if count != nil {
		observationCount = *count
	}

	id, err := db.ExecReturningID(context.Background(),
		"INSERT INTO sightings (checklist_id, species_id, observation_count) VALUES (?, ?, ?)",
		checklistID, speciesID, observationCount)
	require.NoError(t, err)
	return id
}

// Coord is shorthand for a valid sql.NullFloat64
func Coord(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

// Count is shorthand for a sighting count pointer
func Count(v int64) *int64 {
	return &v
}

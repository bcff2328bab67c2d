//go:build integration

package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"birdbox/internal/config"
	"birdbox/internal/database"
	"birdbox/internal/models"
	"birdbox/internal/testutil"
	"birdbox/migrations"
)

// newPostgresDB starts a PostgreSQL container and returns a migrated connection to it
func newPostgresDB(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("birdbox"),
		postgres.WithUsername("birdbox"),
		postgres.WithPassword("birdbox"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.InitializeWithConfig(&config.Config{DatabaseType: "postgres", DatabaseURL: connStr})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations(ctx, migrations.FS))
	return db
}

func TestPostgresSubmitAndAggregate(t *testing.T) {
	ts := newServicesFor(t, newPostgresDB(t), "Blue Jay", "American Robin", "Eastern Bluebird")
	ts.checklist.now = func() time.Time { return time.Date(2024, 7, 4, 9, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	lat, lng := 40.0, -74.0

	result, err := ts.checklist.Submit(ctx, "alice@example.com", SubmitRequest{
		Species:   entries("blue jay", 3),
		Latitude:  &lat,
		Longitude: &lng,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"Blue Jay": 3}, sightingCounts(t, ts, result.ChecklistID))

	_, err = ts.checklist.Submit(ctx, "alice@example.com", SubmitRequest{
		ChecklistID: &result.ChecklistID,
		Species:     entries("Blue Jay", 5, "American Robin", 2),
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"Blue Jay": 5, "American Robin": 2}, sightingCounts(t, ts, result.ChecklistID))

	_, err = ts.checklist.Submit(ctx, "alice@example.com", SubmitRequest{
		ChecklistID: &result.ChecklistID,
		Species:     entries("Blue Jay", 1, "Dodo", 1),
	})
	require.Error(t, err)
	assert.Equal(t, map[string]int64{"Blue Jay": 5, "American Robin": 2}, sightingCounts(t, ts, result.ChecklistID))

	points, err := ts.stats.Density(ctx, "Blue Jay")
	require.NoError(t, err)
	assert.Equal(t, []models.DensityPoint{{Lat: 40, Lng: -74, Density: 5}}, points)

	region, err := ts.stats.RegionStats(ctx, models.BoundingBox{North: 40, South: 0, East: 0, West: -74})
	require.NoError(t, err)
	assert.Equal(t, models.SpeciesRegionStat{Sightings: 5, Checklists: 1}, region.SpeciesStats["Blue Jay"])
	assert.Equal(t, []models.Contributor{{ObserverID: "alice@example.com", Checklists: 1}}, region.TopContributors)

	trends, err := ts.stats.UserTrends(ctx, "alice@example.com", "")
	require.NoError(t, err)
	require.Len(t, trends, 1)
	assert.Equal(t, "2024-07-04", trends[0].Date.String())
	assert.Equal(t, int64(7), trends[0].Count)

	names, err := ts.stats.UserSpecies(ctx, "alice@example.com", "jay")
	require.NoError(t, err)
	assert.Equal(t, []string{"Blue Jay"}, names)

	suggestions, err := ts.species.Suggest(ctx, "BLUE")
	require.NoError(t, err)
	assert.Len(t, suggestions, 2)

	random, err := ts.species.Random(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, random.CommonName)

	require.NoError(t, ts.checklist.Delete(ctx, "alice@example.com", result.ChecklistID))
	assert.Zero(t, ts.countRows(t, "sightings"))
}

func TestPostgresBackupResetsSequences(t *testing.T) {
	source := newTestServices(t, "Blue Jay")
	ctx := context.Background()

	seeded := testutil.SeedChecklist(t, source.db, "S-1", "obs", testutil.Coord(1), testutil.Coord(1), "2024-01-01")
	testutil.SeedSighting(t, source.db, seeded, source.speciesID["Blue Jay"], testutil.Count(2))

	var buf bytes.Buffer
	_, err := NewBackupService(source.db).Export(ctx, &buf)
	require.NoError(t, err)

	target := newServicesFor(t, newPostgresDB(t))
	_, err = NewBackupService(target.db).Import(ctx, bytes.NewReader(buf.Bytes()), false)
	require.NoError(t, err)

	// New rows must continue after the restored ids
	result, err := target.checklist.Submit(ctx, "bob@example.com", SubmitRequest{Species: entries("Blue Jay", 1)})
	require.NoError(t, err)
	assert.Greater(t, result.ChecklistID, seeded)
}

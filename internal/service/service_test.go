package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"birdbox/internal/database"
	"birdbox/internal/metrics"
	"birdbox/internal/repository"
	"birdbox/internal/testutil"
)

type testServices struct {
	db        *database.DB
	metrics   *metrics.Metrics
	species   *SpeciesService
	checklist *ChecklistService
	stats     *StatsService
	speciesID map[string]int64
}

func newTestServices(t *testing.T, speciesNames ...string) *testServices {
	t.Helper()
	return newServicesFor(t, testutil.NewTestDB(t), speciesNames...)
}

// newServicesFor wires the services onto an already migrated database
func newServicesFor(t *testing.T, db *database.DB, speciesNames ...string) *testServices {
	t.Helper()

	m, err := metrics.New()
	require.NoError(t, err)

	speciesService := NewSpeciesService(repository.NewSpeciesRepository(db), time.Minute, m)
	return &testServices{
		db:        db,
		metrics:   m,
		species:   speciesService,
		checklist: NewChecklistService(db, repository.NewChecklistRepository(db), speciesService, m),
		stats:     NewStatsService(repository.NewStatsRepository(db), speciesService),
		speciesID: testutil.SeedSpecies(t, db, speciesNames...),
	}
}

func (ts *testServices) countRows(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, ts.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"birdbox/internal/database"
	"birdbox/internal/testutil"
	"birdbox/migrations"
)

func runBackup(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func useDatabase(t *testing.T, path string) {
	t.Helper()
	t.Setenv("DATABASE_TYPE", "sqlite")
	t.Setenv("DB_PATH", path)
	t.Setenv("LOG_LEVEL", "error")
}

func TestExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "source.db")

	source, err := database.Initialize(sourcePath)
	require.NoError(t, err)
	require.NoError(t, source.RunMigrations(context.Background(), migrations.FS))
	ids := testutil.SeedSpecies(t, source, "Blue Jay")
	checklistID := testutil.SeedChecklist(t, source, "S1", "alice@example.com", testutil.Coord(1), testutil.Coord(2), "2024-01-01")
	testutil.SeedSighting(t, source, checklistID, ids["Blue Jay"], testutil.Count(3))
	require.NoError(t, source.Close())

	backupPath := filepath.Join(dir, "out", "backup.json")
	useDatabase(t, sourcePath)
	_, err = runBackup(t, "", "export", "--output", backupPath)
	require.NoError(t, err)

	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	var snapshot map[string]any
	require.NoError(t, json.Unmarshal(data, &snapshot))
	assert.Len(t, snapshot["checklists"], 1)

	targetPath := filepath.Join(dir, "target.db")
	useDatabase(t, targetPath)
	_, err = runBackup(t, "", "import", "--input", backupPath)
	require.NoError(t, err)

	target, err := database.Initialize(targetPath)
	require.NoError(t, err)
	defer target.Close()

	var count int64
	require.NoError(t, target.QueryRowContext(context.Background(),
		"SELECT observation_count FROM sightings WHERE checklist_id = ?", checklistID).Scan(&count))
	assert.Equal(t, int64(3), count)
}

func TestImportFlags(t *testing.T) {
	useDatabase(t, filepath.Join(t.TempDir(), "birdbox.db"))

	_, err := runBackup(t, "", "import")
	assert.ErrorContains(t, err, "exactly one of --input or --s3-key")

	_, err = runBackup(t, "", "import", "--input", "a.json", "--s3-key", "b.json")
	assert.ErrorContains(t, err, "exactly one of --input or --s3-key")

	out, err := runBackup(t, "no\n", "import", "--input", "missing.json", "--clear")
	require.NoError(t, err, "declining the prompt cancels without touching the database")
	assert.Contains(t, out, "Type 'yes' to confirm")
}

func TestMigrateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "birdbox.db")
	useDatabase(t, path)

	_, err := runBackup(t, "", "migrate")
	require.NoError(t, err)

	db, err := database.Initialize(path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM species").Scan(&n))
	assert.Zero(t, n)
}

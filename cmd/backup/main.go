package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"birdbox/internal/config"
	"birdbox/internal/database"
	"birdbox/internal/logging"
	"birdbox/internal/service"
	"birdbox/internal/storage"
	"birdbox/migrations"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "backup",
		Short: "Export, import and migrate the birdbox database",
		Long: `Backup moves birdbox data in and out of the configured database as a
versioned JSON snapshot. Connection settings come from the same environment
variables as the server (DATABASE_TYPE, DB_PATH, DATABASE_URL).`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			logging.Setup(cfg.LogLevel, cfg.LogFormat)
		},
	}

	rootCmd.AddCommand(newExportCmd(), newImportCmd(), newMigrateCmd())
	return rootCmd
}

func newExportCmd() *cobra.Command {
	var (
		outputPath string
		toS3       bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON snapshot of the database",
		Long: `Export writes species, checklists, sightings, per-user checklist rows and
accounts to a JSON file.

Examples:
  backup export                          # backup_YYYYMMDD_HHMMSS.json
  backup export --output backups/db.json
  backup export --s3                     # upload to BACKUP_S3_BUCKET`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(cfg *config.Config, db *database.DB) error {
				return runExport(cmd.Context(), cfg, db, outputPath, toS3)
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	cmd.Flags().BoolVar(&toS3, "s3", false, "Upload the snapshot to the configured S3 bucket instead of a file")
	return cmd
}

func newImportCmd() *cobra.Command {
	var (
		inputPath string
		s3Key     string
		clearData bool
		assumeYes bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Restore a JSON snapshot into the database",
		Long: `Import restores a snapshot in a single transaction, keeping the original ids.

Examples:
  backup import --input backup.json
  backup import --input backup.json --clear --yes
  backup import --s3-key backups/birdbox_20240101_120000.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (inputPath == "") == (s3Key == "") {
				return fmt.Errorf("exactly one of --input or --s3-key is required")
			}
			if clearData && !assumeYes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout()) {
				log.Info().Msg("Import cancelled")
				return nil
			}

			return withDatabase(cmd.Context(), func(cfg *config.Config, db *database.DB) error {
				return runImport(cmd.Context(), cfg, db, inputPath, s3Key, clearData)
			})
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input file path")
	cmd.Flags().StringVar(&s3Key, "s3-key", "", "Object key to restore from the configured S3 bucket")
	cmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before import (WARNING: destructive)")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt for --clear")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(*config.Config, *database.DB) error {
				log.Info().Msg("Migrations completed successfully")
				return nil
			})
		},
	}
}

// withDatabase opens the configured database, brings its schema up to date
// and runs fn
func withDatabase(ctx context.Context, fn func(*config.Config, *database.DB) error) error {
	cfg := config.Load()
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return fn(cfg, db)
}

func runExport(ctx context.Context, cfg *config.Config, db *database.DB, outputPath string, toS3 bool) error {
	backupService := service.NewBackupService(db)

	if toS3 {
		store, err := newBackupStore(ctx, cfg)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		backup, err := backupService.Export(ctx, &buf)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		key := storage.BackupKey(time.Now())
		if err := store.Upload(ctx, key, buf.Bytes()); err != nil {
			return err
		}
		log.Info().Str("bucket", cfg.BackupS3Bucket).Str("key", key).Str("summary", backup.Summary()).Msg("Export uploaded")
		return nil
	}

	// Generate default filename if not provided
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}

	// Ensure directory exists
	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer file.Close()

	log.Info().Str("path", outputPath).Msg("Exporting database")
	backup, err := backupService.Export(ctx, file)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}

	log.Info().Str("path", outputPath).Str("summary", backup.Summary()).Msg("Export complete")
	return nil
}

func runImport(ctx context.Context, cfg *config.Config, db *database.DB, inputPath, s3Key string, clearData bool) error {
	var source io.ReadCloser
	if s3Key != "" {
		store, err := newBackupStore(ctx, cfg)
		if err != nil {
			return err
		}
		source, err = store.Download(ctx, s3Key)
		if err != nil {
			return err
		}
	} else {
		file, err := os.Open(inputPath)
		if err != nil {
			return fmt.Errorf("failed to open backup file: %w", err)
		}
		source = file
	}
	defer source.Close()

	backup, err := service.NewBackupService(db).Import(ctx, source, clearData)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	log.Info().Str("summary", backup.Summary()).Bool("cleared", clearData).Msg("Import complete")
	return nil
}

func newBackupStore(ctx context.Context, cfg *config.Config) (*storage.BackupStore, error) {
	return storage.NewBackupStore(ctx, storage.S3Config{
		Bucket:    cfg.BackupS3Bucket,
		Region:    cfg.BackupS3Region,
		Endpoint:  cfg.BackupS3Endpoint,
		PathStyle: cfg.BackupS3PathStyle,
	})
}

func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "WARNING: This will delete all existing data. Type 'yes' to confirm: ")
	answer, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(answer) == "yes"
}

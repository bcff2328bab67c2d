package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"birdbox/internal/database"
	"birdbox/internal/models"
)

// BackupVersion is written into every snapshot
const BackupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version        string                `json:"version"`
	ExportedAt     time.Time             `json:"exported_at"`
	DatabaseType   string                `json:"database_type"`
	Species        []models.Species      `json:"species"`
	Checklists     []ChecklistBackup     `json:"checklists"`
	Sightings      []SightingBackup      `json:"sightings"`
	UserChecklists []UserChecklistBackup `json:"user_checklists"`
	Users          []UserBackup          `json:"users"`
}

// ChecklistBackup represents a checklist record for backup
type ChecklistBackup struct {
	ID              int64       `json:"id"`
	SamplingEventID string      `json:"sampling_event_id"`
	Latitude        *float64    `json:"latitude"`
	Longitude       *float64    `json:"longitude"`
	ObservationDate models.Date `json:"observation_date"`
	TimeStarted     *string     `json:"time_started"`
	ObserverID      string      `json:"observer_id"`
	DurationMinutes *float64    `json:"duration_minutes"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// SightingBackup represents a sighting record for backup
type SightingBackup struct {
	ID               int64  `json:"id"`
	ChecklistID      int64  `json:"checklist_id"`
	SpeciesID        int64  `json:"species_id"`
	ObservationCount *int64 `json:"observation_count"`
}

// UserChecklistBackup represents a per-user sighting record for backup
type UserChecklistBackup struct {
	ID               int64  `json:"id"`
	UserEmail        string `json:"user_email"`
	ChecklistID      int64  `json:"checklist_id"`
	SpeciesID        int64  `json:"species_id"`
	ObservationCount int    `json:"observation_count"`
}

// UserBackup represents an observer account for backup
type UserBackup struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary is a one-line description of a snapshot's contents
func (b *BackupData) Summary() string {
	return fmt.Sprintf("%d species, %d checklists, %d sightings, %d user checklists, %d users",
		len(b.Species), len(b.Checklists), len(b.Sightings), len(b.UserChecklists), len(b.Users))
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Snapshot reads every exported table into memory
func (s *BackupService) Snapshot(ctx context.Context) (*BackupData, error) {
	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.Name(),
	}

	steps := []struct {
		name string
		fn   func(context.Context, *BackupData) error
	}{
		{"species", s.exportSpecies},
		{"checklists", s.exportChecklists},
		{"sightings", s.exportSightings},
		{"user checklists", s.exportUserChecklists},
		{"users", s.exportUsers},
	}
	for _, step := range steps {
		if err := step.fn(ctx, backup); err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", step.name, err)
		}
	}

	return backup, nil
}

// Export writes an indented JSON snapshot to w
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	log.Info().Msg("Starting database export")

	backup, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Info().Str("contents", backup.Summary()).Msg("Database exported")
	return backup, nil
}

// Import restores a snapshot read from r in a single transaction, keeping
// the original ids. With clearExisting every exported table is emptied first.
func (s *BackupService) Import(ctx context.Context, r io.Reader, clearExisting bool) (*BackupData, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != BackupVersion {
		return nil, fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	log.Info().
		Str("version", backup.Version).
		Time("exported_at", backup.ExportedAt).
		Str("source", backup.DatabaseType).
		Msg("Starting database import")

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if clearExisting {
			// Children first so foreign keys hold on every dialect.
			for _, table := range []string{"user_checklists", "sightings", "checklists", "species", "sessions", "users"} {
				if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
					return fmt.Errorf("failed to clear %s: %w", table, err)
				}
			}
		}

		if err := importSpecies(ctx, tx, backup.Species); err != nil {
			return fmt.Errorf("failed to import species: %w", err)
		}
		if err := importChecklists(ctx, tx, backup.Checklists); err != nil {
			return fmt.Errorf("failed to import checklists: %w", err)
		}
		if err := importSightings(ctx, tx, backup.Sightings); err != nil {
			return fmt.Errorf("failed to import sightings: %w", err)
		}
		if err := importUserChecklists(ctx, tx, backup.UserChecklists); err != nil {
			return fmt.Errorf("failed to import user checklists: %w", err)
		}
		if err := importUsers(ctx, tx, backup.Users); err != nil {
			return fmt.Errorf("failed to import users: %w", err)
		}

		for _, table := range []string{"species", "checklists", "sightings", "user_checklists", "users"} {
			query := tx.GetDialect().ResetSequenceQuery(table)
			if query == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, query); err != nil {
				return fmt.Errorf("failed to reset %s sequence: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("contents", backup.Summary()).Msg("Database import completed")
	return &backup, nil
}

func (s *BackupService) exportSpecies(ctx context.Context, backup *BackupData) error {
	rows, err := s.db.QueryContext(ctx, "SELECT id, common_name FROM species ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var sp models.Species
		if err := rows.Scan(&sp.ID, &sp.CommonName); err != nil {
			return err
		}
		backup.Species = append(backup.Species, sp)
	}
	return rows.Err()
}

func (s *BackupService) exportChecklists(ctx context.Context, backup *BackupData) error {
	query := `
		SELECT id, sampling_event_id, latitude, longitude, observation_date, time_started,
			observer_id, duration_minutes, created_at, updated_at
		FROM checklists ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c ChecklistBackup
		var lat, lng, duration sql.NullFloat64
		var timeStarted sql.NullString
		if err := rows.Scan(&c.ID, &c.SamplingEventID, &lat, &lng, &c.ObservationDate, &timeStarted,
			&c.ObserverID, &duration, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return err
		}
		c.Latitude = floatPtr(lat)
		c.Longitude = floatPtr(lng)
		c.DurationMinutes = floatPtr(duration)
		if timeStarted.Valid {
			c.TimeStarted = &timeStarted.String
		}
		backup.Checklists = append(backup.Checklists, c)
	}
	return rows.Err()
}

func (s *BackupService) exportSightings(ctx context.Context, backup *BackupData) error {
	rows, err := s.db.QueryContext(ctx, "SELECT id, checklist_id, species_id, observation_count FROM sightings ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var sg SightingBackup
		var count sql.NullInt64
		if err := rows.Scan(&sg.ID, &sg.ChecklistID, &sg.SpeciesID, &count); err != nil {
			return err
		}
		if count.Valid {
			sg.ObservationCount = &count.Int64
		}
		backup.Sightings = append(backup.Sightings, sg)
	}
	return rows.Err()
}

func (s *BackupService) exportUserChecklists(ctx context.Context, backup *BackupData) error {
	query := "SELECT id, user_email, checklist_id, species_id, observation_count FROM user_checklists ORDER BY id"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var uc UserChecklistBackup
		if err := rows.Scan(&uc.ID, &uc.UserEmail, &uc.ChecklistID, &uc.SpeciesID, &uc.ObservationCount); err != nil {
			return err
		}
		backup.UserChecklists = append(backup.UserChecklists, uc)
	}
	return rows.Err()
}

func (s *BackupService) exportUsers(ctx context.Context, backup *BackupData) error {
	query := "SELECT id, email, password_hash, name, created_at, updated_at FROM users ORDER BY id"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u UserBackup
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		backup.Users = append(backup.Users, u)
	}
	return rows.Err()
}

func importSpecies(ctx context.Context, tx *database.Tx, species []models.Species) error {
	for _, sp := range species {
		if _, err := tx.ExecContext(ctx, "INSERT INTO species (id, common_name) VALUES (?, ?)", sp.ID, sp.CommonName); err != nil {
			return fmt.Errorf("species %d: %w", sp.ID, err)
		}
	}
	return nil
}

func importChecklists(ctx context.Context, tx *database.Tx, checklists []ChecklistBackup) error {
	query := `
		INSERT INTO checklists (id, sampling_event_id, latitude, longitude, observation_date, time_started,
			observer_id, duration_minutes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, c := range checklists {
		if _, err := tx.ExecContext(ctx, query, c.ID, c.SamplingEventID, c.Latitude, c.Longitude,
			c.ObservationDate, c.TimeStarted, c.ObserverID, c.DurationMinutes, c.CreatedAt, c.UpdatedAt); err != nil {
			return fmt.Errorf("checklist %d: %w", c.ID, err)
		}
	}
	return nil
}

func importSightings(ctx context.Context, tx *database.Tx, sightings []SightingBackup) error {
	query := "INSERT INTO sightings (id, checklist_id, species_id, observation_count) VALUES (?, ?, ?, ?)"
	for _, sg := range sightings {
		if _, err := tx.ExecContext(ctx, query, sg.ID, sg.ChecklistID, sg.SpeciesID, sg.ObservationCount); err != nil {
			return fmt.Errorf("sighting %d: %w", sg.ID, err)
		}
	}
	return nil
}

func importUserChecklists(ctx context.Context, tx *database.Tx, rows []UserChecklistBackup) error {
	query := `
		INSERT INTO user_checklists (id, user_email, checklist_id, species_id, observation_count)
		VALUES (?, ?, ?, ?, ?)
	`
	for _, uc := range rows {
		if _, err := tx.ExecContext(ctx, query, uc.ID, uc.UserEmail, uc.ChecklistID, uc.SpeciesID, uc.ObservationCount); err != nil {
			return fmt.Errorf("user checklist %d: %w", uc.ID, err)
		}
	}
	return nil
}

func importUsers(ctx context.Context, tx *database.Tx, users []UserBackup) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for _, u := range users {
		if _, err := tx.ExecContext(ctx, query, u.ID, u.Email, u.PasswordHash, u.Name, u.CreatedAt, u.UpdatedAt); err != nil {
			return fmt.Errorf("user %d: %w", u.ID, err)
		}
	}
	return nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

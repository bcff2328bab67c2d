package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"birdbox/internal/database"
	"birdbox/internal/models"
)

// ChecklistRepository handles database operations for checklists and their sightings
type ChecklistRepository struct {
	db database.DBTX
}

// NewChecklistRepository creates a new checklist repository
func NewChecklistRepository(db database.DBTX) *ChecklistRepository {
	return &ChecklistRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *ChecklistRepository) WithTx(tx database.DBTX) *ChecklistRepository {
	return &ChecklistRepository{db: tx}
}

const checklistColumns = `
	id, sampling_event_id, latitude, longitude, observation_date, time_started,
	observer_id, duration_minutes, created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChecklist(row rowScanner, c *models.Checklist) error {
	return row.Scan(
		&c.ID,
		&c.SamplingEventID,
		&c.Latitude,
		&c.Longitude,
		&c.ObservationDate,
		&c.TimeStarted,
		&c.ObserverID,
		&c.DurationMinutes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

// GetByID retrieves a checklist by ID
func (r *ChecklistRepository) GetByID(ctx context.Context, id int64) (*models.Checklist, error) {
	query := "SELECT " + checklistColumns + " FROM checklists WHERE id = ?"
	checklist := &models.Checklist{}
	err := scanChecklist(r.db.QueryRowContext(ctx, query, id), checklist)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checklist: %w", err)
	}
	return checklist, nil
}

// Create inserts a new checklist and sets its ID
func (r *ChecklistRepository) Create(ctx context.Context, c *models.Checklist) error {
	query := `
		INSERT INTO checklists (
			sampling_event_id, latitude, longitude, observation_date, time_started,
			observer_id, duration_minutes
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		c.SamplingEventID,
		c.Latitude,
		c.Longitude,
		c.ObservationDate,
		c.TimeStarted,
		c.ObserverID,
		c.DurationMinutes,
	)
	if err != nil {
		return fmt.Errorf("failed to create checklist: %w", err)
	}
	c.ID = id
	return nil
}

// UpdateHeader rewrites the date and observer of an existing checklist.
// Coordinates and duration are only overwritten when valid. It returns
// false when no checklist has the given ID.
func (r *ChecklistRepository) UpdateHeader(ctx context.Context, c *models.Checklist) (bool, error) {
	query := `
		UPDATE checklists
		SET observation_date = ?,
			observer_id = ?,
			latitude = COALESCE(?, latitude),
			longitude = COALESCE(?, longitude),
			duration_minutes = COALESCE(?, duration_minutes),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		c.ObservationDate,
		c.ObserverID,
		c.Latitude,
		c.Longitude,
		c.DurationMinutes,
		c.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update checklist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}
	return rows > 0, nil
}

// DeleteSightings removes every sighting of a checklist
func (r *ChecklistRepository) DeleteSightings(ctx context.Context, checklistID int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sightings WHERE checklist_id = ?", checklistID); err != nil {
		return fmt.Errorf("failed to delete sightings: %w", err)
	}
	return nil
}

// DeleteUserChecklists removes every per-user row of a checklist
func (r *ChecklistRepository) DeleteUserChecklists(ctx context.Context, checklistID int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM user_checklists WHERE checklist_id = ?", checklistID); err != nil {
		return fmt.Errorf("failed to delete user checklists: %w", err)
	}
	return nil
}

// InsertSighting adds one species count to a checklist
func (r *ChecklistRepository) InsertSighting(ctx context.Context, checklistID, speciesID int64, count int) (int64, error) {
	query := "INSERT INTO sightings (checklist_id, species_id, observation_count) VALUES (?, ?, ?)"
	id, err := r.db.ExecReturningID(ctx, query, checklistID, speciesID, count)
	if err != nil {
		return 0, fmt.Errorf("failed to insert sighting: %w", err)
	}
	return id, nil
}

// InsertUserChecklist adds the per-user copy of a sighting
func (r *ChecklistRepository) InsertUserChecklist(ctx context.Context, userEmail string, checklistID, speciesID int64, count int) (int64, error) {
	query := `
		INSERT INTO user_checklists (user_email, checklist_id, species_id, observation_count)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, userEmail, checklistID, speciesID, count)
	if err != nil {
		return 0, fmt.Errorf("failed to insert user checklist: %w", err)
	}
	return id, nil
}

// GetSightings returns the sightings of a checklist ordered by species name
func (r *ChecklistRepository) GetSightings(ctx context.Context, checklistID int64) ([]models.Sighting, error) {
	query := `
		SELECT s.id, s.checklist_id, s.species_id, sp.common_name, s.observation_count
		FROM sightings s
		JOIN species sp ON s.species_id = sp.id
		WHERE s.checklist_id = ?
		ORDER BY sp.common_name, s.id
	`
	rows, err := r.db.QueryContext(ctx, query, checklistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sightings: %w", err)
	}
	defer rows.Close()

	sightings := []models.Sighting{}
	for rows.Next() {
		var s models.Sighting
		if err := rows.Scan(&s.ID, &s.ChecklistID, &s.SpeciesID, &s.CommonName, &s.ObservationCount); err != nil {
			return nil, fmt.Errorf("failed to scan sighting: %w", err)
		}
		sightings = append(sightings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sightings: %w", err)
	}

	return sightings, nil
}

// ListByObserver returns the checklists recorded by an observer, newest first
func (r *ChecklistRepository) ListByObserver(ctx context.Context, observerID string) ([]models.Checklist, error) {
	query := "SELECT " + checklistColumns + `
		FROM checklists
		WHERE observer_id = ?
		ORDER BY observation_date DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, observerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query checklists: %w", err)
	}
	defer rows.Close()

	checklists := []models.Checklist{}
	for rows.Next() {
		var c models.Checklist
		if err := scanChecklist(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan checklist: %w", err)
		}
		checklists = append(checklists, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate checklists: %w", err)
	}

	return checklists, nil
}

// ListUserChecklistItems returns the per-user rows of an observer joined with
// their checklist and species, newest checklist first
func (r *ChecklistRepository) ListUserChecklistItems(ctx context.Context, userEmail string) ([]models.UserChecklistItem, error) {
	query := `
		SELECT c.id, c.sampling_event_id, c.latitude, c.longitude, c.observation_date,
			sp.common_name, uc.observation_count
		FROM user_checklists uc
		JOIN checklists c ON uc.checklist_id = c.id
		JOIN species sp ON uc.species_id = sp.id
		WHERE uc.user_email = ?
		ORDER BY c.observation_date DESC, c.id DESC, sp.common_name
	`
	rows, err := r.db.QueryContext(ctx, query, userEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to query user checklists: %w", err)
	}
	defer rows.Close()

	items := []models.UserChecklistItem{}
	for rows.Next() {
		var item models.UserChecklistItem
		if err := rows.Scan(
			&item.ChecklistID,
			&item.SamplingEventID,
			&item.Latitude,
			&item.Longitude,
			&item.ObservationDate,
			&item.CommonName,
			&item.ObservationCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user checklist: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user checklists: %w", err)
	}

	return items, nil
}

// Delete removes a checklist owned by observerID. It returns false when no
// such checklist exists for that observer.
func (r *ChecklistRepository) Delete(ctx context.Context, id int64, observerID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM checklists WHERE id = ? AND observer_id = ?", id, observerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete checklist: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return rows > 0, nil
}

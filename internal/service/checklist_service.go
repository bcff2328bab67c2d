package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"birdbox/internal/database"
	"birdbox/internal/metrics"
	"birdbox/internal/models"
	"birdbox/internal/repository"
	"birdbox/internal/validation"
)

// StatusSuccess is reported for every committed submission
const StatusSuccess = "success"

// SubmitRequest is one checklist submission. A nil or zero ChecklistID
// creates a new checklist.
type SubmitRequest struct {
	ChecklistID     *int64                 `json:"checklist_id"`
	Species         []models.SightingEntry `json:"species"`
	Latitude        *float64               `json:"latitude"`
	Longitude       *float64               `json:"longitude"`
	DurationMinutes *float64               `json:"duration_minutes"`
}

// SubmitResult is returned after a submission commits
type SubmitResult struct {
	ChecklistID int64  `json:"checklist_id"`
	Status      string `json:"status"`
}

// ChecklistService records checklists and replaces their sighting sets
type ChecklistService struct {
	db             *database.DB
	checklistRepo  *repository.ChecklistRepository
	speciesService *SpeciesService
	metrics        *metrics.Metrics
	now            func() time.Time
}

// NewChecklistService creates a new checklist service
func NewChecklistService(db *database.DB, checklistRepo *repository.ChecklistRepository, speciesService *SpeciesService, m *metrics.Metrics) *ChecklistService {
	return &ChecklistService{
		db:             db,
		checklistRepo:  checklistRepo,
		speciesService: speciesService,
		metrics:        m,
		now:            time.Now,
	}
}

// Submit validates req and, in one transaction, creates or updates the
// checklist and replaces its sightings with exactly the submitted set.
// Only the owning observer may update a checklist; anyone else gets
// ErrChecklistNotFound, as with Delete. Nothing is written when any step fails.
func (s *ChecklistService) Submit(ctx context.Context, caller string, req SubmitRequest) (result *SubmitResult, err error) {
	defer func() {
		s.metrics.RecordSubmission(submissionStatus(err), len(req.Species))
	}()

	if caller == "" {
		return nil, ErrUnauthorized
	}
	if err := validateSubmission(req); err != nil {
		return nil, err
	}

	var existing *models.Checklist
	if req.ChecklistID != nil && *req.ChecklistID != 0 {
		existing, err = s.checklistRepo.GetByID(ctx, *req.ChecklistID)
		if err != nil {
			return nil, fmt.Errorf("failed to load checklist: %w", err)
		}
		if existing == nil || existing.ObserverID != caller {
			return nil, ErrChecklistNotFound
		}
	}

	resolved := make([]models.ResolvedSighting, 0, len(req.Species))
	for _, entry := range req.Species {
		speciesID, err := s.speciesService.Resolve(ctx, entry.CommonName)
		if err != nil {
			var notFound *SpeciesNotFoundError
			if errors.As(err, &notFound) {
				return nil, validation.ValidationError{Field: "species", Message: notFound.Error(), Err: notFound}
			}
			return nil, err
		}
		resolved = append(resolved, models.ResolvedSighting{SpeciesID: speciesID, Count: entry.Count})
	}

	now := s.now().UTC()
	checklist := &models.Checklist{
		ObservationDate: models.NewDate(now),
		ObserverID:      caller,
		Latitude:        optionalFloat(req.Latitude),
		Longitude:       optionalFloat(req.Longitude),
		DurationMinutes: optionalFloat(req.DurationMinutes),
	}

	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		repo := s.checklistRepo.WithTx(tx)

		if existing != nil {
			checklist.ID = existing.ID
			ok, err := repo.UpdateHeader(ctx, checklist)
			if err != nil {
				return err
			}
			if !ok {
				return ErrChecklistNotFound
			}
		} else {
			if !checklist.Latitude.Valid {
				checklist.Latitude = sql.NullFloat64{Float64: 0, Valid: true}
			}
			if !checklist.Longitude.Valid {
				checklist.Longitude = sql.NullFloat64{Float64: 0, Valid: true}
			}
			checklist.SamplingEventID = uuid.NewString()
			checklist.TimeStarted = sql.NullString{String: now.Format(time.TimeOnly), Valid: true}
			if err := repo.Create(ctx, checklist); err != nil {
				return err
			}
		}

		if err := repo.DeleteSightings(ctx, checklist.ID); err != nil {
			return err
		}
		if err := repo.DeleteUserChecklists(ctx, checklist.ID); err != nil {
			return err
		}

		for _, sighting := range resolved {
			if _, err := repo.InsertSighting(ctx, checklist.ID, sighting.SpeciesID, sighting.Count); err != nil {
				return err
			}
			if _, err := repo.InsertUserChecklist(ctx, caller, checklist.ID, sighting.SpeciesID, sighting.Count); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrChecklistNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save checklist: %w", err)
	}

	log.Info().
		Int64("checklist_id", checklist.ID).
		Str("observer", caller).
		Int("sightings", len(resolved)).
		Bool("update", existing != nil).
		Msg("Checklist saved")

	return &SubmitResult{ChecklistID: checklist.ID, Status: StatusSuccess}, nil
}

func validateSubmission(req SubmitRequest) error {
	if len(req.Species) == 0 {
		return validation.ValidationError{Field: "species", Message: "species data required"}
	}

	seen := make(map[string]struct{}, len(req.Species))
	for i, entry := range req.Species {
		name := strings.TrimSpace(entry.CommonName)
		if name == "" {
			return validation.ValidationError{Field: fmt.Sprintf("species[%d].common_name", i), Message: "common name is required"}
		}
		if entry.Count < 1 {
			return validation.ValidationError{Field: fmt.Sprintf("species[%d].count", i), Message: "count must be at least 1"}
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return validation.ValidationError{Field: fmt.Sprintf("species[%d].common_name", i), Message: fmt.Sprintf("duplicate species %q", name)}
		}
		seen[key] = struct{}{}
	}

	if req.Latitude != nil {
		if err := validation.ValidateLatitude("latitude", *req.Latitude); err != nil {
			return err
		}
	}
	if req.Longitude != nil {
		if err := validation.ValidateLongitude("longitude", *req.Longitude); err != nil {
			return err
		}
	}
	if req.DurationMinutes != nil && !(*req.DurationMinutes >= 0) {
		return validation.ValidationError{Field: "duration_minutes", Message: "duration must not be negative"}
	}
	return nil
}

func submissionStatus(err error) string {
	var ve validation.ValidationError
	switch {
	case err == nil:
		return metrics.SubmissionSuccess
	case errors.As(err, &ve):
		return metrics.SubmissionValidation
	case errors.Is(err, ErrChecklistNotFound):
		return metrics.SubmissionNotFound
	default:
		return metrics.SubmissionError
	}
}

func optionalFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// ListForObserver returns the caller's checklists, newest first, each with
// its sightings ordered by species name
func (s *ChecklistService) ListForObserver(ctx context.Context, caller string) ([]models.ChecklistWithSightings, error) {
	if caller == "" {
		return nil, ErrUnauthorized
	}

	checklists, err := s.checklistRepo.ListByObserver(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("failed to list checklists: %w", err)
	}

	result := make([]models.ChecklistWithSightings, 0, len(checklists))
	for _, c := range checklists {
		sightings, err := s.checklistRepo.GetSightings(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load sightings: %w", err)
		}
		result = append(result, models.ChecklistWithSightings{Checklist: c, Sightings: sightings})
	}
	return result, nil
}

// GetSightings returns the current sighting set of a checklist
func (s *ChecklistService) GetSightings(ctx context.Context, checklistID int64) ([]models.Sighting, error) {
	checklist, err := s.checklistRepo.GetByID(ctx, checklistID)
	if err != nil {
		return nil, fmt.Errorf("failed to load checklist: %w", err)
	}
	if checklist == nil {
		return nil, ErrChecklistNotFound
	}

	sightings, err := s.checklistRepo.GetSightings(ctx, checklistID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sightings: %w", err)
	}
	return sightings, nil
}

// UserChecklistItems returns the caller's per-user sighting rows
func (s *ChecklistService) UserChecklistItems(ctx context.Context, caller string) ([]models.UserChecklistItem, error) {
	if caller == "" {
		return nil, ErrUnauthorized
	}
	items, err := s.checklistRepo.ListUserChecklistItems(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("failed to list checklist items: %w", err)
	}
	return items, nil
}

// Delete removes one of the caller's checklists with all of its sightings.
// Checklists owned by someone else are reported as not found.
func (s *ChecklistService) Delete(ctx context.Context, caller string, checklistID int64) error {
	if caller == "" {
		return ErrUnauthorized
	}

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		repo := s.checklistRepo.WithTx(tx)

		if err := repo.DeleteSightings(ctx, checklistID); err != nil {
			return err
		}
		if err := repo.DeleteUserChecklists(ctx, checklistID); err != nil {
			return err
		}
		ok, err := repo.Delete(ctx, checklistID, caller)
		if err != nil {
			return err
		}
		if !ok {
			return ErrChecklistNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrChecklistNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete checklist: %w", err)
	}

	log.Info().Int64("checklist_id", checklistID).Str("observer", caller).Msg("Checklist deleted")
	return nil
}

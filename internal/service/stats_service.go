package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"birdbox/internal/models"
	"birdbox/internal/repository"
	"birdbox/internal/validation"
)

// StatsService answers the aggregate statistics queries
type StatsService struct {
	statsRepo      *repository.StatsRepository
	speciesService *SpeciesService
}

// NewStatsService creates a new stats service
func NewStatsService(statsRepo *repository.StatsRepository, speciesService *SpeciesService) *StatsService {
	return &StatsService{
		statsRepo:      statsRepo,
		speciesService: speciesService,
	}
}

// SpeciesSuggest returns species whose name contains query
func (s *StatsService) SpeciesSuggest(ctx context.Context, query string) ([]models.Species, error) {
	return s.speciesService.Suggest(ctx, query)
}

// resolveFilter turns an optional species name into an id filter. found is
// false when a name was given but matches no species.
func (s *StatsService) resolveFilter(ctx context.Context, speciesName string) (id *int64, found bool, err error) {
	if strings.TrimSpace(speciesName) == "" {
		return nil, true, nil
	}

	speciesID, err := s.speciesService.Resolve(ctx, speciesName)
	if err != nil {
		var notFound *SpeciesNotFoundError
		if errors.As(err, &notFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &speciesID, true, nil
}

// Density returns one point per located, counted sighting, optionally for a
// single species. An unknown species yields no points.
func (s *StatsService) Density(ctx context.Context, speciesName string) ([]models.DensityPoint, error) {
	speciesID, found, err := s.resolveFilter(ctx, speciesName)
	if err != nil {
		return nil, err
	}
	if !found {
		return []models.DensityPoint{}, nil
	}

	points, err := s.statsRepo.Density(ctx, speciesID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute density: %w", err)
	}
	return points, nil
}

// RegionStats aggregates species and observers for checklists inside box
func (s *StatsService) RegionStats(ctx context.Context, box models.BoundingBox) (*models.RegionStats, error) {
	if err := validation.ValidateBoundingBox(box); err != nil {
		return nil, err
	}

	speciesStats, err := s.statsRepo.RegionSpecies(ctx, box)
	if err != nil {
		return nil, fmt.Errorf("failed to compute region species: %w", err)
	}

	contributors, err := s.statsRepo.TopContributors(ctx, box)
	if err != nil {
		return nil, fmt.Errorf("failed to compute top contributors: %w", err)
	}

	return &models.RegionStats{
		SpeciesStats:    speciesStats,
		TopContributors: contributors,
	}, nil
}

// UserTrends returns the observer's daily totals, optionally for one
// species. An unknown species yields no points.
func (s *StatsService) UserTrends(ctx context.Context, observer, speciesName string) ([]models.TrendPoint, error) {
	if observer == "" {
		return nil, ErrUnauthorized
	}

	speciesID, found, err := s.resolveFilter(ctx, speciesName)
	if err != nil {
		return nil, err
	}
	if !found {
		return []models.TrendPoint{}, nil
	}

	trends, err := s.statsRepo.ObserverTrends(ctx, observer, speciesID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute user trends: %w", err)
	}
	return trends, nil
}

// UserSpecies returns the names of species the observer has recorded that
// contain query
func (s *StatsService) UserSpecies(ctx context.Context, observer, query string) ([]string, error) {
	if observer == "" {
		return nil, ErrUnauthorized
	}

	names, err := s.statsRepo.ObserverSpecies(ctx, observer, strings.TrimSpace(query))
	if err != nil {
		return nil, fmt.Errorf("failed to list user species: %w", err)
	}
	return names, nil
}

// SpeciesTrends returns daily totals for one species across all observers
func (s *StatsService) SpeciesTrends(ctx context.Context, speciesName string) ([]models.TrendPoint, error) {
	if strings.TrimSpace(speciesName) == "" {
		return nil, validation.ValidationError{Field: "species", Message: "species parameter is required"}
	}

	speciesID, err := s.speciesService.Resolve(ctx, speciesName)
	if err != nil {
		var notFound *SpeciesNotFoundError
		if errors.As(err, &notFound) {
			return nil, validation.ValidationError{Field: "species", Message: notFound.Error(), Err: notFound}
		}
		return nil, err
	}

	trends, err := s.statsRepo.SpeciesTrends(ctx, speciesID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute species trends: %w", err)
	}
	return trends, nil
}

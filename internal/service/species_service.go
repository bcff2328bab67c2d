package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"birdbox/internal/metrics"
	"birdbox/internal/models"
	"birdbox/internal/repository"
)

// SpeciesService resolves common names to species ids and serves
// autocomplete lookups
type SpeciesService struct {
	speciesRepo *repository.SpeciesRepository
	resolved    *cache.Cache
	metrics     *metrics.Metrics
}

// NewSpeciesService creates a species service whose name resolutions are
// cached for ttl. Species rows are reference data, so entries are never
// invalidated before they expire.
func NewSpeciesService(speciesRepo *repository.SpeciesRepository, ttl time.Duration, m *metrics.Metrics) *SpeciesService {
	return &SpeciesService{
		speciesRepo: speciesRepo,
		resolved:    cache.New(ttl, 2*ttl),
		metrics:     m,
	}
}

// Resolve returns the id of the species with the given common name.
// Matching is case-insensitive on the trimmed name. Unknown names return a
// *SpeciesNotFoundError.
func (s *SpeciesService) Resolve(ctx context.Context, commonName string) (int64, error) {
	name := strings.TrimSpace(commonName)
	if name == "" {
		return 0, &SpeciesNotFoundError{Name: commonName}
	}

	if id, ok := s.resolved.Get(name); ok {
		s.metrics.RecordCacheLookup(true)
		return id.(int64), nil
	}
	s.metrics.RecordCacheLookup(false)

	species, err := s.speciesRepo.GetByName(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve species: %w", err)
	}
	if species == nil {
		return 0, &SpeciesNotFoundError{Name: name}
	}

	s.resolved.SetDefault(name, species.ID)
	return species.ID, nil
}

// Suggest returns species whose name contains query, ordered by name
func (s *SpeciesService) Suggest(ctx context.Context, query string) ([]models.Species, error) {
	species, err := s.speciesRepo.Search(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, fmt.Errorf("failed to suggest species: %w", err)
	}
	return species, nil
}

// Random returns a random species, or ErrNoSpecies when none are loaded
func (s *SpeciesService) Random(ctx context.Context) (*models.Species, error) {
	species, err := s.speciesRepo.Random(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to pick random species: %w", err)
	}
	if species == nil {
		return nil, ErrNoSpecies
	}
	return species, nil
}

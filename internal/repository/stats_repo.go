package repository

import (
	"context"
	"fmt"

	"birdbox/internal/database"
	"birdbox/internal/models"
)

// StatsRepository runs the read-side aggregation queries over sightings
type StatsRepository struct {
	db database.DBTX
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db database.DBTX) *StatsRepository {
	return &StatsRepository{db: db}
}

// Density returns one point per sighting that has a location and a count.
// A nil speciesID returns points for every species.
func (r *StatsRepository) Density(ctx context.Context, speciesID *int64) ([]models.DensityPoint, error) {
	query := `
		SELECT c.latitude, c.longitude, s.observation_count
		FROM sightings s
		JOIN checklists c ON s.checklist_id = c.id
		WHERE c.latitude IS NOT NULL
			AND c.longitude IS NOT NULL
			AND s.observation_count IS NOT NULL
	`
	var args []any
	if speciesID != nil {
		query += " AND s.species_id = ?"
		args = append(args, *speciesID)
	}
	query += " ORDER BY s.id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query density: %w", err)
	}
	defer rows.Close()

	points := []models.DensityPoint{}
	for rows.Next() {
		var p models.DensityPoint
		if err := rows.Scan(&p.Lat, &p.Lng, &p.Density); err != nil {
			return nil, fmt.Errorf("failed to scan density point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate density points: %w", err)
	}

	return points, nil
}

// RegionSpecies aggregates sightings per species for checklists inside box.
// All four edges are inclusive.
func (r *StatsRepository) RegionSpecies(ctx context.Context, box models.BoundingBox) (map[string]models.SpeciesRegionStat, error) {
	query := `
		SELECT sp.common_name,
			COALESCE(SUM(s.observation_count), 0),
			COUNT(DISTINCT c.id)
		FROM sightings s
		JOIN checklists c ON s.checklist_id = c.id
		JOIN species sp ON s.species_id = sp.id
		WHERE c.latitude BETWEEN ? AND ?
			AND c.longitude BETWEEN ? AND ?
		GROUP BY sp.common_name
	`
	rows, err := r.db.QueryContext(ctx, query, box.South, box.North, box.West, box.East)
	if err != nil {
		return nil, fmt.Errorf("failed to query region species: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]models.SpeciesRegionStat)
	for rows.Next() {
		var name string
		var stat models.SpeciesRegionStat
		if err := rows.Scan(&name, &stat.Sightings, &stat.Checklists); err != nil {
			return nil, fmt.Errorf("failed to scan region species: %w", err)
		}
		stats[name] = stat
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate region species: %w", err)
	}

	return stats, nil
}

// TopContributors ranks every observer by the number of checklists inside
// box, most first, ties broken by observer id
func (r *StatsRepository) TopContributors(ctx context.Context, box models.BoundingBox) ([]models.Contributor, error) {
	query := `
		SELECT observer_id, COUNT(id) AS checklist_count
		FROM checklists
		WHERE latitude BETWEEN ? AND ?
			AND longitude BETWEEN ? AND ?
		GROUP BY observer_id
		ORDER BY checklist_count DESC, observer_id
	`
	rows, err := r.db.QueryContext(ctx, query, box.South, box.North, box.West, box.East)
	if err != nil {
		return nil, fmt.Errorf("failed to query top contributors: %w", err)
	}
	defer rows.Close()

	contributors := []models.Contributor{}
	for rows.Next() {
		var c models.Contributor
		if err := rows.Scan(&c.ObserverID, &c.Checklists); err != nil {
			return nil, fmt.Errorf("failed to scan contributor: %w", err)
		}
		contributors = append(contributors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contributors: %w", err)
	}

	return contributors, nil
}

// ObserverTrends sums counts per observation date for one observer's
// checklists, optionally limited to one species, oldest date first
func (r *StatsRepository) ObserverTrends(ctx context.Context, observerID string, speciesID *int64) ([]models.TrendPoint, error) {
	query := `
		SELECT c.observation_date, COALESCE(SUM(s.observation_count), 0)
		FROM sightings s
		JOIN checklists c ON s.checklist_id = c.id
		WHERE c.observer_id = ?
			AND c.observation_date IS NOT NULL
	`
	args := []any{observerID}
	if speciesID != nil {
		query += " AND s.species_id = ?"
		args = append(args, *speciesID)
	}
	query += " GROUP BY c.observation_date ORDER BY c.observation_date"

	return r.queryTrends(ctx, query, args...)
}

// SpeciesTrends sums counts per observation date for one species across
// every observer, oldest date first
func (r *StatsRepository) SpeciesTrends(ctx context.Context, speciesID int64) ([]models.TrendPoint, error) {
	query := `
		SELECT c.observation_date, COALESCE(SUM(s.observation_count), 0)
		FROM sightings s
		JOIN checklists c ON s.checklist_id = c.id
		WHERE s.species_id = ?
			AND c.observation_date IS NOT NULL
		GROUP BY c.observation_date
		ORDER BY c.observation_date
	`
	return r.queryTrends(ctx, query, speciesID)
}

func (r *StatsRepository) queryTrends(ctx context.Context, query string, args ...any) ([]models.TrendPoint, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trends: %w", err)
	}
	defer rows.Close()

	trends := []models.TrendPoint{}
	for rows.Next() {
		var t models.TrendPoint
		if err := rows.Scan(&t.Date, &t.Count); err != nil {
			return nil, fmt.Errorf("failed to scan trend: %w", err)
		}
		trends = append(trends, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trends: %w", err)
	}

	return trends, nil
}

// ObserverSpecies returns the distinct species names an observer has
// recorded whose name contains query, ordered by name
func (r *StatsRepository) ObserverSpecies(ctx context.Context, userEmail, query string) ([]string, error) {
	sqlQuery := `
		SELECT DISTINCT sp.common_name
		FROM user_checklists uc
		JOIN species sp ON uc.species_id = sp.id
		WHERE uc.user_email = ?
			AND LOWER(sp.common_name) LIKE LOWER(?) ESCAPE '!'
		ORDER BY sp.common_name
	`
	rows, err := r.db.QueryContext(ctx, sqlQuery, userEmail, ContainsPattern(query))
	if err != nil {
		return nil, fmt.Errorf("failed to query observer species: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan species name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate species names: %w", err)
	}

	return names, nil
}

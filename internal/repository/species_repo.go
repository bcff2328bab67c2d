package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"birdbox/internal/database"
	"birdbox/internal/models"
)

// SpeciesRepository handles read access to the species reference table
type SpeciesRepository struct {
	db database.DBTX
}

// NewSpeciesRepository creates a new species repository
func NewSpeciesRepository(db database.DBTX) *SpeciesRepository {
	return &SpeciesRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *SpeciesRepository) WithTx(tx database.DBTX) *SpeciesRepository {
	return &SpeciesRepository{db: tx}
}

// GetByName finds a species by case-insensitive exact name. When more than
// one row matches, the exact-case spelling wins, then the lowest id.
func (r *SpeciesRepository) GetByName(ctx context.Context, name string) (*models.Species, error) {
	query := `
		SELECT id, common_name
		FROM species
		WHERE common_name = ? OR LOWER(common_name) = LOWER(?)
		ORDER BY CASE WHEN common_name = ? THEN 0 ELSE 1 END, id
		LIMIT 1
	`
	species := &models.Species{}
	err := r.db.QueryRowContext(ctx, query, name, name, name).Scan(&species.ID, &species.CommonName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get species by name: %w", err)
	}
	return species, nil
}

// GetByID retrieves a species by ID
func (r *SpeciesRepository) GetByID(ctx context.Context, id int64) (*models.Species, error) {
	species := &models.Species{}
	err := r.db.QueryRowContext(ctx, "SELECT id, common_name FROM species WHERE id = ?", id).
		Scan(&species.ID, &species.CommonName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get species: %w", err)
	}
	return species, nil
}

// Search returns species whose name contains query, case-insensitively,
// ordered by name. An empty query returns every species.
func (r *SpeciesRepository) Search(ctx context.Context, query string) ([]models.Species, error) {
	sqlQuery := `
		SELECT id, common_name
		FROM species
		WHERE LOWER(common_name) LIKE LOWER(?) ESCAPE '!'
		ORDER BY common_name, id
	`
	rows, err := r.db.QueryContext(ctx, sqlQuery, ContainsPattern(query))
	if err != nil {
		return nil, fmt.Errorf("failed to search species: %w", err)
	}
	defer rows.Close()

	species := []models.Species{}
	for rows.Next() {
		var s models.Species
		if err := rows.Scan(&s.ID, &s.CommonName); err != nil {
			return nil, fmt.Errorf("failed to scan species: %w", err)
		}
		species = append(species, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate species: %w", err)
	}

	return species, nil
}

// Random returns one species chosen at random, or nil when the table is empty
func (r *SpeciesRepository) Random(ctx context.Context) (*models.Species, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM species").Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count species: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	// OFFSET keeps this portable; RANDOM() and RAND() differ between dialects.
	offset := rand.Int64N(count)
	species := &models.Species{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, common_name FROM species ORDER BY id LIMIT 1 OFFSET ?", offset,
	).Scan(&species.ID, &species.CommonName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get random species: %w", err)
	}
	return species, nil
}

// Create inserts a species and returns it
func (r *SpeciesRepository) Create(ctx context.Context, commonName string) (*models.Species, error) {
	id, err := r.db.ExecReturningID(ctx, "INSERT INTO species (common_name) VALUES (?)", commonName)
	if err != nil {
		return nil, fmt.Errorf("failed to create species: %w", err)
	}
	return &models.Species{ID: id, CommonName: commonName}, nil
}

// ContainsPattern builds a LIKE pattern matching s anywhere. LIKE
// metacharacters in s are escaped with '!' so they match literally. Case
// folding is left to LOWER() in SQL so both sides fold the same way.
func ContainsPattern(s string) string {
	escaped := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
	return "%" + escaped + "%"
}

package service

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized       = errors.New("authentication required")
	ErrChecklistNotFound  = errors.New("checklist not found")
	ErrNoSpecies          = errors.New("no species available")
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// SpeciesNotFoundError reports a common name with no matching species
type SpeciesNotFoundError struct {
	Name string
}

func (e *SpeciesNotFoundError) Error() string {
	return fmt.Sprintf("species %q not found", e.Name)
}

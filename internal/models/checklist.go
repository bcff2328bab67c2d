package models

import (
	"database/sql"
	"time"
)

// Checklist represents one observation session at one place and time
type Checklist struct {
	ID              int64
	SamplingEventID string
	Latitude        sql.NullFloat64
	Longitude       sql.NullFloat64
	ObservationDate Date
	TimeStarted     sql.NullString
	ObserverID      string
	DurationMinutes sql.NullFloat64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Sighting is one species+count line item within a checklist
type Sighting struct {
	ID               int64
	ChecklistID      int64
	SpeciesID        int64
	CommonName       string
	ObservationCount sql.NullInt64
}

// UserChecklist is the per-user copy of a sighting written on submission
type UserChecklist struct {
	ID               int64
	UserEmail        string
	ChecklistID      int64
	SpeciesID        int64
	ObservationCount int
}

// UserChecklistItem is a user_checklists row joined with its checklist and species
type UserChecklistItem struct {
	ChecklistID      int64
	SamplingEventID  string
	Latitude         sql.NullFloat64
	Longitude        sql.NullFloat64
	ObservationDate  Date
	CommonName       string
	ObservationCount int
}

// ChecklistWithSightings combines a checklist with its current sighting set
type ChecklistWithSightings struct {
	Checklist Checklist
	Sightings []Sighting
}

// SightingEntry is one submitted line: a species name and how many were seen
type SightingEntry struct {
	CommonName string `json:"common_name"`
	Count      int    `json:"count"`
}

// ResolvedSighting is a SightingEntry whose name has been resolved to a species id
type ResolvedSighting struct {
	SpeciesID int64
	Count     int
}

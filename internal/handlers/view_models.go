package handlers

import (
	"database/sql"
	"time"

	"birdbox/internal/models"
)

type speciesListResponse struct {
	Species []models.Species `json:"species"`
}

type randomSpeciesResponse struct {
	CommonName string `json:"common_name"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// ChecklistView is the JSON form of a checklist with its sightings
type ChecklistView struct {
	ID              int64          `json:"id"`
	SamplingEventID string         `json:"sampling_event_id"`
	Latitude        *float64       `json:"latitude"`
	Longitude       *float64       `json:"longitude"`
	ObservationDate models.Date    `json:"observation_date"`
	TimeStarted     *string        `json:"time_started"`
	ObserverID      string         `json:"observer_id"`
	DurationMinutes *float64       `json:"duration_minutes"`
	Sightings       []SightingView `json:"sightings"`
}

// SightingView is one species line of a ChecklistView
type SightingView struct {
	CommonName string `json:"common_name"`
	Count      *int64 `json:"count"`
}

// ChecklistItemView is one row of an observer's personal checklist
type ChecklistItemView struct {
	ChecklistID     int64       `json:"checklist_id"`
	SamplingEventID string      `json:"sampling_event_id"`
	Latitude        *float64    `json:"latitude"`
	Longitude       *float64    `json:"longitude"`
	ObservationDate models.Date `json:"observation_date"`
	CommonName      string      `json:"common_name"`
	Count           int         `json:"count"`
}

type checklistsResponse struct {
	Checklists []ChecklistView `json:"checklists"`
}

type checklistItemsResponse struct {
	Items []ChecklistItemView `json:"checklist_items"`
}

type densityResponse struct {
	Density []models.DensityPoint `json:"density"`
}

type trendsResponse struct {
	Trends []models.TrendPoint `json:"trends"`
}

type graphResponse struct {
	Data []models.TrendPoint `json:"data"`
}

type observerSpeciesResponse struct {
	Species []string `json:"species"`
}

type regionRequest struct {
	North *float64 `json:"north"`
	South *float64 `json:"south"`
	East  *float64 `json:"east"`
	West  *float64 `json:"west"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type sessionResponse struct {
	Email     string `json:"email"`
	CSRFToken string `json:"csrf_token,omitempty"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newChecklistView(c models.ChecklistWithSightings) ChecklistView {
	view := ChecklistView{
		ID:              c.Checklist.ID,
		SamplingEventID: c.Checklist.SamplingEventID,
		Latitude:        nullFloat(c.Checklist.Latitude),
		Longitude:       nullFloat(c.Checklist.Longitude),
		ObservationDate: c.Checklist.ObservationDate,
		ObserverID:      c.Checklist.ObserverID,
		DurationMinutes: nullFloat(c.Checklist.DurationMinutes),
		Sightings:       make([]SightingView, 0, len(c.Sightings)),
	}
	if c.Checklist.TimeStarted.Valid {
		view.TimeStarted = &c.Checklist.TimeStarted.String
	}
	for _, s := range c.Sightings {
		sighting := SightingView{CommonName: s.CommonName}
		if s.ObservationCount.Valid {
			count := s.ObservationCount.Int64
			sighting.Count = &count
		}
		view.Sightings = append(view.Sightings, sighting)
	}
	return view
}

func newChecklistItemView(item models.UserChecklistItem) ChecklistItemView {
	return ChecklistItemView{
		ChecklistID:     item.ChecklistID,
		SamplingEventID: item.SamplingEventID,
		Latitude:        nullFloat(item.Latitude),
		Longitude:       nullFloat(item.Longitude),
		ObservationDate: item.ObservationDate,
		CommonName:      item.CommonName,
		Count:           item.ObservationCount,
	}
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

package handlers

import (
	"net/http"

	"birdbox/internal/models"
	"birdbox/internal/service"
)

// StatsHandler serves the aggregate statistics endpoints
type StatsHandler struct {
	statsService *service.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// Density returns map points for every located sighting
func (h *StatsHandler) Density(w http.ResponseWriter, r *http.Request) {
	points, err := h.statsService.Density(r.Context(), r.URL.Query().Get("species"))
	if err != nil {
		handleServiceError(w, err, "Failed to load density")
		return
	}
	writeJSON(w, http.StatusOK, densityResponse{Density: points})
}

// RegionStats aggregates species and contributors inside a bounding box
func (h *StatsHandler) RegionStats(w http.ResponseWriter, r *http.Request) {
	var req regionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	if req.North == nil || req.South == nil || req.East == nil || req.West == nil {
		respondWithError(w, http.StatusBadRequest, "north, south, east and west are required", "", nil)
		return
	}

	box := models.BoundingBox{North: *req.North, South: *req.South, East: *req.East, West: *req.West}
	stats, err := h.statsService.RegionStats(r.Context(), box)
	if err != nil {
		handleServiceError(w, err, "Failed to load region stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// SpeciesGraph returns per-date totals for one species across all observers
func (h *StatsHandler) SpeciesGraph(w http.ResponseWriter, r *http.Request) {
	points, err := h.statsService.SpeciesTrends(r.Context(), r.URL.Query().Get("species"))
	if err != nil {
		handleServiceError(w, err, "Failed to load species graph")
		return
	}
	writeJSON(w, http.StatusOK, graphResponse{Data: points})
}

// UserSpecies suggests species the caller has recorded
func (h *StatsHandler) UserSpecies(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())
	if caller == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	names, err := h.statsService.UserSpecies(r.Context(), caller.ObserverID, r.URL.Query().Get("suggest"))
	if err != nil {
		handleServiceError(w, err, "Failed to load observer species")
		return
	}
	writeJSON(w, http.StatusOK, observerSpeciesResponse{Species: names})
}

// UserTrends returns the caller's per-date totals
func (h *StatsHandler) UserTrends(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())
	if caller == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	trends, err := h.statsService.UserTrends(r.Context(), caller.ObserverID, r.URL.Query().Get("species"))
	if err != nil {
		handleServiceError(w, err, "Failed to load observer trends")
		return
	}
	writeJSON(w, http.StatusOK, trendsResponse{Trends: trends})
}

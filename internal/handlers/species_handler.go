package handlers

import (
	"net/http"

	"birdbox/internal/service"
)

// SpeciesHandler serves species lookups
type SpeciesHandler struct {
	speciesService *service.SpeciesService
}

// NewSpeciesHandler creates a new species handler
func NewSpeciesHandler(speciesService *service.SpeciesService) *SpeciesHandler {
	return &SpeciesHandler{speciesService: speciesService}
}

// Suggest returns species whose name contains the suggest parameter
func (h *SpeciesHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, r.URL.Query().Get("suggest"))
}

// Search returns species whose name contains the query parameter
func (h *SpeciesHandler) Search(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, r.URL.Query().Get("query"))
}

func (h *SpeciesHandler) search(w http.ResponseWriter, r *http.Request, query string) {
	species, err := h.speciesService.Suggest(r.Context(), query)
	if err != nil {
		handleServiceError(w, err, "Failed to search species")
		return
	}
	writeJSON(w, http.StatusOK, speciesListResponse{Species: species})
}

// Random returns one species chosen at random
func (h *SpeciesHandler) Random(w http.ResponseWriter, r *http.Request) {
	species, err := h.speciesService.Random(r.Context())
	if err != nil {
		handleServiceError(w, err, "Failed to pick random species")
		return
	}
	writeJSON(w, http.StatusOK, randomSpeciesResponse{CommonName: species.CommonName})
}

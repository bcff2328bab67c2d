package handlers

import (
	"net/http"
	"strconv"

	"birdbox/internal/service"
)

// ChecklistHandler handles checklist submission and the observer's own checklists
type ChecklistHandler struct {
	checklistService *service.ChecklistService
}

// NewChecklistHandler creates a new checklist handler
func NewChecklistHandler(checklistService *service.ChecklistService) *ChecklistHandler {
	return &ChecklistHandler{checklistService: checklistService}
}

// Save creates or replaces a checklist from a JSON submission
func (h *ChecklistHandler) Save(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())
	if caller == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	var req service.SubmitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	result, err := h.checklistService.Submit(r.Context(), caller.ObserverID, req)
	if err != nil {
		handleServiceError(w, err, "Failed to save checklist")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// List returns the caller's checklists with their sightings
func (h *ChecklistHandler) List(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())
	if caller == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	checklists, err := h.checklistService.ListForObserver(r.Context(), caller.ObserverID)
	if err != nil {
		handleServiceError(w, err, "Failed to list checklists")
		return
	}

	views := make([]ChecklistView, 0, len(checklists))
	for _, c := range checklists {
		views = append(views, newChecklistView(c))
	}
	writeJSON(w, http.StatusOK, checklistsResponse{Checklists: views})
}

// Items returns the caller's flat personal checklist rows
func (h *ChecklistHandler) Items(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())
	if caller == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	items, err := h.checklistService.UserChecklistItems(r.Context(), caller.ObserverID)
	if err != nil {
		handleServiceError(w, err, "Failed to list checklist items")
		return
	}

	views := make([]ChecklistItemView, 0, len(items))
	for _, item := range items {
		views = append(views, newChecklistItemView(item))
	}
	writeJSON(w, http.StatusOK, checklistItemsResponse{Items: views})
}

// Delete removes one of the caller's checklists
func (h *ChecklistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())
	if caller == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	checklistID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || checklistID <= 0 {
		respondWithError(w, http.StatusBadRequest, ErrInvalidChecklistID, "", nil)
		return
	}

	if err := h.checklistService.Delete(r.Context(), caller.ObserverID, checklistID); err != nil {
		handleServiceError(w, err, "Failed to delete checklist")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "deleted"})
}

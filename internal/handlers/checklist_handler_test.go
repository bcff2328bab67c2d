package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"birdbox/internal/service"
)

func submission(checklistID *int64, entries ...any) map[string]any {
	species := make([]map[string]any, 0, len(entries)/2)
	for i := 0; i+1 < len(entries); i += 2 {
		species = append(species, map[string]any{"common_name": entries[i], "count": entries[i+1]})
	}
	body := map[string]any{"species": species}
	if checklistID != nil {
		body["checklist_id"] = *checklistID
	}
	return body
}

func (ts *testServer) listChecklists(t *testing.T, s *observerSession) []ChecklistView {
	t.Helper()
	rec := ts.do(t, http.MethodGet, "/get_checklists", nil, s.cookieOnly)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp checklistsResponse
	decodeBody(t, rec, &resp)
	return resp.Checklists
}

func TestSaveChecklistBlueJayScenario(t *testing.T) {
	ts := newTestServer(t, "Blue Jay", "American Robin")
	alice := ts.register(t, "alice@example.com")

	rec := ts.do(t, http.MethodPost, "/save_checklist", submission(nil, "Blue Jay", 3), alice.as)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result service.SubmitResult
	decodeBody(t, rec, &result)
	assert.Equal(t, service.StatusSuccess, result.Status)
	require.NotZero(t, result.ChecklistID)

	checklists := ts.listChecklists(t, alice)
	require.Len(t, checklists, 1)
	require.Len(t, checklists[0].Sightings, 1)
	assert.Equal(t, "Blue Jay", checklists[0].Sightings[0].CommonName)
	assert.Equal(t, int64(3), *checklists[0].Sightings[0].Count)
	assert.Equal(t, "alice@example.com", checklists[0].ObserverID)

	rec = ts.do(t, http.MethodPost, "/save_checklist", submission(&result.ChecklistID, "Blue Jay", 5), alice.as)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	checklists = ts.listChecklists(t, alice)
	require.Len(t, checklists, 1)
	require.Len(t, checklists[0].Sightings, 1)
	assert.Equal(t, int64(5), *checklists[0].Sightings[0].Count)
}

func TestSaveChecklistErrors(t *testing.T) {
	ts := newTestServer(t, "Blue Jay")
	alice := ts.register(t, "alice@example.com")
	missing := int64(9999)

	tests := []struct {
		name       string
		body       any
		modify     func(*http.Request)
		wantStatus int
		wantError  string
	}{
		{
			name:       "no credentials",
			body:       submission(nil, "Blue Jay", 1),
			modify:     func(*http.Request) {},
			wantStatus: http.StatusUnauthorized,
			wantError:  ErrUnauthorized,
		},
		{
			name:       "cookie without csrf token",
			body:       submission(nil, "Blue Jay", 1),
			modify:     alice.cookieOnly,
			wantStatus: http.StatusForbidden,
			wantError:  ErrInvalidCSRFToken,
		},
		{
			name:       "malformed json",
			body:       "{not json",
			modify:     alice.as,
			wantStatus: http.StatusBadRequest,
			wantError:  ErrInvalidJSON,
		},
		{
			name:       "empty species list",
			body:       submission(nil),
			modify:     alice.as,
			wantStatus: http.StatusBadRequest,
			wantError:  "species: species data required",
		},
		{
			name:       "unknown species",
			body:       submission(nil, "Dodo", 1),
			modify:     alice.as,
			wantStatus: http.StatusBadRequest,
			wantError:  `species: species "Dodo" not found`,
		},
		{
			name:       "unknown checklist",
			body:       submission(&missing, "Blue Jay", 1),
			modify:     alice.as,
			wantStatus: http.StatusNotFound,
			wantError:  "checklist not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/save_checklist", tt.body, tt.modify)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantError, errorMessage(t, rec))
		})
	}

	assert.Empty(t, ts.listChecklists(t, alice), "failed submissions write nothing")
}

func TestSaveChecklistOtherObserversChecklist(t *testing.T) {
	ts := newTestServer(t, "Blue Jay")
	alice := ts.register(t, "alice@example.com")
	bob := ts.register(t, "bob@example.com")

	rec := ts.do(t, http.MethodPost, "/save_checklist", submission(nil, "Blue Jay", 2), alice.as)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result service.SubmitResult
	decodeBody(t, rec, &result)

	rec = ts.do(t, http.MethodPost, "/save_checklist", submission(&result.ChecklistID, "Blue Jay", 7), bob.as)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	assert.Equal(t, "checklist not found", errorMessage(t, rec))

	assert.Empty(t, ts.listChecklists(t, bob))
	checklists := ts.listChecklists(t, alice)
	require.Len(t, checklists, 1)
	require.Len(t, checklists[0].Sightings, 1)
	assert.Equal(t, int64(2), *checklists[0].Sightings[0].Count)
}

func TestSaveChecklistIdenticalResubmit(t *testing.T) {
	ts := newTestServer(t, "Blue Jay")
	alice := ts.register(t, "alice@example.com")

	rec := ts.do(t, http.MethodPost, "/save_checklist", submission(nil, "Blue Jay", 3), alice.as)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result service.SubmitResult
	decodeBody(t, rec, &result)

	for range 2 {
		rec = ts.do(t, http.MethodPost, "/save_checklist", submission(&result.ChecklistID, "Blue Jay", 3), alice.as)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	checklists := ts.listChecklists(t, alice)
	require.Len(t, checklists, 1)
	require.Len(t, checklists[0].Sightings, 1)
	assert.Equal(t, int64(3), *checklists[0].Sightings[0].Count)
}

func TestSaveChecklistWithBearerToken(t *testing.T) {
	ts := newTestServer(t, "Blue Jay")
	alice := ts.register(t, "alice@example.com")

	rec := ts.do(t, http.MethodPost, "/api/auth/token", nil, alice.as)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var token tokenResponse
	decodeBody(t, rec, &token)
	require.NotEmpty(t, token.Token)

	rec = ts.do(t, http.MethodPost, "/save_checklist", submission(nil, "Blue Jay", 2), bearer(token.Token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/get_checklists", nil, bearer("garbage"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Len(t, ts.listChecklists(t, alice), 1)
}

func TestMyChecklistItems(t *testing.T) {
	ts := newTestServer(t, "Blue Jay", "American Robin")
	alice := ts.register(t, "alice@example.com")

	rec := ts.do(t, http.MethodPost, "/save_checklist", submission(nil, "Blue Jay", 2, "American Robin", 1), alice.as)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/my_checklist", nil, alice.cookieOnly)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp checklistItemsResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Items, 2)

	counts := map[string]int{}
	for _, item := range resp.Items {
		counts[item.CommonName] = item.Count
	}
	assert.Equal(t, map[string]int{"Blue Jay": 2, "American Robin": 1}, counts)
}

func TestDeleteChecklist(t *testing.T) {
	ts := newTestServer(t, "Blue Jay")
	alice := ts.register(t, "alice@example.com")
	mallory := ts.register(t, "mallory@example.com")

	rec := ts.do(t, http.MethodPost, "/save_checklist", submission(nil, "Blue Jay", 1), alice.as)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result service.SubmitResult
	decodeBody(t, rec, &result)
	path := fmt.Sprintf("/delete_checklist/%d", result.ChecklistID)

	rec = ts.do(t, http.MethodDelete, "/delete_checklist/abc", nil, alice.as)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodDelete, path, nil, mallory.as)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, ts.listChecklists(t, alice), 1)

	rec = ts.do(t, http.MethodDelete, path, nil, alice.as)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"status":"deleted"}`, rec.Body.String())
	assert.Empty(t, ts.listChecklists(t, alice))
}

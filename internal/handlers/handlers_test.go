package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"birdbox/internal/database"
	"birdbox/internal/metrics"
	"birdbox/internal/repository"
	"birdbox/internal/security"
	"birdbox/internal/service"
	"birdbox/internal/testutil"
)

type testServer struct {
	db        *database.DB
	metrics   *metrics.Metrics
	handler   http.Handler
	speciesID map[string]int64
}

// observerSession is a signed-in browser: its session cookie and CSRF token
type observerSession struct {
	email     string
	cookie    *http.Cookie
	csrfToken string
}

func newTestServer(t *testing.T, speciesNames ...string) *testServer {
	t.Helper()
	captureLogs(t)

	db := testutil.NewTestDB(t)
	m, err := metrics.New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	speciesService := service.NewSpeciesService(repository.NewSpeciesRepository(db), time.Minute, m)
	checklistService := service.NewChecklistService(db, repository.NewChecklistRepository(db), speciesService, m)
	statsService := service.NewStatsService(repository.NewStatsRepository(db), speciesService)
	authService := service.NewAuthService(repository.NewUserRepository(db), security.NewTokenIssuer("test-jwt-secret", time.Hour), time.Hour)
	csrf := security.NewCSRFGenerator("test-csrf-secret")

	middleware := NewMiddleware(authService, csrf, security.NewRateLimiter(ctx, 100, time.Minute), m, 5*time.Second)
	mux := http.NewServeMux()
	RegisterRoutes(mux, middleware, Handlers{
		Auth:      NewAuthHandler(authService, nil, csrf),
		Species:   NewSpeciesHandler(speciesService),
		Checklist: NewChecklistHandler(checklistService),
		Stats:     NewStatsHandler(statsService),
		Health:    NewHealthHandler(db),
	})

	return &testServer{
		db:        db,
		metrics:   m,
		handler:   Logging(middleware.Timeout(middleware.Metrics(mux))),
		speciesID: testutil.SeedSpecies(t, db, speciesNames...),
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, modify ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, fn := range modify {
		fn(req)
	}

	recorder := httptest.NewRecorder()
	ts.handler.ServeHTTP(recorder, req)
	return recorder
}

// as authenticates a request with the session cookie and CSRF header
func (s *observerSession) as(req *http.Request) {
	req.AddCookie(s.cookie)
	req.Header.Set(security.CSRFHeader, s.csrfToken)
}

// cookieOnly authenticates a request with the session cookie alone
func (s *observerSession) cookieOnly(req *http.Request) {
	req.AddCookie(s.cookie)
}

func bearer(token string) func(*http.Request) {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (ts *testServer) register(t *testing.T, email string) *observerSession {
	t.Helper()

	rec := ts.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp sessionResponse
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.CSRFToken)

	return &observerSession{
		email:     resp.Email,
		cookie:    sessionCookie(t, rec),
		csrfToken: resp.CSRFToken,
	}
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == security.SessionCookieName {
			return c
		}
	}
	t.Fatalf("response has no %s cookie", security.SessionCookieName)
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decodeBody(t, rec, &body)
	return body["error"]
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"birdbox/internal/metrics"
	"birdbox/internal/security"
	"birdbox/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const CallerContextKey ContextKey = "caller"

// Authentication methods recorded on a Caller
const (
	AuthSession = "session"
	AuthBearer  = "bearer"
)

// Caller identifies the observer making a request
type Caller struct {
	ObserverID string
	Method     string
	SessionID  string
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	csrf        *security.CSRFGenerator
	limiter     *security.RateLimiter
	metrics     *metrics.Metrics
	timeout     time.Duration
}

// NewMiddleware creates a new middleware instance. limiter and m may be nil.
func NewMiddleware(authService *service.AuthService, csrf *security.CSRFGenerator, limiter *security.RateLimiter, m *metrics.Metrics, timeout time.Duration) *Middleware {
	return &Middleware{
		authService: authService,
		csrf:        csrf,
		limiter:     limiter,
		metrics:     m,
		timeout:     timeout,
	}
}

// RequireObserver rejects requests without a valid bearer token or session
// cookie and puts the Caller in the request context.
func (m *Middleware) RequireObserver(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := m.identify(r)
		if err != nil {
			if errors.Is(err, service.ErrSessionNotFound) || errors.Is(err, service.ErrSessionExpired) {
				http.SetCookie(w, security.CreateDeleteCookie(r))
			}
			handleServiceError(w, err, "Failed to identify caller")
			return
		}

		ctx := context.WithValue(r.Context(), CallerContextKey, caller)
		next(w, r.WithContext(ctx))
	}
}

func (m *Middleware) identify(r *http.Request) (*Caller, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return nil, service.ErrUnauthorized
		}
		observer, err := m.authService.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			return nil, err
		}
		return &Caller{ObserverID: observer, Method: AuthBearer}, nil
	}

	sessionID := security.SessionIDFromRequest(r)
	if sessionID == "" {
		return nil, service.ErrUnauthorized
	}
	user, err := m.authService.ValidateSession(r.Context(), sessionID)
	if err != nil {
		return nil, err
	}
	return &Caller{ObserverID: user.Email, Method: AuthSession, SessionID: sessionID}, nil
}

// CSRFProtect requires a valid X-CSRF-Token on unsafe requests authenticated
// by session cookie. It must run inside RequireObserver.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := GetCallerFromContext(r.Context())
		if caller != nil && caller.Method == AuthSession && !isSafeMethod(r.Method) {
			if !m.csrf.ValidateToken(caller.SessionID, r.Header.Get(security.CSRFHeader)) {
				log.Warn().Str("path", r.URL.Path).Str("observer", caller.ObserverID).Msg("CSRF token rejected")
				respondWithError(w, http.StatusForbidden, ErrInvalidCSRFToken, "", nil)
				return
			}
		}
		next(w, r)
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// RateLimit limits requests per client address
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow(security.GetClientIP(r)) {
			respondWithError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

// Timeout bounds every request's context by the configured duration
func (m *Middleware) Timeout(next http.Handler) http.Handler {
	if m.timeout <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), m.timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Metrics records request counts and latency labelled by the matched route
func (m *Middleware) Metrics(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		_, route := mux.Handler(r)
		if route == "" {
			route = "unmatched"
		}

		rec := newStatusRecorder(w)
		mux.ServeHTTP(rec, r)

		m.metrics.ObserveHTTPRequest(r.Method, route, rec.status, time.Since(start))
	})
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rec *statusRecorder) WriteHeader(code int) {
	if !rec.wroteHeader {
		rec.status = code
		rec.wroteHeader = true
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// GetCallerFromContext retrieves the caller from the request context
func GetCallerFromContext(ctx context.Context) *Caller {
	caller, ok := ctx.Value(CallerContextKey).(*Caller)
	if !ok {
		return nil
	}
	return caller
}

package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"birdbox/internal/models"
	"birdbox/internal/security"
	"birdbox/internal/service"
)

// AuthHandler handles observer accounts, sessions and bearer tokens
type AuthHandler struct {
	authService  *service.AuthService
	emailService *service.EmailService
	csrf         *security.CSRFGenerator
}

// NewAuthHandler creates a new auth handler. emailService may be nil.
func NewAuthHandler(authService *service.AuthService, emailService *service.EmailService, csrf *security.CSRFGenerator) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		emailService: emailService,
		csrf:         csrf,
	}
}

// Register creates an account and signs the new observer in
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	user, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		handleServiceError(w, err, "Failed to register observer")
		return
	}

	if err := h.emailService.SendWelcomeEmail(r.Context(), user.Email, user.Name); err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("Failed to send welcome email")
	}

	session, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err, "Failed to create session after registration")
		return
	}

	h.startSession(w, r, http.StatusCreated, session, user)
}

// Login signs an observer in with email and password
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	session, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err, "Failed to login")
		return
	}

	h.startSession(w, r, http.StatusOK, session, user)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, status int, session *models.Session, user *models.User) {
	csrfToken, err := h.csrf.GenerateToken(session.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to generate CSRF token", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, session.ID, session.ExpiresAt))
	writeJSON(w, status, sessionResponse{Email: user.Email, CSRFToken: csrfToken})
}

// Logout ends the current session, if any
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := security.SessionIDFromRequest(r); sessionID != "" {
		if err := h.authService.Logout(r.Context(), sessionID); err != nil {
			log.Error().Err(err).Msg("Failed to delete session")
		}
	}

	http.SetCookie(w, security.CreateDeleteCookie(r))
	writeJSON(w, http.StatusOK, statusResponse{Status: "logged_out"})
}

// Me reports the signed-in observer and, for session callers, a fresh CSRF token
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())
	if caller == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	resp := sessionResponse{Email: caller.ObserverID}
	if caller.Method == AuthSession {
		token, err := h.csrf.GenerateToken(caller.SessionID)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to generate CSRF token", err)
			return
		}
		resp.CSRFToken = token
	}
	writeJSON(w, http.StatusOK, resp)
}

// Token issues a bearer token for API clients
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	caller := GetCallerFromContext(r.Context())
	if caller == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	token, expiresAt, err := h.authService.IssueToken(caller.ObserverID)
	if err != nil {
		handleServiceError(w, err, "Failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expiresAt})
}

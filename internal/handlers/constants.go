package handlers

const (
	// maxBodyBytes bounds JSON request bodies
	maxBodyBytes = 1 << 20

	ErrInvalidJSON         = "Invalid JSON body"
	ErrUnauthorized        = "Unauthorized"
	ErrInvalidCSRFToken    = "Invalid CSRF token"
	ErrTooManyRequests     = "Too many requests"
	ErrInvalidChecklistID  = "Invalid checklist id"
	ErrInternalServerError = "Internal server error"
)

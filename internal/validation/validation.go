// Package validation checks user input before it reaches the services.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"birdbox/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError reports input that was rejected. Err optionally carries
// the underlying cause.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateName checks an optional display name
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if len(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	if len(name) > 100 {
		return ValidationError{Field: "name", Message: "name must be at most 100 characters"}
	}
	return nil
}

// ValidateLatitude checks that lat is a finite value in [-90, 90]
func ValidateLatitude(field string, lat float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return ValidationError{Field: field, Message: "latitude must be between -90 and 90"}
	}
	return nil
}

// ValidateLongitude checks that lng is a finite value in [-180, 180]
func ValidateLongitude(field string, lng float64) error {
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return ValidationError{Field: field, Message: "longitude must be between -180 and 180"}
	}
	return nil
}

// ValidateBoundingBox checks each edge and rejects inverted boxes.
// Boxes crossing the antimeridian are not supported.
func ValidateBoundingBox(box models.BoundingBox) error {
	if err := ValidateLatitude("north", box.North); err != nil {
		return err
	}
	if err := ValidateLatitude("south", box.South); err != nil {
		return err
	}
	if err := ValidateLongitude("east", box.East); err != nil {
		return err
	}
	if err := ValidateLongitude("west", box.West); err != nil {
		return err
	}
	if box.South > box.North {
		return ValidationError{Field: "south", Message: "south must not be greater than north"}
	}
	if box.West > box.East {
		return ValidationError{Field: "west", Message: "west must not be greater than east"}
	}
	return nil
}

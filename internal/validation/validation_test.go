package validation

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"birdbox/internal/models"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "valid email", email: "test@example.com"},
		{name: "valid email with subdomain", email: "user@mail.example.com"},
		{name: "valid email with plus", email: "user+tag@example.com"},
		{name: "missing @", email: "testexample.com", wantErr: true},
		{name: "missing domain", email: "test@", wantErr: true},
		{name: "missing local part", email: "@example.com", wantErr: true},
		{name: "empty string", email: "", wantErr: true},
		{name: "spaces in email", email: "test @example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid password", password: "password123"},
		{name: "exactly 8 characters", password: "pass1234"},
		{name: "too short", password: "pass123", wantErr: true},
		{name: "empty", password: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, ValidatePassword(tt.password) != nil)
		})
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName(""), "name is optional")
	assert.NoError(t, ValidateName("O'Brien"))
	assert.Error(t, ValidateName("J"))
}

func TestValidateBoundingBox(t *testing.T) {
	tests := []struct {
		name    string
		box     models.BoundingBox
		field   string
		wantErr bool
	}{
		{name: "valid", box: models.BoundingBox{North: 10, South: 0, East: 10, West: 0}},
		{name: "degenerate point", box: models.BoundingBox{North: 5, South: 5, East: 5, West: 5}},
		{name: "whole world", box: models.BoundingBox{North: 90, South: -90, East: 180, West: -180}},
		{name: "inverted latitude", box: models.BoundingBox{North: 0, South: 10, East: 10, West: 0}, field: "south", wantErr: true},
		{name: "inverted longitude", box: models.BoundingBox{North: 10, South: 0, East: 0, West: 10}, field: "west", wantErr: true},
		{name: "north out of range", box: models.BoundingBox{North: 91, South: 0, East: 10, West: 0}, field: "north", wantErr: true},
		{name: "west out of range", box: models.BoundingBox{North: 10, South: 0, East: 10, West: -181}, field: "west", wantErr: true},
		{name: "nan", box: models.BoundingBox{North: math.NaN(), South: 0, East: 10, West: 0}, field: "north", wantErr: true},
		{name: "infinite", box: models.BoundingBox{North: 10, South: 0, East: math.Inf(1), West: 0}, field: "east", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBoundingBox(tt.box)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var ve ValidationError
			if assert.True(t, errors.As(err, &ve)) {
				assert.Equal(t, tt.field, ve.Field)
			}
		})
	}
}

func TestValidationErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := ValidationError{Field: "species", Message: "unknown", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "species: unknown", err.Error())
	assert.Equal(t, "plain", ValidationError{Message: "plain"}.Error())
}

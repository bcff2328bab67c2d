package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"birdbox/internal/repository"
	"birdbox/internal/security"
	"birdbox/internal/testutil"
	"birdbox/internal/validation"
)

func newTestAuthService(t *testing.T, sessionDuration time.Duration) *AuthService {
	t.Helper()
	db := testutil.NewTestDB(t)
	return NewAuthService(repository.NewUserRepository(db), security.NewTokenIssuer("test-secret", time.Hour), sessionDuration)
}

func TestAuthRegisterAndLogin(t *testing.T) {
	auth := newTestAuthService(t, time.Hour)
	ctx := context.Background()

	user, err := auth.Register(ctx, " Alice@Example.com ", "password123", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	_, err = auth.Register(ctx, "alice@example.com", "password123", "")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = auth.Register(ctx, "bob@example.com", "short", "")
	var ve validation.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, _, err = auth.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = auth.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, loggedIn, err := auth.Login(ctx, "ALICE@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	resolved, err := auth.ValidateSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", resolved.Email)

	require.NoError(t, auth.Logout(ctx, session.ID))
	_, err = auth.ValidateSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAuthExpiredSession(t *testing.T) {
	auth := newTestAuthService(t, -time.Minute)
	ctx := context.Background()

	_, err := auth.Register(ctx, "alice@example.com", "password123", "")
	require.NoError(t, err)
	session, _, err := auth.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	_, err = auth.ValidateSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)
	require.NoError(t, auth.CleanupExpiredSessions(ctx))
}

func TestAuthTokens(t *testing.T) {
	auth := newTestAuthService(t, time.Hour)

	token, expiresAt, err := auth.IssueToken("alice@example.com")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	observer, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", observer)

	_, err = auth.ValidateToken("garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = auth.IssueToken("")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

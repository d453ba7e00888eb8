package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/deskline/helpdesk/internal/auth"
	"github.com/deskline/helpdesk/internal/authz"
	"github.com/deskline/helpdesk/internal/config"
	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/events"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

func newAuthService(f *fixture) (*AuthService, *auth.TokenManager, *auth.MemorySessionStore) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	sessions := auth.NewMemorySessionStore()
	svc := NewAuthService(f.deps, config.AuthConfig{BcryptCost: bcrypt.MinCost}, tokens, sessions)
	return svc, tokens, sessions
}

func TestAuth_RegisterLoginLogout(t *testing.T) {
	f := newFixture(t, authz.Options{})
	ctx := context.Background()
	svc, tokens, sessions := newAuthService(f)

	user, err := svc.Register(ctx, RegisterInput{FullName: "Dana", Email: " Dana@Example.com ", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, user.Role)

	_, err = svc.Register(ctx, RegisterInput{FullName: "Dana Again", Email: "dana@example.com", Password: "correct horse"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = svc.Login(ctx, "dana@example.com", "wrong password")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthenticationRequired))
	_, err = svc.Login(ctx, "nobody@example.com", "correct horse")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthenticationRequired))

	result, err := svc.Login(ctx, "DANA@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)

	claims, err := tokens.ParseToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID())

	session, err := sessions.Get(ctx, claims.SessionID())
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
	assert.Len(t, f.recorded.ofType(events.EventSessionStarted), 1)

	require.NoError(t, svc.Logout(ctx, Actor{UserID: user.ID, Role: user.Role}, claims.SessionID()))
	_, err = sessions.Get(ctx, claims.SessionID())
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
	assert.Len(t, f.recorded.ofType(events.EventSessionEnded), 1)
}

func TestAuth_RegisterValidation(t *testing.T) {
	f := newFixture(t, authz.Options{})
	ctx := context.Background()
	svc, _, _ := newAuthService(f)

	_, err := svc.Register(ctx, RegisterInput{FullName: "X", Email: "not-an-email", Password: "long enough"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	_, err = svc.Register(ctx, RegisterInput{FullName: "X", Email: "x@example.com", Password: "short"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	_, err = svc.Register(ctx, RegisterInput{FullName: " ", Email: "x@example.com", Password: "long enough"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestAuth_UnknownEmailStillComparesHash(t *testing.T) {
	f := newFixture(t, authz.Options{})
	ctx := context.Background()
	svc, _, _ := newAuthService(f)
	require.NotEmpty(t, svc.dummyHash)

	var compared []string
	svc.compare = func(hashed, plain string) error {
		compared = append(compared, hashed)
		return auth.ComparePassword(hashed, plain)
	}

	_, err := svc.Login(ctx, "ghost@example.com", "whatever-pass")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthenticationRequired))
	_, err = svc.Login(ctx, "not an email", "whatever-pass")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthenticationRequired))

	require.Len(t, compared, 2)
	assert.Equal(t, svc.dummyHash, compared[0])
	assert.Equal(t, svc.dummyHash, compared[1])
}

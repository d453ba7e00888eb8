package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskline/helpdesk/internal/authz"
	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/repository"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute)
	issued, err := tm.GenerateToken("user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.SessionID)
	assert.Equal(t, time.Minute, issued.ExpiresAt.Sub(issued.IssuedAt))

	claims, err := tm.ParseToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, issued.SessionID, claims.SessionID())
}

func TestTokenManager_RejectsForeignSecretAndExpiry(t *testing.T) {
	issuer := NewTokenManager("one", time.Minute)
	issued, err := issuer.GenerateToken("user-1")
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Minute).ParseToken(issued.Token)
	assert.Error(t, err)

	later := NewTokenManager("one", time.Minute)
	later.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = later.ParseToken(issued.Token)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	_, err := HashPassword("short", 4)
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	hash, err := HashPassword("long enough", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "long enough"))
	assert.Error(t, ComparePassword(hash, "wrong password"))
}

func TestMemorySessionStore_Expiry(t *testing.T) {
	store := NewMemorySessionStore()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Session{ID: "s1", UserID: "u1", IssuedAt: now, ExpiresAt: now.Add(time.Minute)}))
	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, domain.Session{ID: "s2", UserID: "u1", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, store.Delete(ctx, "s2"))
	_, err = store.Get(ctx, "s2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

type fixture struct {
	app      *fiber.App
	tokens   *TokenManager
	sessions *MemorySessionStore
	repos    *repository.Repositories
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := repository.NewMemory().Repositories()
	tokens := NewTokenManager("secret", time.Hour)
	sessions := NewMemorySessionStore()
	az, err := authz.New(authz.Options{})
	require.NoError(t, err)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(apperrors.ToDomainError(err).HTTPStatus).SendString(err.Error())
		},
	})
	mw := NewAuthMiddleware(tokens, sessions, repos.Users)
	app.Get("/whoami", mw.Handle, func(c *fiber.Ctx) error {
		p, err := MustPrincipal(c)
		if err != nil {
			return err
		}
		return c.SendString(string(p.Role))
	})
	app.Get("/dashboard", mw.Handle, RequireGrant(az, authz.ActionRead, authz.ResourceDashboard), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	return &fixture{app: app, tokens: tokens, sessions: sessions, repos: repos}
}

func (f *fixture) login(t *testing.T, role domain.Role) (string, string) {
	t.Helper()
	user := domain.User{FullName: "Someone", Role: role}
	require.NoError(t, f.repos.Users.Create(context.Background(), &user, nil))
	issued, err := f.tokens.GenerateToken(user.ID)
	require.NoError(t, err)
	require.NoError(t, f.sessions.Save(context.Background(), domain.Session{
		ID: issued.SessionID, UserID: user.ID, IssuedAt: issued.IssuedAt, ExpiresAt: issued.ExpiresAt,
	}))
	return issued.Token, user.ID
}

func (f *fixture) do(t *testing.T, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestAuthMiddleware_RoleComesFromDirectory(t *testing.T) {
	f := newFixture(t)
	token, userID := f.login(t, domain.RoleClient)

	resp := f.do(t, "/whoami", token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	user, err := f.repos.Users.GetByID(context.Background(), userID)
	require.NoError(t, err)
	user.Role = domain.RoleManager
	require.NoError(t, f.repos.Users.Update(context.Background(), user))

	resp = f.do(t, "/dashboard", token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthMiddleware_RejectsMissingAndRevoked(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, "/whoami", "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, "/whoami", "garbage").StatusCode)

	token, _ := f.login(t, domain.RoleAgent)
	claims, err := f.tokens.ParseToken(token)
	require.NoError(t, err)
	require.NoError(t, f.sessions.Delete(context.Background(), claims.SessionID()))
	assert.Equal(t, http.StatusUnauthorized, f.do(t, "/whoami", token).StatusCode)
}

func TestRequireGrant_ClientDeniedDashboard(t *testing.T) {
	f := newFixture(t)
	token, _ := f.login(t, domain.RoleClient)
	assert.Equal(t, http.StatusForbidden, f.do(t, "/dashboard", token).StatusCode)

	staff, _ := f.login(t, domain.RoleAgent)
	assert.Equal(t, http.StatusOK, f.do(t, "/dashboard", staff).StatusCode)
}

func TestMustPrincipal_Unauthenticated(t *testing.T) {
	app := fiber.New()
	var got error
	app.Get("/", func(c *fiber.Ctx) error {
		_, got = MustPrincipal(c)
		return nil
	})
	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	var de *apperrors.DomainError
	require.True(t, errors.As(got, &de))
	assert.Equal(t, apperrors.CodeAuthenticationRequired, de.Code)
}

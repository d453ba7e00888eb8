package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/observability"
	"github.com/deskline/helpdesk/internal/repository"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	UserID    string
	Role      domain.Role
	User      *domain.User
	SessionID string
}

// AuthMiddleware validates bearer tokens, checks the session is live and
// resolves the caller's role from the user directory.
type AuthMiddleware struct {
	tokens   *TokenManager
	sessions SessionStore
	users    repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, sessions SessionStore, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, sessions: sessions, users: users}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	ctx := c.UserContext()
	session, err := m.sessions.Get(ctx, claims.SessionID())
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return apperrors.NewUnauthorized("session expired")
		}
		return apperrors.NewTransientStoreError(err)
	}
	if session.UserID != claims.UserID() {
		return apperrors.NewUnauthorized("session does not match token")
	}

	user, err := m.users.GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.FromStore(err, "user")
	}

	c.Locals(principalKey, &Principal{
		UserID:    user.ID,
		Role:      user.Role,
		User:      user,
		SessionID: session.ID,
	})
	c.Locals(observability.UserIDLocal, user.ID)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// MustPrincipal returns the caller or an AuthenticationRequired error.
func MustPrincipal(c *fiber.Ctx) (*Principal, error) {
	principal, ok := PrincipalFromContext(c)
	if !ok || principal == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

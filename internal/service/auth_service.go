package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/deskline/helpdesk/internal/auth"
	"github.com/deskline/helpdesk/internal/config"
	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/events"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

// RegisterInput is the self-service sign-up payload.
type RegisterInput struct {
	FullName string
	Email    string
	Password string
}

// LoginResult carries an issued bearer token.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// AuthService coordinates registration, login and logout.
type AuthService struct {
	deps       Dependencies
	tokens     *auth.TokenManager
	sessions   auth.SessionStore
	bcryptCost int

	// dummyHash is compared on unknown emails so a miss costs one bcrypt
	// round like a wrong password does.
	dummyHash string
	compare   func(hashed, plain string) error
}

// NewAuthService builds the service.
func NewAuthService(deps Dependencies, cfg config.AuthConfig, tokens *auth.TokenManager, sessions auth.SessionStore) *AuthService {
	dummy, err := auth.HashPassword(uuid.NewString(), cfg.BcryptCost)
	if err != nil {
		deps.logger().Warn("dummy password hash unavailable", zap.Error(err))
	}
	return &AuthService{
		deps:       deps,
		tokens:     tokens,
		sessions:   sessions,
		bcryptCost: cfg.BcryptCost,
		dummyHash:  dummy,
		compare:    auth.ComparePassword,
	}
}

// Register creates a client account. Staff roles are granted by a manager.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	fullName := strings.TrimSpace(input.FullName)
	if err := requireText("full_name", fullName); err != nil {
		return nil, err
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, apperrors.NewValidationError("password too short", map[string]any{"min_length": auth.MinPasswordLength})
		}
		return nil, apperrors.NewInternalError(err)
	}

	now := s.deps.now()
	user := &domain.User{
		Role:      domain.RoleClient,
		FullName:  fullName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	cred := &domain.Credential{Email: email, PasswordHash: hash}
	if err := s.deps.Repos.Users.Create(ctx, user, cred); err != nil {
		return nil, apperrors.FromStore(err, "account")
	}
	return user, nil
}

// Login verifies credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		s.rejectUnknown(password)
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	cred, err := s.deps.Repos.Credentials.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.rejectUnknown(password)
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.FromStore(err, "account")
	}
	if err := s.compare(cred.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	user, err := s.deps.Repos.Users.GetByID(ctx, cred.UserID)
	if err != nil {
		return nil, apperrors.FromStore(err, "user")
	}

	issued, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	session := domain.Session{
		ID:        issued.SessionID,
		UserID:    user.ID,
		IssuedAt:  issued.IssuedAt,
		ExpiresAt: issued.ExpiresAt,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, apperrors.NewTransientStoreError(err)
	}

	s.deps.publish(ctx, events.New(events.EventSessionStarted, session.ID, user.ID, events.SessionPayload{ExpiresAt: session.ExpiresAt}))
	return &LoginResult{Token: issued.Token, ExpiresAt: issued.ExpiresAt, User: user}, nil
}

// Logout revokes the caller's session.
func (s *AuthService) Logout(ctx context.Context, actor Actor, sessionID string) error {
	if sessionID == "" {
		return apperrors.NewUnauthorized("no active session")
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return apperrors.NewTransientStoreError(err)
	}
	s.deps.publish(ctx, events.New(events.EventSessionEnded, sessionID, actor.UserID, nil))
	return nil
}

func (s *AuthService) rejectUnknown(password string) {
	if s.dummyHash != "" {
		_ = s.compare(s.dummyHash, password)
	}
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", apperrors.NewValidationError("invalid email", map[string]any{"field": "email"})
	}
	return trimmed, nil
}

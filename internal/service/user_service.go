package service

import (
	"context"
	"strings"

	"github.com/deskline/helpdesk/internal/authz"
	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/events"
	"github.com/deskline/helpdesk/internal/repository"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

// ProfileUpdateInput holds editable profile fields. Nil leaves a field as is;
// an empty AvatarURL clears it.
type ProfileUpdateInput struct {
	FullName  *string
	AvatarURL *string
}

// UserService serves the role directory.
type UserService struct {
	deps Dependencies
}

// NewUserService builds the service.
func NewUserService(deps Dependencies) *UserService {
	return &UserService{deps: deps}
}

// Get returns a profile the actor may read.
func (s *UserService) Get(ctx context.Context, actor Actor, id string) (*domain.User, error) {
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionRead, authz.ResourceUser, authz.OwnerScope(actor.UserID, id)); err != nil {
		return nil, err
	}
	user, err := s.deps.Repos.Users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromStore(err, "user")
	}
	return user, nil
}

// List returns profiles, optionally narrowed to one role.
func (s *UserService) List(ctx context.Context, actor Actor, filter repository.UserFilter) ([]domain.User, error) {
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionList, authz.ResourceUser, authz.ScopeAny); err != nil {
		return nil, err
	}
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"field": "role"})
	}
	users, err := s.deps.Repos.Users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.FromStore(err, "user")
	}
	return users, nil
}

// UpdateProfile edits name and avatar. The role is never touched here.
func (s *UserService) UpdateProfile(ctx context.Context, actor Actor, id string, input ProfileUpdateInput) (*domain.User, error) {
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionUpdate, authz.ResourceUser, authz.OwnerScope(actor.UserID, id)); err != nil {
		return nil, err
	}
	user, err := s.deps.Repos.Users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromStore(err, "user")
	}
	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if err := requireText("full_name", name); err != nil {
			return nil, err
		}
		user.FullName = name
	}
	if input.AvatarURL != nil {
		user.AvatarURL = trimmedOrNil(input.AvatarURL)
	}
	user.UpdatedAt = s.deps.now()
	if err := s.deps.Repos.Users.Update(ctx, user); err != nil {
		return nil, apperrors.FromStore(err, "user")
	}
	s.deps.publish(ctx, events.New(events.EventUserUpdated, user.ID, actor.UserID, events.UserUpdatedPayload{FullName: user.FullName, Role: user.Role}))
	return user, nil
}

// UpdateRole changes a user's role. Only managers hold this grant.
func (s *UserService) UpdateRole(ctx context.Context, actor Actor, id string, role domain.Role) (*domain.User, error) {
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionUpdateRole, authz.ResourceUser, authz.ScopeAny); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"field": "role", "allowed": []domain.Role{domain.RoleClient, domain.RoleAgent, domain.RoleManager}})
	}
	user, err := s.deps.Repos.Users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromStore(err, "user")
	}
	if user.Role == role {
		return user, nil
	}
	user.Role = role
	user.UpdatedAt = s.deps.now()
	if err := s.deps.Repos.Users.Update(ctx, user); err != nil {
		return nil, apperrors.FromStore(err, "user")
	}
	s.deps.publish(ctx, events.New(events.EventUserUpdated, user.ID, actor.UserID, events.UserUpdatedPayload{FullName: user.FullName, Role: user.Role}))
	return user, nil
}

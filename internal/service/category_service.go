package service

import (
	"context"
	"strings"

	"github.com/deskline/helpdesk/internal/authz"
	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/events"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

// CategoryInput is the create/update payload. Nil fields are left unchanged on update.
type CategoryInput struct {
	Name        *string
	Description *string
}

// CategoryService manages categories.
type CategoryService struct {
	deps Dependencies
}

// NewCategoryService builds the service.
func NewCategoryService(deps Dependencies) *CategoryService {
	return &CategoryService{deps: deps}
}

// List returns every category ordered by name.
func (s *CategoryService) List(ctx context.Context, actor Actor) ([]domain.Category, error) {
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionList, authz.ResourceCategory, authz.ScopeAny); err != nil {
		return nil, err
	}
	categories, err := s.deps.Repos.Categories.List(ctx)
	if err != nil {
		return nil, apperrors.FromStore(err, "category")
	}
	return categories, nil
}

// Create adds a category. The name must not be blank.
func (s *CategoryService) Create(ctx context.Context, actor Actor, input CategoryInput) (*domain.Category, error) {
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionCreate, authz.ResourceCategory, authz.ScopeAny); err != nil {
		return nil, err
	}
	name := ""
	if input.Name != nil {
		name = strings.TrimSpace(*input.Name)
	}
	if err := requireText("name", name); err != nil {
		return nil, err
	}
	now := s.deps.now()
	category := &domain.Category{Name: name, CreatedAt: now, UpdatedAt: now}
	if input.Description != nil {
		category.Description = strings.TrimSpace(*input.Description)
	}
	if err := s.deps.Repos.Categories.Create(ctx, category); err != nil {
		return nil, apperrors.FromStore(err, "category")
	}
	return category, nil
}

// Update edits a category.
func (s *CategoryService) Update(ctx context.Context, actor Actor, id string, input CategoryInput) (*domain.Category, error) {
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionUpdate, authz.ResourceCategory, authz.ScopeAny); err != nil {
		return nil, err
	}
	category, err := s.deps.Repos.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromStore(err, "category")
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if err := requireText("name", name); err != nil {
			return nil, err
		}
		category.Name = name
	}
	if input.Description != nil {
		category.Description = strings.TrimSpace(*input.Description)
	}
	category.UpdatedAt = s.deps.now()
	if err := s.deps.Repos.Categories.Update(ctx, category); err != nil {
		return nil, apperrors.FromStore(err, "category")
	}
	s.deps.publish(ctx, events.New(events.EventCategoryChanged, category.ID, actor.UserID, events.CategoryChangedPayload{Name: category.Name}))
	return category, nil
}

// Delete removes a category. Tickets and articles in it become uncategorized.
func (s *CategoryService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionDelete, authz.ResourceCategory, authz.ScopeAny); err != nil {
		return err
	}
	if err := s.deps.Repos.Categories.Delete(ctx, id); err != nil {
		return apperrors.FromStore(err, "category")
	}
	s.deps.publish(ctx, events.New(events.EventCategoryChanged, id, actor.UserID, events.CategoryChangedPayload{Deleted: true}))
	return nil
}

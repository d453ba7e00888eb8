package service

import (
	"context"
	"strings"

	"github.com/deskline/helpdesk/internal/authz"
	"github.com/deskline/helpdesk/internal/domain"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

// CannedResponseInput is the create/update payload. Nil fields are left unchanged on update.
type CannedResponseInput struct {
	Title   *string
	Content *string
}

// CannedResponseService manages staff reply templates.
type CannedResponseService struct {
	deps Dependencies
}

// NewCannedResponseService builds the service.
func NewCannedResponseService(deps Dependencies) *CannedResponseService {
	return &CannedResponseService{deps: deps}
}

func (s *CannedResponseService) List(ctx context.Context, actor Actor) ([]domain.CannedResponse, error) {
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionList, authz.ResourceCannedResponse, authz.ScopeAny); err != nil {
		return nil, err
	}
	items, err := s.deps.Repos.CannedResponses.List(ctx)
	if err != nil {
		return nil, apperrors.FromStore(err, "canned response")
	}
	return items, nil
}

func (s *CannedResponseService) Create(ctx context.Context, actor Actor, input CannedResponseInput) (*domain.CannedResponse, error) {
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionCreate, authz.ResourceCannedResponse, authz.ScopeAny); err != nil {
		return nil, err
	}
	var title, content string
	if input.Title != nil {
		title = strings.TrimSpace(*input.Title)
	}
	if input.Content != nil {
		content = strings.TrimSpace(*input.Content)
	}
	if err := requireText("title", title); err != nil {
		return nil, err
	}
	if err := requireText("content", content); err != nil {
		return nil, err
	}
	now := s.deps.now()
	resp := &domain.CannedResponse{Title: title, Content: content, CreatedBy: actor.UserID, CreatedAt: now, UpdatedAt: now}
	if err := s.deps.Repos.CannedResponses.Create(ctx, resp); err != nil {
		return nil, apperrors.FromStore(err, "canned response")
	}
	return resp, nil
}

// Update edits a template. Agents may edit only their own.
func (s *CannedResponseService) Update(ctx context.Context, actor Actor, id string, input CannedResponseInput) (*domain.CannedResponse, error) {
	resp, err := s.owned(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if err := requireText("title", title); err != nil {
			return nil, err
		}
		resp.Title = title
	}
	if input.Content != nil {
		content := strings.TrimSpace(*input.Content)
		if err := requireText("content", content); err != nil {
			return nil, err
		}
		resp.Content = content
	}
	resp.UpdatedAt = s.deps.now()
	if err := s.deps.Repos.CannedResponses.Update(ctx, resp); err != nil {
		return nil, apperrors.FromStore(err, "canned response")
	}
	return resp, nil
}

// Delete removes a template. Agents may delete only their own.
func (s *CannedResponseService) Delete(ctx context.Context, actor Actor, id string) error {
	if _, err := s.owned(ctx, actor, id, authz.ActionDelete); err != nil {
		return err
	}
	if err := s.deps.Repos.CannedResponses.Delete(ctx, id); err != nil {
		return apperrors.FromStore(err, "canned response")
	}
	return nil
}

func (s *CannedResponseService) owned(ctx context.Context, actor Actor, id string, action authz.Action) (*domain.CannedResponse, error) {
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionRead, authz.ResourceCannedResponse, authz.ScopeAny); err != nil {
		return nil, err
	}
	resp, err := s.deps.Repos.CannedResponses.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromStore(err, "canned response")
	}
	if err := s.deps.Authorizer.Require(actor.Role, action, authz.ResourceCannedResponse, authz.OwnerScope(actor.UserID, resp.CreatedBy)); err != nil {
		return nil, err
	}
	return resp, nil
}

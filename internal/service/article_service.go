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

// ArticleInput is the create/update payload. Nil fields are left unchanged on update.
type ArticleInput struct {
	Title         *string
	Content       *string
	CategoryID    *string
	ClearCategory bool
}

// ArticleService manages the knowledge base.
type ArticleService struct {
	deps Dependencies
}

// NewArticleService builds the service.
func NewArticleService(deps Dependencies) *ArticleService {
	return &ArticleService{deps: deps}
}

// List returns articles. Callers limited to published articles get only those
// regardless of the requested status.
func (s *ArticleService) List(ctx context.Context, actor Actor, filter repository.ArticleFilter) ([]domain.Article, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"field": "status"})
	}
	if !s.deps.Authorizer.Allow(actor.Role, authz.ActionList, authz.ResourceArticle, authz.ScopeAny) {
		if err := s.deps.Authorizer.Require(actor.Role, authz.ActionReadPublished, authz.ResourceArticle, authz.ScopeAny); err != nil {
			return nil, err
		}
		published := domain.ArticleStatusPublished
		filter.Status = &published
	}
	articles, err := s.deps.Repos.Articles.List(ctx, filter)
	if err != nil {
		return nil, apperrors.FromStore(err, "article")
	}
	return articles, nil
}

// Get returns an article. Unpublished articles are missing for readers
// limited to published ones.
func (s *ArticleService) Get(ctx context.Context, actor Actor, id string) (*domain.Article, error) {
	article, err := s.deps.Repos.Articles.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromStore(err, "article")
	}
	if s.deps.Authorizer.Allow(actor.Role, authz.ActionRead, authz.ResourceArticle, authz.ScopeAny) {
		return article, nil
	}
	if article.Status == domain.ArticleStatusPublished &&
		s.deps.Authorizer.Allow(actor.Role, authz.ActionReadPublished, authz.ResourceArticle, authz.ScopeAny) {
		return article, nil
	}
	return nil, apperrors.NewNotFound("article", nil)
}

// Create adds a draft authored by the actor.
func (s *ArticleService) Create(ctx context.Context, actor Actor, input ArticleInput) (*domain.Article, error) {
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionCreate, authz.ResourceArticle, authz.ScopeAny); err != nil {
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
	article := &domain.Article{
		Title:      title,
		Content:    content,
		CategoryID: trimmedOrNil(input.CategoryID),
		Status:     domain.ArticleStatusDraft,
		AuthorID:   actor.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.deps.Repos.Articles.Create(ctx, article); err != nil {
		return nil, apperrors.FromStore(err, "article")
	}
	return s.reload(ctx, article.ID)
}

// Update edits title, content and category at any stage.
func (s *ArticleService) Update(ctx context.Context, actor Actor, id string, input ArticleInput) (*domain.Article, error) {
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionUpdate, authz.ResourceArticle, authz.ScopeAny); err != nil {
		return nil, err
	}
	article, err := s.deps.Repos.Articles.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromStore(err, "article")
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if err := requireText("title", title); err != nil {
			return nil, err
		}
		article.Title = title
	}
	if input.Content != nil {
		content := strings.TrimSpace(*input.Content)
		if err := requireText("content", content); err != nil {
			return nil, err
		}
		article.Content = content
	}
	switch {
	case input.ClearCategory:
		article.CategoryID = nil
	case input.CategoryID != nil:
		article.CategoryID = trimmedOrNil(input.CategoryID)
	}
	article.UpdatedAt = s.deps.now()
	if err := s.deps.Repos.Articles.Update(ctx, article); err != nil {
		return nil, apperrors.FromStore(err, "article")
	}
	return s.reload(ctx, article.ID)
}

// UpdateStatus moves an article between draft, pending_review and published.
// Publishing records the actor as approver; leaving published clears it.
func (s *ArticleService) UpdateStatus(ctx context.Context, actor Actor, id string, status domain.ArticleStatus) (*domain.Article, error) {
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionUpdate, authz.ResourceArticle, authz.ScopeAny); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{
			"field":   "status",
			"allowed": []domain.ArticleStatus{domain.ArticleStatusDraft, domain.ArticleStatusPendingReview, domain.ArticleStatusPublished},
		})
	}
	article, err := s.deps.Repos.Articles.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromStore(err, "article")
	}
	if article.Status == status {
		return article, nil
	}

	old := article.Status
	article.Status = status
	if status == domain.ArticleStatusPublished {
		approver := actor.UserID
		article.ApproverID = &approver
	} else {
		article.ApproverID = nil
	}
	article.UpdatedAt = s.deps.now()
	if err := s.deps.Repos.Articles.Update(ctx, article); err != nil {
		return nil, apperrors.FromStore(err, "article")
	}
	s.deps.publish(ctx, events.New(events.EventArticleStatusChanged, article.ID, actor.UserID, events.ArticleStatusChangedPayload{
		OldStatus:  old,
		NewStatus:  status,
		ApproverID: article.ApproverID,
	}))
	return s.reload(ctx, article.ID)
}

// Delete removes an article.
func (s *ArticleService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionDelete, authz.ResourceArticle, authz.ScopeAny); err != nil {
		return err
	}
	if err := s.deps.Repos.Articles.Delete(ctx, id); err != nil {
		return apperrors.FromStore(err, "article")
	}
	return nil
}

func (s *ArticleService) reload(ctx context.Context, id string) (*domain.Article, error) {
	article, err := s.deps.Repos.Articles.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromStore(err, "article")
	}
	return article, nil
}

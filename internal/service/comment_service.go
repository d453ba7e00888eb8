package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/deskline/helpdesk/internal/authz"
	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/events"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

const commentPreviewLength = 140

// CommentInput is the payload for a new comment.
type CommentInput struct {
	Content      string
	InternalNote bool
}

// CommentService manages ticket threads and hides internal notes from
// callers that may not read them.
type CommentService struct {
	deps Dependencies
}

// NewCommentService builds the service.
func NewCommentService(deps Dependencies) *CommentService {
	return &CommentService{deps: deps}
}

// List returns the thread of a ticket oldest first. Internal notes are
// removed for callers without the read_internal grant.
func (s *CommentService) List(ctx context.Context, actor Actor, ticketID string) ([]domain.Comment, error) {
	ticket, err := s.ticketFor(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.deps.Authorizer.Allow(actor.Role, authz.ActionRead, authz.ResourceComment, authz.CommentScope(actor.UserID, ticket)) {
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	comments, err := s.deps.Repos.Comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.FromStore(err, "comment")
	}
	return s.deps.Authorizer.VisibleComments(actor.Role, comments), nil
}

// Add posts a comment. Only callers that may read internal notes may write them.
func (s *CommentService) Add(ctx context.Context, actor Actor, ticketID string, input CommentInput) (*domain.Comment, error) {
	ticket, err := s.ticketFor(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionCreate, authz.ResourceComment, authz.CommentScope(actor.UserID, ticket)); err != nil {
		return nil, err
	}
	if input.InternalNote && !s.deps.Authorizer.Allow(actor.Role, authz.ActionReadInternal, authz.ResourceComment, authz.ScopeAny) {
		return nil, apperrors.NewForbidden("internal notes are restricted to staff")
	}
	content := strings.TrimSpace(input.Content)
	if err := requireText("content", content); err != nil {
		return nil, err
	}

	now := s.deps.now()
	comment := &domain.Comment{
		TicketID:     ticket.ID,
		Content:      content,
		InternalNote: input.InternalNote,
		CreatedBy:    actor.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.deps.Repos.Comments.Create(ctx, comment); err != nil {
		return nil, apperrors.FromStore(err, "comment")
	}

	payload := events.CommentAddedPayload{TicketID: ticket.ID, InternalNote: comment.InternalNote}
	if !comment.InternalNote {
		payload.BodyPreview = preview(comment.Content)
	}
	s.deps.publish(ctx, events.New(events.EventCommentAdded, comment.ID, actor.UserID, payload))
	return comment, nil
}

// ticketFor loads the ticket and hides it from callers that cannot read it.
func (s *CommentService) ticketFor(ctx context.Context, actor Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.deps.Repos.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.FromStore(err, "ticket")
	}
	if !s.deps.Authorizer.Allow(actor.Role, authz.ActionRead, authz.ResourceTicket, authz.TicketScope(actor.UserID, ticket)) &&
		!s.deps.Authorizer.Allow(actor.Role, authz.ActionRead, authz.ResourceComment, authz.CommentScope(actor.UserID, ticket)) {
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	return ticket, nil
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= commentPreviewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:commentPreviewLength]) + "…"
}

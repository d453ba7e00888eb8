package service

import (
	"context"
	"strings"
	"time"

	"github.com/deskline/helpdesk/internal/authz"
	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/events"
	"github.com/deskline/helpdesk/internal/repository"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

// TicketCreateInput describes ticket creation payload. The creator is always
// the acting user.
type TicketCreateInput struct {
	Subject     string
	Description string
	Priority    domain.TicketPriority
	CategoryID  *string
}

// TicketUpdateInput describes a manager edit. Nil fields are unchanged.
type TicketUpdateInput struct {
	Subject       *string
	Description   *string
	Priority      *domain.TicketPriority
	CategoryID    *string
	ClearCategory bool
}

// TicketListInput describes listing filters.
type TicketListInput struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	CategoryID  *string
	AssignedTo  *string
	CreatedBy   *string
	SearchTerm  string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	OrderBy     string
	Descending  bool
	Page        int
	PageSize    int
}

// TicketPage is one page of a ticket listing.
type TicketPage struct {
	Items    []domain.Ticket
	Total    int
	Page     int
	PageSize int
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	deps Dependencies
	sla  *SLAService
}

// NewTicketService constructs the service.
func NewTicketService(deps Dependencies, sla *SLAService) *TicketService {
	return &TicketService{deps: deps, sla: sla}
}

// Create files a ticket as the actor with status open.
func (s *TicketService) Create(ctx context.Context, actor Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionCreate, authz.ResourceTicket, authz.ScopeOwn); err != nil {
		return nil, err
	}
	subject := strings.TrimSpace(input.Subject)
	if err := requireText("subject", subject); err != nil {
		return nil, err
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, invalidPriority(priority)
	}

	now := s.deps.now()
	ticket := &domain.Ticket{
		Subject:     subject,
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
		CategoryID:  trimmedOrNil(input.CategoryID),
		CreatedBy:   actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.sla.ApplyDue(ticket)

	if err := s.deps.Repos.Tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.FromStore(err, "ticket")
	}

	s.deps.publish(ctx, events.New(events.EventTicketCreated, ticket.ID, actor.UserID, events.TicketCreatedPayload{
		Subject:    ticket.Subject,
		Priority:   ticket.Priority,
		CategoryID: ticket.CategoryID,
		CreatedBy:  ticket.CreatedBy,
	}))
	return s.reload(ctx, ticket.ID)
}

// List returns tickets visible to the actor. Clients only ever see their own.
func (s *TicketService) List(ctx context.Context, actor Actor, input TicketListInput) (*TicketPage, error) {
	filter := repository.TicketFilter{
		Statuses:    input.Statuses,
		Priorities:  input.Priorities,
		CategoryID:  input.CategoryID,
		AssignedTo:  input.AssignedTo,
		CreatedBy:   input.CreatedBy,
		SearchTerm:  input.SearchTerm,
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
		OrderBy:     input.OrderBy,
		Descending:  input.Descending,
	}

	switch {
	case s.deps.Authorizer.Allow(actor.Role, authz.ActionList, authz.ResourceTicket, authz.ScopeAny):
	case s.deps.Authorizer.Allow(actor.Role, authz.ActionList, authz.ResourceTicket, authz.ScopeOwn):
		self := actor.UserID
		filter.CreatedBy = &self
	default:
		return nil, apperrors.NewForbidden("ticket listing not permitted")
	}

	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, invalidStatus(st)
		}
	}
	for _, p := range filter.Priorities {
		if !p.Valid() {
			return nil, invalidPriority(p)
		}
	}
	if filter.OrderBy != "" && !repository.ValidTicketOrder(filter.OrderBy) {
		return nil, apperrors.NewValidationError("invalid order_by", map[string]any{"field": "order_by"})
	}

	page, pageSize := normalizePage(input.Page, input.PageSize)
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	items, total, err := s.deps.Repos.Tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.FromStore(err, "ticket")
	}
	return &TicketPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Get returns one ticket. Tickets a client may not read are reported missing.
func (s *TicketService) Get(ctx context.Context, actor Actor, id string) (*domain.Ticket, error) {
	return s.readable(ctx, actor, id)
}

// Update edits subject, description, priority and category. Changing the
// priority recomputes the SLA deadline from the creation time.
func (s *TicketService) Update(ctx context.Context, actor Actor, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.readable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionUpdate, authz.ResourceTicket, authz.TicketScope(actor.UserID, ticket)); err != nil {
		return nil, err
	}

	if input.Subject != nil {
		subject := strings.TrimSpace(*input.Subject)
		if err := requireText("subject", subject); err != nil {
			return nil, err
		}
		ticket.Subject = subject
	}
	if input.Description != nil {
		ticket.Description = strings.TrimSpace(*input.Description)
	}
	switch {
	case input.ClearCategory:
		ticket.CategoryID = nil
	case input.CategoryID != nil:
		ticket.CategoryID = trimmedOrNil(input.CategoryID)
	}

	oldPriority := ticket.Priority
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, invalidPriority(*input.Priority)
		}
		ticket.Priority = *input.Priority
		if ticket.Priority != oldPriority {
			s.sla.ApplyDue(ticket)
		}
	}

	ticket.UpdatedAt = s.deps.now()
	if err := s.deps.Repos.Tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.FromStore(err, "ticket")
	}

	if ticket.Priority != oldPriority {
		s.deps.publish(ctx, events.New(events.EventTicketPriorityChanged, ticket.ID, actor.UserID, events.TicketPriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: ticket.Priority,
			SLADueAt:    ticket.SLADueAt,
		}))
	}
	return s.reload(ctx, ticket.ID)
}

// UpdateStatus moves a ticket to any status. Setting the current status again
// succeeds without writing.
func (s *TicketService) UpdateStatus(ctx context.Context, actor Actor, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	if !status.Valid() {
		return nil, invalidStatus(status)
	}
	ticket, err := s.readable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionUpdateStatus, authz.ResourceTicket, authz.TicketScope(actor.UserID, ticket)); err != nil {
		return nil, err
	}
	if ticket.Status == status {
		return ticket, nil
	}

	old := ticket.Status
	ticket.Status = status
	ticket.UpdatedAt = s.deps.now()
	if err := s.deps.Repos.Tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.FromStore(err, "ticket")
	}
	s.deps.publish(ctx, events.New(events.EventTicketStatusChanged, ticket.ID, actor.UserID, events.TicketStatusChangedPayload{
		OldStatus: old,
		NewStatus: status,
	}))
	return s.reload(ctx, ticket.ID)
}

// Assign sets or clears the assignee. Assignees must be agents or managers.
func (s *TicketService) Assign(ctx context.Context, actor Actor, id string, assigneeID *string) (*domain.Ticket, error) {
	ticket, err := s.readable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionAssign, authz.ResourceTicket, authz.TicketScope(actor.UserID, ticket)); err != nil {
		return nil, err
	}

	assigneeID = trimmedOrNil(assigneeID)
	if assigneeID != nil {
		assignee, err := s.deps.Repos.Users.GetByID(ctx, *assigneeID)
		if err != nil {
			if apperrors.HasCode(apperrors.FromStore(err, "user"), apperrors.CodeNotFound) {
				return nil, apperrors.NewValidationError("assignee does not exist", map[string]any{"field": "assigned_to"})
			}
			return nil, apperrors.FromStore(err, "user")
		}
		if !assignee.Role.IsStaff() {
			return nil, apperrors.NewValidationError("assignee must be an agent or manager", map[string]any{"field": "assigned_to"})
		}
	}

	if equalOptional(ticket.AssignedTo, assigneeID) {
		return ticket, nil
	}
	previous := ticket.AssignedTo
	ticket.AssignedTo = assigneeID
	ticket.UpdatedAt = s.deps.now()
	if err := s.deps.Repos.Tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.FromStore(err, "ticket")
	}
	s.deps.publish(ctx, events.New(events.EventTicketAssigned, ticket.ID, actor.UserID, events.TicketAssignedPayload{
		PreviousAssignee: previous,
		AssignedTo:       assigneeID,
	}))
	return s.reload(ctx, ticket.ID)
}

// Delete hard-deletes a ticket and its comments.
func (s *TicketService) Delete(ctx context.Context, actor Actor, id string) error {
	ticket, err := s.readable(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionDelete, authz.ResourceTicket, authz.TicketScope(actor.UserID, ticket)); err != nil {
		return err
	}
	if err := s.deps.Repos.Tickets.Delete(ctx, id); err != nil {
		return apperrors.FromStore(err, "ticket")
	}
	return nil
}

// readable loads a ticket and checks the actor may read it. A refusal looks
// like a missing ticket so ticket ids are not disclosed.
func (s *TicketService) readable(ctx context.Context, actor Actor, id string) (*domain.Ticket, error) {
	ticket, err := s.deps.Repos.Tickets.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromStore(err, "ticket")
	}
	if !s.deps.Authorizer.Allow(actor.Role, authz.ActionRead, authz.ResourceTicket, authz.TicketScope(actor.UserID, ticket)) {
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	return ticket, nil
}

func (s *TicketService) reload(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.deps.Repos.Tickets.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromStore(err, "ticket")
	}
	return ticket, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func invalidStatus(status domain.TicketStatus) error {
	return apperrors.NewValidationError("invalid status", map[string]any{
		"field":   "status",
		"value":   status,
		"allowed": []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusPending, domain.TicketStatusResolved, domain.TicketStatusClosed},
	})
}

func invalidPriority(priority domain.TicketPriority) error {
	return apperrors.NewValidationError("invalid priority", map[string]any{
		"field":   "priority",
		"value":   priority,
		"allowed": domain.TicketPriorities,
	})
}

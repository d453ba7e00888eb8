package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/deskline/helpdesk/internal/authz"
	"github.com/deskline/helpdesk/internal/domain"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

// SLAService holds the process-local SLA table, one row per priority.
type SLAService struct {
	deps     Dependencies
	mu       sync.RWMutex
	policies map[domain.TicketPriority]domain.SLAPolicy
}

// NewSLAService starts from the default table.
func NewSLAService(deps Dependencies) *SLAService {
	s := &SLAService{deps: deps, policies: map[domain.TicketPriority]domain.SLAPolicy{}}
	for _, p := range domain.DefaultSLAPolicies() {
		s.policies[p.Priority] = p
	}
	return s
}

// Policy returns the row for priority.
func (s *SLAService) Policy(priority domain.TicketPriority) (domain.SLAPolicy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[priority]
	return p, ok
}

// ApplyDue sets the ticket's resolution deadline from its priority and
// creation time, clearing it when no policy applies.
func (s *SLAService) ApplyDue(ticket *domain.Ticket) {
	p, ok := s.Policy(ticket.Priority)
	if !ok {
		ticket.SLADueAt = nil
		return
	}
	due := p.ResolutionDue(ticket.CreatedAt)
	ticket.SLADueAt = &due
}

// List returns the table ordered from low to urgent.
func (s *SLAService) List(_ context.Context, actor Actor) ([]domain.SLAPolicy, error) {
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionRead, authz.ResourceSLA, authz.ScopeAny); err != nil {
		return nil, err
	}
	return s.snapshot(), nil
}

// Replace swaps the whole table. Every priority must be present exactly once
// with positive hours and a response target no later than the resolution target.
func (s *SLAService) Replace(_ context.Context, actor Actor, policies []domain.SLAPolicy) ([]domain.SLAPolicy, error) {
	if err := s.deps.Authorizer.Require(actor.Role, authz.ActionUpdate, authz.ResourceSLA, authz.ScopeAny); err != nil {
		return nil, err
	}
	next, err := validateSLAPolicies(policies)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.policies = next
	s.mu.Unlock()
	return s.snapshot(), nil
}

func (s *SLAService) snapshot() []domain.SLAPolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SLAPolicy, 0, len(s.policies))
	for _, priority := range domain.TicketPriorities {
		if p, ok := s.policies[priority]; ok {
			out = append(out, p)
		}
	}
	return out
}

func validateSLAPolicies(policies []domain.SLAPolicy) (map[domain.TicketPriority]domain.SLAPolicy, error) {
	next := make(map[domain.TicketPriority]domain.SLAPolicy, len(policies))
	for _, p := range policies {
		if !p.Priority.Valid() {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": p.Priority})
		}
		if _, dup := next[p.Priority]; dup {
			return nil, apperrors.NewValidationError("duplicate priority", map[string]any{"priority": p.Priority})
		}
		if p.ResponseHours <= 0 || p.ResolutionHours <= 0 {
			return nil, apperrors.NewValidationError("hours must be positive", map[string]any{"priority": p.Priority})
		}
		if p.ResponseHours > p.ResolutionHours {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("response time exceeds resolution time for %s", p.Priority),
				map[string]any{"priority": p.Priority},
			)
		}
		next[p.Priority] = p
	}
	for _, priority := range domain.TicketPriorities {
		if _, ok := next[priority]; !ok {
			return nil, apperrors.NewValidationError("missing priority", map[string]any{"priority": priority})
		}
	}
	return next, nil
}

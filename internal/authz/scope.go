package authz

import "github.com/deskline/helpdesk/internal/domain"

// OwnerScope is ScopeOwn when actorID owns the record.
func OwnerScope(actorID, ownerID string) Scope {
	if actorID != "" && actorID == ownerID {
		return ScopeOwn
	}
	return ScopeAny
}

// TicketScope is ScopeOwn for the ticket creator.
func TicketScope(actorID string, ticket *domain.Ticket) Scope {
	if ticket == nil {
		return ScopeAny
	}
	return OwnerScope(actorID, ticket.CreatedBy)
}

// CommentScope is ScopeOwn for the creator or the assignee of the ticket the
// comments belong to.
func CommentScope(actorID string, ticket *domain.Ticket) Scope {
	if ticket == nil {
		return ScopeAny
	}
	if ticket.IsAssignedTo(actorID) {
		return ScopeOwn
	}
	return OwnerScope(actorID, ticket.CreatedBy)
}

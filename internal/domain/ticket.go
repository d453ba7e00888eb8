package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "open"
	TicketStatusPending  TicketStatus = "pending"
	TicketStatusResolved TicketStatus = "resolved"
	TicketStatusClosed   TicketStatus = "closed"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusPending, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// TicketPriorities lists priorities from least to most urgent.
var TicketPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityUrgent,
}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	for _, candidate := range TicketPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID          string
	Subject     string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	CategoryID  *string
	CreatedBy   string
	AssignedTo  *string
	SLADueAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Joined rows, populated on reads.
	Category *CategoryRef
	Creator  *UserRef
	Assignee *UserRef
}

// SLABreached reports whether an unresolved ticket is past its due time.
func (t *Ticket) SLABreached(now time.Time) bool {
	if t.SLADueAt == nil {
		return false
	}
	if t.Status != TicketStatusOpen && t.Status != TicketStatusPending {
		return false
	}
	return now.After(*t.SLADueAt)
}

// IsAssignedTo reports whether userID is the ticket assignee.
func (t *Ticket) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

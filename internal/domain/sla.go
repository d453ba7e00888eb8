package domain

import "time"

// SLAPolicy holds target times for one priority.
type SLAPolicy struct {
	Priority        TicketPriority
	ResponseHours   int
	ResolutionHours int
}

// ResolutionDue returns the resolution deadline for a ticket created at createdAt.
func (p SLAPolicy) ResolutionDue(createdAt time.Time) time.Time {
	return createdAt.Add(time.Duration(p.ResolutionHours) * time.Hour)
}

// DefaultSLAPolicies returns the built-in SLA table.
func DefaultSLAPolicies() []SLAPolicy {
	return []SLAPolicy{
		{Priority: TicketPriorityLow, ResponseHours: 24, ResolutionHours: 72},
		{Priority: TicketPriorityMedium, ResponseHours: 8, ResolutionHours: 24},
		{Priority: TicketPriorityHigh, ResponseHours: 4, ResolutionHours: 8},
		{Priority: TicketPriorityUrgent, ResponseHours: 1, ResolutionHours: 4},
	}
}

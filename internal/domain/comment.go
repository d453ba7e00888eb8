package domain

import "time"

// Comment is a message in a ticket thread. Internal notes are staff-only.
type Comment struct {
	ID           string
	TicketID     string
	Content      string
	InternalNote bool
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Author *UserRef
}

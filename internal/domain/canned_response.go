package domain

import "time"

// CannedResponse is a reusable reply template for staff.
type CannedResponse struct {
	ID        string
	Title     string
	Content   string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

package dto

import (
	"time"

	"github.com/deskline/helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	CategoryID  *string               `json:"category_id"`
}

// UpdateTicketRequest payload. A null category_id clears the category.
type UpdateTicketRequest struct {
	Subject     *string                `json:"subject"`
	Description *string                `json:"description"`
	Priority    *domain.TicketPriority `json:"priority"`
	CategoryID  Optional[string]       `json:"category_id"`
}

// UpdateTicketStatusRequest payload.
type UpdateTicketStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// AssignTicketRequest payload. A null or empty assigned_to unassigns.
type AssignTicketRequest struct {
	AssignedTo *string `json:"assigned_to"`
}

// RefResponse names a joined record.
type RefResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TicketResponse represents a ticket with its joined rows.
type TicketResponse struct {
	ID          string                `json:"id"`
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	CategoryID  *string               `json:"category_id"`
	Category    *RefResponse          `json:"category"`
	CreatedBy   string                `json:"created_by"`
	Creator     *RefResponse          `json:"creator"`
	AssignedTo  *string               `json:"assigned_to"`
	Assignee    *RefResponse          `json:"assignee"`
	SLADueAt    *time.Time            `json:"sla_due_at"`
	SLABreached bool                  `json:"sla_breached"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// TicketPageResponse is one page of tickets.
type TicketPageResponse struct {
	Items    []TicketResponse `json:"items"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content      string `json:"content"`
	InternalNote bool   `json:"internal_note"`
}

// CommentResponse represents a thread entry.
type CommentResponse struct {
	ID           string       `json:"id"`
	TicketID     string       `json:"ticket_id"`
	Content      string       `json:"content"`
	InternalNote bool         `json:"internal_note"`
	CreatedBy    string       `json:"created_by"`
	Author       *RefResponse `json:"author"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

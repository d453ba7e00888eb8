package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/deskline/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventCommentAdded          EventType = "comment_added"
	EventArticleStatusChanged  EventType = "article_status_changed"
	EventSessionStarted        EventType = "session_started"
	EventSessionEnded          EventType = "session_ended"
	EventCategoryChanged       EventType = "category_changed"
	EventUserUpdated           EventType = "user_updated"
)

// AllEventTypes lists every published type.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketStatusChanged,
	EventTicketPriorityChanged,
	EventTicketAssigned,
	EventCommentAdded,
	EventArticleStatusChanged,
	EventSessionStarted,
	EventSessionEnded,
	EventCategoryChanged,
	EventUserUpdated,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SubjectID string    `json:"subject_id"`
	ActorID   string    `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, subjectID, actorID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Subject    string                `json:"subject"`
	Priority   domain.TicketPriority `json:"priority"`
	CategoryID *string               `json:"category_id,omitempty"`
	CreatedBy  string                `json:"created_by"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
	SLADueAt    *time.Time            `json:"sla_due_at,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	PreviousAssignee *string `json:"previous_assignee,omitempty"`
	AssignedTo       *string `json:"assigned_to,omitempty"`
}

// CommentAddedPayload payload. Internal notes carry no preview.
type CommentAddedPayload struct {
	TicketID     string `json:"ticket_id"`
	InternalNote bool   `json:"internal_note"`
	BodyPreview  string `json:"body_preview,omitempty"`
}

// ArticleStatusChangedPayload payload.
type ArticleStatusChangedPayload struct {
	OldStatus  domain.ArticleStatus `json:"old_status"`
	NewStatus  domain.ArticleStatus `json:"new_status"`
	ApproverID *string              `json:"approver_id,omitempty"`
}

// SessionPayload payload for session_started and session_ended.
type SessionPayload struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// CategoryChangedPayload payload for renames and deletes.
type CategoryChangedPayload struct {
	Name    string `json:"name,omitempty"`
	Deleted bool   `json:"deleted"`
}

// UserUpdatedPayload payload.
type UserUpdatedPayload struct {
	FullName string      `json:"full_name"`
	Role     domain.Role `json:"role"`
}

package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/deskline/helpdesk/internal/api/dto"
	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/service"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

// TicketsHandler serves ticket and comment endpoints for every role. The
// services decide what each caller may see and do.
type TicketsHandler struct {
	tickets  *service.TicketService
	comments *service.CommentService
	now      func() time.Time
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, commentService *service.CommentService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService, comments: commentService, now: time.Now}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	input, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	page, err := h.tickets.List(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	now := h.now()
	items := make([]dto.TicketResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, ticketResponse(&page.Items[i], now))
	}
	return data(c, fiber.StatusOK, dto.TicketPageResponse{
		Items:    items,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Subject) == "" {
		return apperrors.NewValidationError("subject required", map[string]any{"field": "subject"})
	}
	if err := validID("category_id", req.CategoryID); err != nil {
		return err
	}
	ticket, err := h.tickets.Create(c.UserContext(), actor, service.TicketCreateInput{
		Subject:     req.Subject,
		Description: req.Description,
		Priority:    req.Priority,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		return err
	}
	return data(c, fiber.StatusCreated, ticketResponse(ticket, h.now()))
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Get(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, ticketResponse(ticket, h.now()))
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	input := service.TicketUpdateInput{
		Subject:     req.Subject,
		Description: req.Description,
		Priority:    req.Priority,
	}
	if req.CategoryID.Set {
		if err := validID("category_id", req.CategoryID.Value); err != nil {
			return err
		}
		input.CategoryID = req.CategoryID.Value
		input.ClearCategory = req.CategoryID.Value == nil
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Update(c.UserContext(), actor, id, input)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, ticketResponse(ticket, h.now()))
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", map[string]any{"field": "status"})
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	ticket, err := h.tickets.UpdateStatus(c.UserContext(), actor, id, req.Status)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, ticketResponse(ticket, h.now()))
}

// AssignTicket PATCH /tickets/:id/assignee.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := validID("assigned_to", req.AssignedTo); err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Assign(c.UserContext(), actor, id, req.AssignedTo)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, ticketResponse(ticket, h.now()))
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	if err := h.tickets.Delete(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListComments GET /tickets/:id/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	comments, err := h.comments.List(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, commentResponse(&comments[i]))
	}
	return data(c, fiber.StatusOK, items)
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Content) == "" {
		return apperrors.NewValidationError("content required", map[string]any{"field": "content"})
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	comment, err := h.comments.Add(c.UserContext(), actor, id, service.CommentInput{
		Content:      req.Content,
		InternalNote: req.InternalNote,
	})
	if err != nil {
		return err
	}
	return data(c, fiber.StatusCreated, commentResponse(comment))
}

func parseTicketQuery(c *fiber.Ctx) (service.TicketListInput, error) {
	input := service.TicketListInput{
		SearchTerm: c.Query("q"),
		OrderBy:    c.Query("order_by"),
		Page:       parseInt(c.Query("page"), 1),
		PageSize:   parseInt(c.Query("page_size"), 20),
	}
	for _, s := range splitList(c.Query("status")) {
		input.Statuses = append(input.Statuses, domain.TicketStatus(s))
	}
	for _, p := range splitList(c.Query("priority")) {
		input.Priorities = append(input.Priorities, domain.TicketPriority(p))
	}

	switch strings.ToLower(c.Query("order", "desc")) {
	case "desc":
		input.Descending = true
	case "asc":
	default:
		return input, apperrors.NewValidationError("invalid order", map[string]any{"field": "order", "allowed": []string{"asc", "desc"}})
	}

	var err error
	if input.CategoryID, err = idQuery(c, "category_id"); err != nil {
		return input, err
	}
	if input.AssignedTo, err = idQuery(c, "assigned_to"); err != nil {
		return input, err
	}
	if input.CreatedBy, err = idQuery(c, "created_by"); err != nil {
		return input, err
	}
	if input.CreatedFrom, err = parseTime("created_from", c.Query("created_from")); err != nil {
		return input, err
	}
	if input.CreatedTo, err = parseTime("created_to", c.Query("created_to")); err != nil {
		return input, err
	}
	return input, nil
}

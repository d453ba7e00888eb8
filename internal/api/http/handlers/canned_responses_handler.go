package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskline/helpdesk/internal/api/dto"
	"github.com/deskline/helpdesk/internal/service"
)

// CannedResponsesHandler manages staff reply templates.
type CannedResponsesHandler struct {
	service *service.CannedResponseService
}

// NewCannedResponsesHandler constructs handler.
func NewCannedResponsesHandler(cannedService *service.CannedResponseService) *CannedResponsesHandler {
	return &CannedResponsesHandler{service: cannedService}
}

// List GET /canned-responses.
func (h *CannedResponsesHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	items, err := h.service.List(c.UserContext(), actor)
	if err != nil {
		return err
	}
	resp := make([]dto.CannedResponseResponse, 0, len(items))
	for i := range items {
		resp = append(resp, cannedResponse(&items[i]))
	}
	return data(c, fiber.StatusOK, resp)
}

// Create POST /canned-responses.
func (h *CannedResponsesHandler) Create(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CannedResponseRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	item, err := h.service.Create(c.UserContext(), actor, service.CannedResponseInput{Title: req.Title, Content: req.Content})
	if err != nil {
		return err
	}
	return data(c, fiber.StatusCreated, cannedResponse(item))
}

// Update PATCH /canned-responses/:id.
func (h *CannedResponsesHandler) Update(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CannedResponseRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "canned response")
	if err != nil {
		return err
	}
	item, err := h.service.Update(c.UserContext(), actor, id, service.CannedResponseInput{Title: req.Title, Content: req.Content})
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, cannedResponse(item))
}

// Delete DELETE /canned-responses/:id.
func (h *CannedResponsesHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "canned response")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

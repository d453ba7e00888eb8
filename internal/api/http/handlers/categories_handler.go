package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskline/helpdesk/internal/api/dto"
	"github.com/deskline/helpdesk/internal/service"
)

// CategoriesHandler manages categories.
type CategoriesHandler struct {
	service *service.CategoryService
}

// NewCategoriesHandler constructs handler.
func NewCategoriesHandler(categoryService *service.CategoryService) *CategoriesHandler {
	return &CategoriesHandler{service: categoryService}
}

// List GET /categories.
func (h *CategoriesHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	categories, err := h.service.List(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, categoryResponse(&categories[i]))
	}
	return data(c, fiber.StatusOK, items)
}

// Create POST /categories.
func (h *CategoriesHandler) Create(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CategoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	category, err := h.service.Create(c.UserContext(), actor, service.CategoryInput{Name: req.Name, Description: req.Description})
	if err != nil {
		return err
	}
	return data(c, fiber.StatusCreated, categoryResponse(category))
}

// Update PATCH /categories/:id.
func (h *CategoriesHandler) Update(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CategoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "category")
	if err != nil {
		return err
	}
	category, err := h.service.Update(c.UserContext(), actor, id, service.CategoryInput{Name: req.Name, Description: req.Description})
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, categoryResponse(category))
}

// Delete DELETE /categories/:id.
func (h *CategoriesHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "category")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

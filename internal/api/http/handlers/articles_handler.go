package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskline/helpdesk/internal/api/dto"
	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/repository"
	"github.com/deskline/helpdesk/internal/service"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

// ArticlesHandler serves the knowledge base.
type ArticlesHandler struct {
	service *service.ArticleService
}

// NewArticlesHandler constructs handler.
func NewArticlesHandler(articleService *service.ArticleService) *ArticlesHandler {
	return &ArticlesHandler{service: articleService}
}

// List GET /articles.
func (h *ArticlesHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	categoryID, err := idQuery(c, "category_id")
	if err != nil {
		return err
	}
	filter := repository.ArticleFilter{
		CategoryID: categoryID,
		SearchTerm: c.Query("q"),
		Limit:      parseInt(c.Query("limit"), 0),
		Offset:     parseInt(c.Query("offset"), 0),
	}
	if status := c.Query("status"); status != "" {
		st := domain.ArticleStatus(status)
		filter.Status = &st
	}
	articles, err := h.service.List(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.ArticleResponse, 0, len(articles))
	for i := range articles {
		items = append(items, articleResponse(&articles[i]))
	}
	return data(c, fiber.StatusOK, items)
}

// Get GET /articles/:id.
func (h *ArticlesHandler) Get(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "article")
	if err != nil {
		return err
	}
	article, err := h.service.Get(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, articleResponse(article))
}

// Create POST /articles.
func (h *ArticlesHandler) Create(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.ArticleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := validID("category_id", req.CategoryID.Value); err != nil {
		return err
	}
	article, err := h.service.Create(c.UserContext(), actor, service.ArticleInput{
		Title:      req.Title,
		Content:    req.Content,
		CategoryID: req.CategoryID.Value,
	})
	if err != nil {
		return err
	}
	return data(c, fiber.StatusCreated, articleResponse(article))
}

// Update PATCH /articles/:id.
func (h *ArticlesHandler) Update(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.ArticleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := validID("category_id", req.CategoryID.Value); err != nil {
		return err
	}
	input := service.ArticleInput{Title: req.Title, Content: req.Content}
	if req.CategoryID.Set {
		input.CategoryID = req.CategoryID.Value
		input.ClearCategory = req.CategoryID.Value == nil
	}
	id, err := pathID(c, "article")
	if err != nil {
		return err
	}
	article, err := h.service.Update(c.UserContext(), actor, id, input)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, articleResponse(article))
}

// UpdateStatus PATCH /articles/:id/status.
func (h *ArticlesHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateArticleStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", map[string]any{"field": "status"})
	}
	id, err := pathID(c, "article")
	if err != nil {
		return err
	}
	article, err := h.service.UpdateStatus(c.UserContext(), actor, id, req.Status)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, articleResponse(article))
}

// Delete DELETE /articles/:id.
func (h *ArticlesHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "article")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

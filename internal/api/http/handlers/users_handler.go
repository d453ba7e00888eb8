package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskline/helpdesk/internal/api/dto"
	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/repository"
	"github.com/deskline/helpdesk/internal/service"
)

// UsersHandler serves the caller's profile and the role directory.
type UsersHandler struct {
	service *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{service: userService}
}

// Me GET /me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	user, err := h.service.Get(c.UserContext(), actor, actor.UserID)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, userResponse(user))
}

// UpdateMe PATCH /me.
func (h *UsersHandler) UpdateMe(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.service.UpdateProfile(c.UserContext(), actor, actor.UserID, service.ProfileUpdateInput{
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, userResponse(user))
}

// List GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	filter := repository.UserFilter{
		Search: c.Query("q"),
		Limit:  parseInt(c.Query("limit"), 0),
		Offset: parseInt(c.Query("offset"), 0),
	}
	if role := c.Query("role"); role != "" {
		r := domain.Role(role)
		filter.Role = &r
	}
	users, err := h.service.List(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return data(c, fiber.StatusOK, items)
}

// Get GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "user")
	if err != nil {
		return err
	}
	user, err := h.service.Get(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, userResponse(user))
}

// UpdateRole PATCH /users/:id/role.
func (h *UsersHandler) UpdateRole(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateRoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "user")
	if err != nil {
		return err
	}
	user, err := h.service.UpdateRole(c.UserContext(), actor, id, req.Role)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, userResponse(user))
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskline/helpdesk/internal/api/dto"
	"github.com/deskline/helpdesk/internal/auth"
	"github.com/deskline/helpdesk/internal/service"
)

// AuthHandler exposes registration and session endpoints.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Register POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.service.Register(c.UserContext(), service.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return data(c, fiber.StatusCreated, userResponse(user))
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, dto.LoginResponse{
		AccessToken: result.Token,
		TokenType:   "Bearer",
		ExpiresAt:   result.ExpiresAt,
		User:        userResponse(result.User),
	})
}

// Logout POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.Logout(c.UserContext(), service.ActorFromPrincipal(principal), principal.SessionID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

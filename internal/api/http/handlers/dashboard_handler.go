package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/deskline/helpdesk/internal/api/dto"
	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/service"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

// DashboardHandler serves the staff dashboard and SLA settings.
type DashboardHandler struct {
	dashboard *service.DashboardService
	sla       *service.SLAService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService, slaService *service.SLAService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboardService, sla: slaService}
}

// Dashboard GET /dashboard?days=N.
func (h *DashboardHandler) Dashboard(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	days := 0
	if raw := c.Query("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil {
			return apperrors.NewValidationError("days must be an integer", map[string]any{"field": "days"})
		}
		if days == 0 {
			return apperrors.NewValidationError("days must be between 1 and 365", map[string]any{"field": "days"})
		}
	}
	snap, err := h.dashboard.Get(c.UserContext(), actor, days)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, dashboardResponse(snap))
}

// ListSLA GET /sla.
func (h *DashboardHandler) ListSLA(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	policies, err := h.sla.List(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, slaResponses(policies))
}

// ReplaceSLA PUT /sla.
func (h *DashboardHandler) ReplaceSLA(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.ReplaceSLARequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	policies := make([]domain.SLAPolicy, 0, len(req.Policies))
	for _, p := range req.Policies {
		policies = append(policies, domain.SLAPolicy{Priority: p.Priority, ResponseHours: p.ResponseHours, ResolutionHours: p.ResolutionHours})
	}
	updated, err := h.sla.Replace(c.UserContext(), actor, policies)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, slaResponses(updated))
}

package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/deskline/helpdesk/internal/api/dto"
	"github.com/deskline/helpdesk/internal/auth"
	"github.com/deskline/helpdesk/internal/dashboard"
	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/service"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

func currentActor(c *fiber.Ctx) (service.Actor, error) {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return service.Actor{}, err
	}
	return service.ActorFromPrincipal(principal), nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func data(c *fiber.Ctx, status int, payload any) error {
	return c.Status(status).JSON(fiber.Map{"data": payload})
}

func parseTime(field, val string) (*time.Time, error) {
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid timestamp", map[string]any{"field": field, "format": "RFC3339"})
	}
	return &t, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// pathID reads the :id route parameter. An id that is not a UUID cannot name
// a stored row, so it is reported as missing.
func pathID(c *fiber.Ctx, resource string) (string, error) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", apperrors.NewNotFound(resource, nil)
	}
	return id, nil
}

// validID rejects a reference that is set but not a UUID. Blank values pass;
// the services treat them as absent.
func validID(field string, id *string) error {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	if _, err := uuid.Parse(strings.TrimSpace(*id)); err != nil {
		return apperrors.NewValidationError("invalid id", map[string]any{"field": field})
	}
	return nil
}

func idQuery(c *fiber.Ctx, key string) (*string, error) {
	val := optionalQuery(c, key)
	if err := validID(key, val); err != nil {
		return nil, err
	}
	return val, nil
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil
	}
	return &val
}

func userResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Role:      u.Role,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func userRef(ref *domain.UserRef) *dto.RefResponse {
	if ref == nil {
		return nil
	}
	return &dto.RefResponse{ID: ref.ID, Name: ref.FullName}
}

func categoryRef(ref *domain.CategoryRef) *dto.RefResponse {
	if ref == nil {
		return nil
	}
	return &dto.RefResponse{ID: ref.ID, Name: ref.Name}
}

func ticketResponse(t *domain.Ticket, now time.Time) dto.TicketResponse {
	return dto.TicketResponse{
		ID:          t.ID,
		Subject:     t.Subject,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		CategoryID:  t.CategoryID,
		Category:    categoryRef(t.Category),
		CreatedBy:   t.CreatedBy,
		Creator:     userRef(t.Creator),
		AssignedTo:  t.AssignedTo,
		Assignee:    userRef(t.Assignee),
		SLADueAt:    t.SLADueAt,
		SLABreached: t.SLABreached(now),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func commentResponse(cm *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:           cm.ID,
		TicketID:     cm.TicketID,
		Content:      cm.Content,
		InternalNote: cm.InternalNote,
		CreatedBy:    cm.CreatedBy,
		Author:       userRef(cm.Author),
		CreatedAt:    cm.CreatedAt,
		UpdatedAt:    cm.UpdatedAt,
	}
}

func categoryResponse(cat *domain.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:          cat.ID,
		Name:        cat.Name,
		Description: cat.Description,
		CreatedAt:   cat.CreatedAt,
		UpdatedAt:   cat.UpdatedAt,
	}
}

func articleResponse(a *domain.Article) dto.ArticleResponse {
	return dto.ArticleResponse{
		ID:         a.ID,
		Title:      a.Title,
		Content:    a.Content,
		CategoryID: a.CategoryID,
		Category:   categoryRef(a.Category),
		Status:     a.Status,
		AuthorID:   a.AuthorID,
		ApproverID: a.ApproverID,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func cannedResponse(r *domain.CannedResponse) dto.CannedResponseResponse {
	return dto.CannedResponseResponse{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func slaResponses(policies []domain.SLAPolicy) []dto.SLAPolicyDTO {
	out := make([]dto.SLAPolicyDTO, 0, len(policies))
	for _, p := range policies {
		out = append(out, dto.SLAPolicyDTO{Priority: p.Priority, ResponseHours: p.ResponseHours, ResolutionHours: p.ResolutionHours})
	}
	return out
}

func dashboardResponse(s *dashboard.Snapshot) dto.DashboardResponse {
	resp := dto.DashboardResponse{
		WindowDays:         s.WindowDays,
		Since:              s.Since,
		GeneratedAt:        s.GeneratedAt,
		Total:              s.Total,
		Open:               s.Open,
		Pending:            s.Pending,
		Resolved:           s.Resolved,
		Urgent:             s.Urgent,
		ByCategory:         make([]dto.CategoryCountResponse, 0, len(s.ByCategory)),
		Agents:             make([]dto.AgentPerformanceResponse, 0, len(s.Agents)),
		AvgResolutionHours: s.AvgResolutionHours,
		ResolutionRate:     s.ResolutionRate,
	}
	for _, cc := range s.ByCategory {
		resp.ByCategory = append(resp.ByCategory, dto.CategoryCountResponse{Name: cc.Name, Count: cc.Count})
	}
	for _, a := range s.Agents {
		resp.Agents = append(resp.Agents, dto.AgentPerformanceResponse{AgentID: a.AgentID, Name: a.Name, Assigned: a.Assigned, Resolved: a.Resolved})
	}
	return resp
}

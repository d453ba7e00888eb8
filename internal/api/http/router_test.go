package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/deskline/helpdesk/internal/api/http/handlers"
	"github.com/deskline/helpdesk/internal/auth"
	"github.com/deskline/helpdesk/internal/authz"
	"github.com/deskline/helpdesk/internal/config"
	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/events"
	"github.com/deskline/helpdesk/internal/observability"
	"github.com/deskline/helpdesk/internal/persistence"
	"github.com/deskline/helpdesk/internal/repository"
	"github.com/deskline/helpdesk/internal/service"
)

type testServer struct {
	app   *fiber.App
	repos *repository.Repositories
}

func newTestServer(t *testing.T, limiter *RateLimiter) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	repos := repository.NewMemory().Repositories()
	sessions := auth.NewMemorySessionStore()
	authorizer, err := authz.New(authz.Options{})
	require.NoError(t, err)

	deps := service.Dependencies{
		Repos:      repos,
		Authorizer: authorizer,
		Dispatcher: events.NewInMemoryDispatcher(logger),
		Logger:     logger,
	}
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	sla := service.NewSLAService(deps)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:          handlers.NewHealthHandler("helpdesk", "test", &persistence.Postgres{}, nil),
		Auth:            handlers.NewAuthHandler(service.NewAuthService(deps, config.AuthConfig{BcryptCost: bcrypt.MinCost}, tokens, sessions)),
		Users:           handlers.NewUsersHandler(service.NewUserService(deps)),
		Categories:      handlers.NewCategoriesHandler(service.NewCategoryService(deps)),
		Tickets:         handlers.NewTicketsHandler(service.NewTicketService(deps, sla), service.NewCommentService(deps)),
		Articles:        handlers.NewArticlesHandler(service.NewArticleService(deps)),
		CannedResponses: handlers.NewCannedResponsesHandler(service.NewCannedResponseService(deps)),
		Dashboard:       handlers.NewDashboardHandler(service.NewDashboardService(deps, 7), sla),
		AuthMiddleware:  auth.NewAuthMiddleware(tokens, sessions, repos.Users),
		Authorizer:      authorizer,
		RateLimiter:     limiter,
		Metrics:         metrics,
	})
	return &testServer{app: app, repos: repos}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

// signUp registers and logs in a user, optionally promoting them first.
func (s *testServer) signUp(t *testing.T, name, email string, role domain.Role) (string, string) {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"full_name": name, "email": email, "password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, status)
	var user struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &user))

	if role != domain.RoleClient {
		u, err := s.repos.Users.GetByID(context.Background(), user.ID)
		require.NoError(t, err)
		u.Role = role
		require.NoError(t, s.repos.Users.Update(context.Background(), u))
	}

	status, env = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, status)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	return user.ID, login.AccessToken
}

func TestHealthAndUnknownRoute(t *testing.T) {
	s := newTestServer(t, nil)

	status, _ := s.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, env := s.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, nil)
	status, env := s.do(t, http.MethodGet, "/tickets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "AUTHENTICATION_REQUIRED", env.Error.Code)

	status, _ = s.do(t, http.MethodGet, "/tickets", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestTicketFlow_ClientAndAgent(t *testing.T) {
	s := newTestServer(t, nil)
	clientID, clientToken := s.signUp(t, "Client A", "a@example.com", domain.RoleClient)
	_, agentToken := s.signUp(t, "Agent", "agent@example.com", domain.RoleAgent)

	status, env := s.do(t, http.MethodPost, "/tickets", clientToken, map[string]any{
		"subject": "Cannot log in", "description": "SSO loop", "priority": "high",
	})
	require.Equal(t, http.StatusCreated, status)
	var ticket struct {
		ID          string `json:"id"`
		CreatedBy   string `json:"created_by"`
		Status      string `json:"status"`
		SLABreached bool   `json:"sla_breached"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ticket))
	assert.Equal(t, clientID, ticket.CreatedBy)
	assert.Equal(t, "open", ticket.Status)
	assert.False(t, ticket.SLABreached)

	status, env = s.do(t, http.MethodPatch, "/tickets/"+ticket.ID+"/status", clientToken, map[string]string{"status": "closed"})
	assert.Equal(t, http.StatusForbidden, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "AUTHORIZATION_DENIED", env.Error.Code)

	status, env = s.do(t, http.MethodPatch, "/tickets/"+ticket.ID+"/status", agentToken, map[string]string{"status": "pending"})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &ticket))
	assert.Equal(t, "pending", ticket.Status)

	status, _ = s.do(t, http.MethodPost, "/tickets/"+ticket.ID+"/comments", agentToken, map[string]any{"content": "Reset your cookies"})
	require.Equal(t, http.StatusCreated, status)
	status, _ = s.do(t, http.MethodPost, "/tickets/"+ticket.ID+"/comments", agentToken, map[string]any{"content": "C1 internal", "internal_note": true})
	require.Equal(t, http.StatusCreated, status)

	status, env = s.do(t, http.MethodGet, "/tickets/"+ticket.ID+"/comments", clientToken, nil)
	require.Equal(t, http.StatusOK, status)
	var comments []struct {
		Content      string `json:"content"`
		InternalNote bool   `json:"internal_note"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, "Reset your cookies", comments[0].Content)

	status, env = s.do(t, http.MethodGet, "/tickets?status=pending&order=asc", agentToken, nil)
	require.Equal(t, http.StatusOK, status)
	var page struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.Total)

	status, env = s.do(t, http.MethodGet, "/tickets?order=sideways", agentToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}

func TestOtherClientGetsNotFound(t *testing.T) {
	s := newTestServer(t, nil)
	_, tokenA := s.signUp(t, "A", "a@example.com", domain.RoleClient)
	_, tokenB := s.signUp(t, "B", "b@example.com", domain.RoleClient)

	status, env := s.do(t, http.MethodPost, "/tickets", tokenA, map[string]any{"subject": "mine"})
	require.Equal(t, http.StatusCreated, status)
	var ticket struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ticket))

	status, env = s.do(t, http.MethodGet, "/tickets/"+ticket.ID, tokenB, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.signUp(t, "A", "a@example.com", domain.RoleClient)

	status, _ := s.do(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, env := s.do(t, http.MethodGet, "/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "AUTHENTICATION_REQUIRED", env.Error.Code)
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	s := newTestServer(t, nil)
	s.signUp(t, "A", "a@example.com", domain.RoleClient)

	status, env := s.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"full_name": "A2", "email": "a@example.com", "password": "s3cret-pass",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", env.Error.Code)
}

func TestDashboardAccess(t *testing.T) {
	s := newTestServer(t, nil)
	_, clientToken := s.signUp(t, "C", "c@example.com", domain.RoleClient)
	_, agentToken := s.signUp(t, "Ag", "ag@example.com", domain.RoleAgent)

	status, _ := s.do(t, http.MethodGet, "/dashboard", clientToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env := s.do(t, http.MethodGet, "/dashboard?days=0", agentToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	status, env = s.do(t, http.MethodGet, "/dashboard?days=30", agentToken, nil)
	require.Equal(t, http.StatusOK, status)
	var dash struct {
		WindowDays int `json:"window_days"`
		Total      int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.Equal(t, 30, dash.WindowDays)
	assert.Zero(t, dash.Total)
}

func TestRateLimitedLogin(t *testing.T) {
	s := newTestServer(t, NewRateLimiter(0.001, 1))
	body := map[string]string{"email": "x@example.com", "password": "whatever-pass"}

	status, _ := s.do(t, http.MethodPost, "/auth/login", "", body)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := s.do(t, http.MethodPost, "/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "RATE_LIMITED", env.Error.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, http.MethodGet, "/health/live", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(raw), "http_requests_total"))
}

func TestCodeForStatus(t *testing.T) {
	assert.Equal(t, "NOT_FOUND", codeForStatus(fiber.StatusMethodNotAllowed))
	assert.Equal(t, "VALIDATION_FAILED", codeForStatus(fiber.StatusRequestEntityTooLarge))
	assert.Equal(t, "INTERNAL_ERROR", codeForStatus(fiber.StatusBadGateway))
}

func TestMalformedIDs(t *testing.T) {
	s := newTestServer(t, nil)
	_, clientToken := s.signUp(t, "Client", "client@example.com", domain.RoleClient)
	_, managerToken := s.signUp(t, "Manager", "manager@example.com", domain.RoleManager)

	status, env := s.do(t, http.MethodGet, "/tickets/abc", clientToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, _ = s.do(t, http.MethodDelete, "/categories/abc", managerToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = s.do(t, http.MethodGet, "/tickets?assigned_to=x", managerToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "assigned_to", env.Error.Details["field"])

	status, env = s.do(t, http.MethodPost, "/tickets", clientToken, map[string]any{"subject": "printer", "category_id": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "category_id", env.Error.Details["field"])

	status, _ = s.do(t, http.MethodGet, "/articles?category_id=x", clientToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

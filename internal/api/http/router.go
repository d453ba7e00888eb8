package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deskline/helpdesk/internal/api/http/handlers"
	"github.com/deskline/helpdesk/internal/auth"
	"github.com/deskline/helpdesk/internal/authz"
	"github.com/deskline/helpdesk/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Auth            *handlers.AuthHandler
	Users           *handlers.UsersHandler
	Categories      *handlers.CategoriesHandler
	Tickets         *handlers.TicketsHandler
	Articles        *handlers.ArticlesHandler
	CannedResponses *handlers.CannedResponsesHandler
	Dashboard       *handlers.DashboardHandler
	AuthMiddleware  *auth.AuthMiddleware
	Authorizer      *authz.Authorizer
	RateLimiter     *RateLimiter
	Metrics         *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	limit := cfg.RateLimiter.Handler()

	authGroup := app.Group("/auth", limit)
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)

	authed := func(handlers ...fiber.Handler) []fiber.Handler {
		return append([]fiber.Handler{cfg.AuthMiddleware.Handle, limit}, handlers...)
	}
	grant := func(action authz.Action, resource authz.Resource) fiber.Handler {
		return auth.RequireGrant(cfg.Authorizer, action, resource)
	}

	app.Get("/me", authed(cfg.Users.Me)...)
	app.Patch("/me", authed(cfg.Users.UpdateMe)...)

	users := app.Group("/users", authed()...)
	users.Get("/", grant(authz.ActionList, authz.ResourceUser), cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)
	users.Patch("/:id/role", grant(authz.ActionUpdateRole, authz.ResourceUser), cfg.Users.UpdateRole)

	categories := app.Group("/categories", authed()...)
	categories.Get("/", cfg.Categories.List)
	categories.Post("/", grant(authz.ActionCreate, authz.ResourceCategory), cfg.Categories.Create)
	categories.Patch("/:id", grant(authz.ActionUpdate, authz.ResourceCategory), cfg.Categories.Update)
	categories.Delete("/:id", grant(authz.ActionDelete, authz.ResourceCategory), cfg.Categories.Delete)

	tickets := app.Group("/tickets", authed()...)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", grant(authz.ActionCreate, authz.ResourceTicket), cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Patch("/:id/assignee", cfg.Tickets.AssignTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)

	articles := app.Group("/articles", authed()...)
	articles.Get("/", cfg.Articles.List)
	articles.Post("/", grant(authz.ActionCreate, authz.ResourceArticle), cfg.Articles.Create)
	articles.Get("/:id", cfg.Articles.Get)
	articles.Patch("/:id", grant(authz.ActionUpdate, authz.ResourceArticle), cfg.Articles.Update)
	articles.Patch("/:id/status", grant(authz.ActionUpdate, authz.ResourceArticle), cfg.Articles.UpdateStatus)
	articles.Delete("/:id", grant(authz.ActionDelete, authz.ResourceArticle), cfg.Articles.Delete)

	canned := app.Group("/canned-responses", authed(grant(authz.ActionRead, authz.ResourceCannedResponse))...)
	canned.Get("/", cfg.CannedResponses.List)
	canned.Post("/", cfg.CannedResponses.Create)
	canned.Patch("/:id", cfg.CannedResponses.Update)
	canned.Delete("/:id", cfg.CannedResponses.Delete)

	app.Get("/sla", authed(grant(authz.ActionRead, authz.ResourceSLA), cfg.Dashboard.ListSLA)...)
	app.Put("/sla", authed(grant(authz.ActionUpdate, authz.ResourceSLA), cfg.Dashboard.ReplaceSLA)...)
	app.Get("/dashboard", authed(grant(authz.ActionRead, authz.ResourceDashboard), cfg.Dashboard.Dashboard)...)
}

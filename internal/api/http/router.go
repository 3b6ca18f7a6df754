package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/acme-ops/opsboard/internal/api/http/handlers"
	"github.com/acme-ops/opsboard/internal/auth"
	"github.com/acme-ops/opsboard/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Projects       *handlers.ProjectsHandler
	Tasks          *handlers.TasksHandler
	TimeEntries    *handlers.TimeEntriesHandler
	Requests       *handlers.RequestsHandler
	Analytics      *handlers.AnalyticsHandler
	Metrics        nethttp.Handler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	api := app.Group("/api")
	authenticated := cfg.AuthMiddleware.Handle
	can := auth.RequirePermission

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", authenticated, auth.RequireAuthenticated(), cfg.Auth.Me)
	authGroup.Post("/password/change", authenticated, auth.RequireAuthenticated(), cfg.Auth.ChangePassword)

	users := api.Group("/users", authenticated)
	users.Get("/", can(auth.ActionUsersList), cfg.Users.List)
	users.Get("/:id", can(auth.ActionUsersRead), cfg.Users.Get)
	users.Put("/:id", can(auth.ActionUsersUpdate), cfg.Users.Update)
	users.Delete("/:id", can(auth.ActionUsersDeactivate), cfg.Users.Deactivate)

	projects := api.Group("/projects", authenticated)
	projects.Post("/", can(auth.ActionProjectsCreate), cfg.Projects.Create)
	projects.Get("/", can(auth.ActionProjectsList), cfg.Projects.List)
	projects.Get("/:id", can(auth.ActionProjectsRead), cfg.Projects.Get)
	projects.Put("/:id", can(auth.ActionProjectsUpdate), cfg.Projects.Update)
	projects.Delete("/:id", can(auth.ActionProjectsDelete), cfg.Projects.Delete)

	tasks := api.Group("/tasks", authenticated)
	tasks.Post("/", can(auth.ActionTasksCreate), cfg.Tasks.Create)
	tasks.Get("/", can(auth.ActionTasksList), cfg.Tasks.List)
	tasks.Get("/:id", can(auth.ActionTasksRead), cfg.Tasks.Get)
	tasks.Put("/:id", can(auth.ActionTasksUpdate), cfg.Tasks.Update)
	tasks.Delete("/:id", can(auth.ActionTasksDelete), cfg.Tasks.Delete)

	entries := api.Group("/time-entries", authenticated)
	entries.Post("/", can(auth.ActionTimeEntriesCreate), cfg.TimeEntries.Create)
	entries.Get("/", can(auth.ActionTimeEntriesList), cfg.TimeEntries.List)
	entries.Get("/:id", can(auth.ActionTimeEntriesRead), cfg.TimeEntries.Get)
	entries.Put("/:id", can(auth.ActionTimeEntriesUpdate), cfg.TimeEntries.Update)
	entries.Delete("/:id", can(auth.ActionTimeEntriesDelete), cfg.TimeEntries.Delete)

	requests := api.Group("/requests/time-entry", authenticated)
	requests.Post("/", can(auth.ActionRequestsSubmit), cfg.Requests.Submit)
	requests.Get("/", can(auth.ActionRequestsList), cfg.Requests.List)
	requests.Get("/:id", can(auth.ActionRequestsRead), cfg.Requests.Get)
	requests.Post("/:id/accept", can(auth.ActionRequestsAccept), cfg.Requests.Accept)
	requests.Post("/:id/reject", can(auth.ActionRequestsReject), cfg.Requests.Reject)

	analytics := api.Group("/analytics", authenticated, can(auth.ActionAnalyticsRead))
	analytics.Get("/", cfg.Analytics.Reports)
	analytics.Get("/:report", cfg.Analytics.Run)

	app.Use(observability.NotFound)
}

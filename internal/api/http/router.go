package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/taskforge/task-service/internal/api/http/handlers"
	"github.com/taskforge/task-service/internal/auth"
	"github.com/taskforge/task-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tasks          *handlers.TasksHandler
	Comments       *handlers.CommentsHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. The authentication middleware runs on
// every request and passes anonymous ones through; per-route guards decide
// what each endpoint requires.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.AuthMiddleware.Handle)

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// Public auth surface.
	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	app.Post("/authz/check-access", cfg.Auth.CheckAccess)

	api := app.Group("/api")

	adminOnly := auth.RequireRole(domain.UserRoleAdmin)
	anyRole := auth.RequireRole(domain.UserRoleUser, domain.UserRoleAdmin)
	authenticated := auth.RequireAuthenticated()

	tasks := api.Group("/tasks")
	tasks.Post("/", adminOnly, cfg.Tasks.Create)
	tasks.Get("/my-tasks", anyRole, cfg.Tasks.MyTasks)
	tasks.Get("/my-tasks/author-and-executor", anyRole, cfg.Tasks.MyTasksAuthorAndExecutor)
	tasks.Get("/", authenticated, cfg.Tasks.List)
	tasks.Put("/:id", adminOnly, cfg.Tasks.Update)
	tasks.Delete("/:id", adminOnly, cfg.Tasks.Delete)
	tasks.Post("/:id/status", adminOnly, cfg.Tasks.SetStatus)
	tasks.Post("/:id/priority", adminOnly, cfg.Tasks.SetPriority)
	tasks.Post("/:id/executor/:userId", adminOnly, cfg.Tasks.SetExecutor)
	tasks.Post("/:id/author/:userId", adminOnly, cfg.Tasks.SetAuthor)
	tasks.Get("/:id", authenticated, cfg.Tasks.Get)

	tasks.Post("/:taskId/comments", anyRole, cfg.Comments.Create)
	tasks.Get("/:taskId/comments", anyRole, cfg.Comments.ListByTask)

	comments := api.Group("/comments", anyRole)
	comments.Get("/:id", cfg.Comments.Get)
	comments.Put("/:id", cfg.Comments.Update)
	comments.Delete("/:id", cfg.Comments.Delete)

	users := api.Group("/users")
	users.Post("/", cfg.Auth.Register)
	users.Get("/", adminOnly, cfg.Users.List)
	users.Get("/:id", adminOnly, cfg.Users.Get)
	users.Put("/:id", adminOnly, cfg.Users.Update)
	users.Delete("/:id", adminOnly, cfg.Users.Delete)
}

package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/taskforge/task-service/internal/api/dto"
	"github.com/taskforge/task-service/internal/auth"
	"github.com/taskforge/task-service/internal/domain"
	"github.com/taskforge/task-service/internal/service"
)

// TasksHandler exposes task CRUD and assignment endpoints.
type TasksHandler struct {
	tasks *service.TaskService
}

// NewTasksHandler constructs handler.
func NewTasksHandler(taskService *service.TaskService) *TasksHandler {
	return &TasksHandler{tasks: taskService}
}

// Create handles POST /api/tasks.
func (h *TasksHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	var req dto.TaskCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	task, err := h.tasks.Create(c.Context(), principal.User.ID, service.TaskCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.TaskPriority(req.Priority),
		ExecutorID:  req.ExecutorID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// Update handles PUT /api/tasks/:id.
func (h *TasksHandler) Update(c *fiber.Ctx) error {
	var req dto.TaskUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	task, err := h.tasks.Update(c.Context(), c.Params("id"), service.TaskUpdateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// Delete handles DELETE /api/tasks/:id.
func (h *TasksHandler) Delete(c *fiber.Ctx) error {
	if err := h.tasks.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Get handles GET /api/tasks/:id.
func (h *TasksHandler) Get(c *fiber.Ctx) error {
	task, err := h.tasks.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// List handles GET /api/tasks with pagination.
func (h *TasksHandler) List(c *fiber.Ctx) error {
	tasks, err := h.tasks.List(c.Context(), c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskListResponse(tasks)})
}

// MyTasks handles GET /api/tasks/my-tasks.
func (h *TasksHandler) MyTasks(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	tasks, err := h.tasks.ListByAuthor(c.Context(), principal.User.ID, c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskListResponse(tasks)})
}

// MyTasksAuthorAndExecutor handles GET /api/tasks/my-tasks/author-and-executor.
func (h *TasksHandler) MyTasksAuthorAndExecutor(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	tasks, err := h.tasks.ListAuthoredAndExecuted(c.Context(), principal.User.ID, c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskListResponse(tasks)})
}

// SetStatus handles POST /api/tasks/:id/status.
func (h *TasksHandler) SetStatus(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	var req dto.TaskSetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	task, err := h.tasks.SetStatus(c.Context(), c.Params("id"), domain.TaskStatus(req.Status), actorID(principal))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// SetPriority handles POST /api/tasks/:id/priority.
func (h *TasksHandler) SetPriority(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	var req dto.TaskSetPriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	task, err := h.tasks.SetPriority(c.Context(), c.Params("id"), domain.TaskPriority(req.Priority), actorID(principal))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// SetExecutor handles POST /api/tasks/:id/executor/:userId.
func (h *TasksHandler) SetExecutor(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	task, err := h.tasks.SetExecutor(c.Context(), c.Params("id"), c.Params("userId"), actorID(principal))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// SetAuthor handles POST /api/tasks/:id/author/:userId.
func (h *TasksHandler) SetAuthor(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	task, err := h.tasks.SetAuthor(c.Context(), c.Params("id"), c.Params("userId"), actorID(principal))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

func actorID(principal *auth.Principal) string {
	if principal == nil || principal.User == nil {
		return ""
	}
	return principal.User.ID
}

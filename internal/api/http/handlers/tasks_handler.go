package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/acme-ops/opsboard/internal/api/dto"
	"github.com/acme-ops/opsboard/internal/service"
)

// TasksHandler exposes task CRUD.
type TasksHandler struct {
	tasks *service.TaskService
}

// NewTasksHandler constructs handler.
func NewTasksHandler(tasks *service.TaskService) *TasksHandler {
	return &TasksHandler{tasks: tasks}
}

// Create handles POST /api/tasks.
func (h *TasksHandler) Create(c *fiber.Ctx) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	input, err := taskInput(c)
	if err != nil {
		return err
	}
	task, err := h.tasks.Create(c.UserContext(), user, input)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusCreated, dto.NewTaskResponse(task))
}

// List handles GET /api/tasks.
func (h *TasksHandler) List(c *fiber.Ctx) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	tasks, err := h.tasks.List(c.UserContext(), user, service.TaskListFilter{
		ProjectID:  c.Query("project_id"),
		AssignedTo: c.Query("assigned_to"),
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		Page:       parsePage(c),
	})
	if err != nil {
		return err
	}
	items := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		items = append(items, dto.NewTaskResponse(&tasks[i]))
	}
	return data(c, fiber.StatusOK, items)
}

// Get handles GET /api/tasks/:id.
func (h *TasksHandler) Get(c *fiber.Ctx) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	task, err := h.tasks.Get(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, dto.NewTaskResponse(task))
}

// Update handles PUT /api/tasks/:id.
func (h *TasksHandler) Update(c *fiber.Ctx) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	input, err := taskInput(c)
	if err != nil {
		return err
	}
	task, err := h.tasks.Update(c.UserContext(), user, c.Params("id"), input)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, dto.NewTaskResponse(task))
}

// Delete handles DELETE /api/tasks/:id.
func (h *TasksHandler) Delete(c *fiber.Ctx) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.tasks.Delete(c.UserContext(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func taskInput(c *fiber.Ctx) (service.TaskInput, error) {
	var req dto.TaskRequest
	if err := bind(c, &req); err != nil {
		return service.TaskInput{}, err
	}
	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		return service.TaskInput{}, err
	}
	return service.TaskInput{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     due,
	}, nil
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/acme-ops/opsboard/internal/api/dto"
	"github.com/acme-ops/opsboard/internal/service"
)

// ProjectsHandler exposes project CRUD.
type ProjectsHandler struct {
	projects *service.ProjectService
}

// NewProjectsHandler constructs handler.
func NewProjectsHandler(projects *service.ProjectService) *ProjectsHandler {
	return &ProjectsHandler{projects: projects}
}

// Create handles POST /api/projects.
func (h *ProjectsHandler) Create(c *fiber.Ctx) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	input, err := projectInput(c)
	if err != nil {
		return err
	}
	project, err := h.projects.Create(c.UserContext(), user, input)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusCreated, dto.NewProjectResponse(project))
}

// List handles GET /api/projects.
func (h *ProjectsHandler) List(c *fiber.Ctx) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	projects, err := h.projects.List(c.UserContext(), user, service.ProjectListFilter{
		ManagerID: c.Query("manager_id"),
		Status:    c.Query("status"),
		Page:      parsePage(c),
	})
	if err != nil {
		return err
	}
	items := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		items = append(items, dto.NewProjectResponse(&projects[i]))
	}
	return data(c, fiber.StatusOK, items)
}

// Get handles GET /api/projects/:id.
func (h *ProjectsHandler) Get(c *fiber.Ctx) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	project, err := h.projects.Get(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, dto.NewProjectResponse(project))
}

// Update handles PUT /api/projects/:id.
func (h *ProjectsHandler) Update(c *fiber.Ctx) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	input, err := projectInput(c)
	if err != nil {
		return err
	}
	project, err := h.projects.Update(c.UserContext(), user, c.Params("id"), input)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, dto.NewProjectResponse(project))
}

// Delete handles DELETE /api/projects/:id.
func (h *ProjectsHandler) Delete(c *fiber.Ctx) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.projects.Delete(c.UserContext(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func projectInput(c *fiber.Ctx) (service.ProjectInput, error) {
	var req dto.ProjectRequest
	if err := bind(c, &req); err != nil {
		return service.ProjectInput{}, err
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return service.ProjectInput{}, err
	}
	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		return service.ProjectInput{}, err
	}
	return service.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		ManagerID:   req.ManagerID,
		Status:      req.Status,
		StartDate:   start,
		DueDate:     due,
	}, nil
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/acme-ops/opsboard/internal/api/dto"
	"github.com/acme-ops/opsboard/internal/service"
)

// TimeEntriesHandler exposes the caller's own time entries.
type TimeEntriesHandler struct {
	entries *service.TimeEntryService
}

// NewTimeEntriesHandler constructs handler.
func NewTimeEntriesHandler(entries *service.TimeEntryService) *TimeEntriesHandler {
	return &TimeEntriesHandler{entries: entries}
}

// Create handles POST /api/time-entries.
func (h *TimeEntriesHandler) Create(c *fiber.Ctx) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.TimeEntryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	entry, err := h.entries.Create(c.UserContext(), user, timeEntryInput(req))
	if err != nil {
		return err
	}
	return data(c, fiber.StatusCreated, dto.NewTimeEntryResponse(entry))
}

// List handles GET /api/time-entries?task_id=&start=&end=.
func (h *TimeEntriesHandler) List(c *fiber.Ctx) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	from, err := parseTime("start", c.Query("start"))
	if err != nil {
		return err
	}
	to, err := parseTime("end", c.Query("end"))
	if err != nil {
		return err
	}
	entries, err := h.entries.List(c.UserContext(), user, service.TimeEntryListFilter{
		TaskID: c.Query("task_id"),
		From:   from,
		To:     to,
		Page:   parsePage(c),
	})
	if err != nil {
		return err
	}
	items := make([]dto.TimeEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.NewTimeEntryResponse(&entries[i]))
	}
	return data(c, fiber.StatusOK, items)
}

// Get handles GET /api/time-entries/:id.
func (h *TimeEntriesHandler) Get(c *fiber.Ctx) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	entry, err := h.entries.Get(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, dto.NewTimeEntryResponse(entry))
}

// Update handles PUT /api/time-entries/:id.
func (h *TimeEntriesHandler) Update(c *fiber.Ctx) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.TimeEntryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	entry, err := h.entries.Update(c.UserContext(), user, c.Params("id"), timeEntryInput(req))
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, dto.NewTimeEntryResponse(entry))
}

// Delete handles DELETE /api/time-entries/:id.
func (h *TimeEntriesHandler) Delete(c *fiber.Ctx) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.entries.Delete(c.UserContext(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func timeEntryInput(req dto.TimeEntryRequest) service.TimeEntryInput {
	return service.TimeEntryInput{
		TaskID:    req.TaskID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Notes:     req.Notes,
	}
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/acme-ops/opsboard/internal/api/dto"
	"github.com/acme-ops/opsboard/internal/service"
)

// RequestsHandler exposes the time-entry request lifecycle.
type RequestsHandler struct {
	requests *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requests *service.RequestService) *RequestsHandler {
	return &RequestsHandler{requests: requests}
}

// Submit handles POST /api/requests/time-entry.
func (h *RequestsHandler) Submit(c *fiber.Ctx) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.SubmitRequestRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	created, err := h.requests.Submit(c.UserContext(), user, service.SubmitRequestInput{
		TaskID:    req.TaskID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Notes:     req.Notes,
		Priority:  req.Priority,
	})
	if err != nil {
		return err
	}
	return data(c, fiber.StatusCreated, dto.NewRequestResponse(created))
}

// List handles GET /api/requests/time-entry?status=.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	items, err := h.requests.List(c.UserContext(), user, service.RequestListFilter{
		Status: c.Query("status"),
		Page:   parsePage(c),
	})
	if err != nil {
		return err
	}
	out := make([]dto.RequestResponse, 0, len(items))
	for i := range items {
		out = append(out, dto.NewRequestListResponse(&items[i]))
	}
	return data(c, fiber.StatusOK, out)
}

// Get handles GET /api/requests/time-entry/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	found, err := h.requests.Get(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, dto.NewRequestResponse(found))
}

// Accept handles POST /api/requests/time-entry/:id/accept and returns the
// materialized time entry.
func (h *RequestsHandler) Accept(c *fiber.Ctx) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	entry, err := h.requests.Accept(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, dto.NewTimeEntryResponse(entry))
}

// Reject handles POST /api/requests/time-entry/:id/reject. The body is optional.
func (h *RequestsHandler) Reject(c *fiber.Ctx) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.RejectRequestRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}
	rejected, err := h.requests.Reject(c.UserContext(), user, c.Params("id"), req.ReviewComment)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, dto.NewRequestResponse(rejected))
}

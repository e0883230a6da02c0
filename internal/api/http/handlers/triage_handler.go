package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-triage/internal/api/dto"
	"github.com/spec-kit/ticket-triage/internal/service"
)

// TriageHandler exposes the ticket workflow.
type TriageHandler struct {
	triage *service.TriageService
}

// NewTriageHandler constructs handler.
func NewTriageHandler(triage *service.TriageService) *TriageHandler {
	return &TriageHandler{triage: triage}
}

// Triage handles POST /tickets/triage.
func (h *TriageHandler) Triage(c *fiber.Ctx) error {
	var req dto.TriageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	res, err := h.triage.ProcessTicket(c.UserContext(), service.TicketInput{
		Subject:     req.Subject,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": res})
}

// TriageBatch handles POST /tickets/triage/batch.
func (h *TriageHandler) TriageBatch(c *fiber.Ctx) error {
	var req dto.BatchTriageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	inputs := make([]service.TicketInput, len(req.Tickets))
	for i, t := range req.Tickets {
		inputs[i] = service.TicketInput{Subject: t.Subject, Description: t.Description}
	}
	results, err := h.triage.ProcessBatch(c.UserContext(), inputs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": results})
}

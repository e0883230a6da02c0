package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-triage/internal/api/dto"
	"github.com/spec-kit/ticket-triage/internal/service"
)

const defaultPageSize = 50

// EscalationsHandler lists escalated tickets for human support.
type EscalationsHandler struct {
	triage *service.TriageService
}

// NewEscalationsHandler constructs handler.
func NewEscalationsHandler(triage *service.TriageService) *EscalationsHandler {
	return &EscalationsHandler{triage: triage}
}

// List handles GET /escalations.
func (h *EscalationsHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultPageSize)
	offset := c.QueryInt("offset", 0)

	rows, err := h.triage.ListEscalations(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": rows,
		"page": dto.Page{Limit: limit, Offset: offset, Count: len(rows)},
	})
}

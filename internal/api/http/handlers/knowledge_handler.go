package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-triage/internal/service"
)

// KnowledgeHandler manages the retrieval index.
type KnowledgeHandler struct {
	triage *service.TriageService
}

// NewKnowledgeHandler constructs handler.
func NewKnowledgeHandler(triage *service.TriageService) *KnowledgeHandler {
	return &KnowledgeHandler{triage: triage}
}

// Reload handles POST /knowledge/reload.
func (h *KnowledgeHandler) Reload(c *fiber.Ctx) error {
	summary, err := h.triage.ReloadKnowledge(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

// Metrics handles GET /metrics.
func (h *KnowledgeHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.triage.Metrics()})
}

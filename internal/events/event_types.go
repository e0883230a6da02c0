package events

import (
	"time"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketApproved          EventType = "ticket_approved"
	EventTicketEscalated         EventType = "ticket_escalated"
	EventEscalationPersistFailed EventType = "escalation_persist_failed"
	EventKnowledgeReloaded       EventType = "knowledge_reloaded"
)

// Event represents a workflow event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RunID     string      `json:"run_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketApprovedPayload payload.
type TicketApprovedPayload struct {
	Subject  string          `json:"subject"`
	Category domain.Category `json:"category"`
	Attempt  int             `json:"attempt"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	Record    domain.EscalationRecord `json:"record"`
	Persisted bool                    `json:"persisted"`
	Error     string                  `json:"error,omitempty"`
}

// KnowledgeReloadedPayload payload.
type KnowledgeReloadedPayload struct {
	Categories []domain.Category `json:"categories"`
	Passages   int               `json:"passages"`
}

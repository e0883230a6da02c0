package domain

import "time"

// AttemptEntry is one attempt-keyed value in an audit trail.
type AttemptEntry struct {
	Attempt int    `json:"attempt"`
	Value   string `json:"value"`
}

// EscalationRecord is the audit row persisted when a ticket exhausts its retries.
type EscalationRecord struct {
	ID          string         `json:"id,omitempty"`
	Subject     string         `json:"subject"`
	Description string         `json:"description"`
	Categories  []AttemptEntry `json:"categories"`
	Drafts      []AttemptEntry `json:"drafts"`
	Feedback    []AttemptEntry `json:"feedback"`
	CreatedAt   time.Time      `json:"created_at,omitempty"`
}

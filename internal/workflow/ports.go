package workflow

import (
	"context"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// Classification is the Classification Port result. Fallback is set when the
// service failed and Best is the designated default category.
type Classification struct {
	Best     domain.Category
	Scores   []domain.CategoryScore
	Fallback bool
}

// Classifier assigns a ticket to a category. It never fails; service errors
// produce a fallback Classification.
type Classifier interface {
	Classify(ctx context.Context, ticket domain.Ticket) Classification
}

// RetrievalRequest carries everything the Retrieval Port needs to pick a passage band.
type RetrievalRequest struct {
	Category        domain.Category
	Ticket          domain.Ticket
	TopK            int
	Attempt         int
	CategoryChanged bool
	Scores          []domain.CategoryScore
}

// Retriever returns supporting passages ordered best-first.
type Retriever interface {
	Retrieve(ctx context.Context, req RetrievalRequest) ([]string, error)
}

// Drafter composes a candidate reply. A failure must be returned as an error,
// never as an empty string.
type Drafter interface {
	Draft(ctx context.Context, ticket domain.Ticket, category domain.Category, passages []string) (string, error)
}

// Reviewer judges a draft. Service failures and unparseable output come back
// as rejections.
type Reviewer interface {
	Review(ctx context.Context, draft string, ticket domain.Ticket, category domain.Category) domain.Verdict
}

// EscalationSink persists the audit record of a ticket that exhausted its attempts.
type EscalationSink interface {
	Append(ctx context.Context, record domain.EscalationRecord) error
}

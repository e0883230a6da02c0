package retrieval

import (
	"context"

	"github.com/spec-kit/ticket-triage/internal/workflow"
)

// Retriever serves the Retrieval Port from the store's current index.
type Retriever struct {
	store *Store
}

// NewRetriever constructs a retriever over store.
func NewRetriever(store *Store) *Retriever {
	return &Retriever{store: store}
}

// Retrieve ranks the category's passages against the ticket text and returns the band for this attempt.
func (r *Retriever) Retrieve(ctx context.Context, req workflow.RetrievalRequest) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ranked := r.store.Index().Rank(req.Category, req.Ticket.Query())
	return SelectBand(passagesOf(ranked), req.TopK, req.Attempt, req.CategoryChanged), nil
}

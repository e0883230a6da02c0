package classify

import (
	"context"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/retrieval"
	"github.com/spec-kit/ticket-triage/internal/workflow"
)

// relevanceDepth is how many top passages per category contribute to its score.
const relevanceDepth = 3

// LexicalClassifier ranks categories by how well their knowledge-base
// passages match the ticket. It needs no external service.
type LexicalClassifier struct {
	store    *retrieval.Store
	vocab    domain.Vocabulary
	fallback domain.Category
}

// NewLexicalClassifier constructs the classifier over the live index in store.
func NewLexicalClassifier(store *retrieval.Store, vocab domain.Vocabulary, fallback domain.Category) *LexicalClassifier {
	return &LexicalClassifier{store: store, vocab: vocab, fallback: fallback}
}

// Classify implements workflow.Classifier. Scores are normalized to sum to one;
// a ticket matching nothing falls back to the default category.
func (c *LexicalClassifier) Classify(ctx context.Context, ticket domain.Ticket) workflow.Classification {
	if ctx.Err() != nil {
		return workflow.Classification{Best: c.fallback, Fallback: true}
	}

	relevance := c.store.Index().Relevance(ticket.Query(), relevanceDepth)
	var total float64
	for _, s := range relevance {
		total += s.Score
	}
	if total == 0 {
		return workflow.Classification{Best: c.fallback, Fallback: true}
	}
	for i := range relevance {
		relevance[i].Score /= total
	}
	scores := normalizeScores(c.vocab, relevance)
	if len(scores) == 0 {
		return workflow.Classification{Best: c.fallback, Fallback: true}
	}
	return workflow.Classification{Best: scores[0].Label, Scores: scores}
}

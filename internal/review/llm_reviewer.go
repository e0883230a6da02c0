package review

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/llm"
)

// LLMReviewer asks a chat model to judge drafts against the support QA rules.
type LLMReviewer struct {
	chat   llm.Chatter
	model  string
	vocab  domain.Vocabulary
	parser *Parser
	logger *zap.Logger
}

// NewLLMReviewer constructs the reviewer.
func NewLLMReviewer(chat llm.Chatter, model string, vocab domain.Vocabulary, logger *zap.Logger) *LLMReviewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMReviewer{chat: chat, model: model, vocab: vocab, parser: NewParser(vocab), logger: logger}
}

// Review implements workflow.Reviewer. Service failures become rejections.
func (r *LLMReviewer) Review(ctx context.Context, draft string, ticket domain.Ticket, category domain.Category) domain.Verdict {
	out, err := r.chat.Chat(ctx, llm.ChatRequest{
		Model:    r.model,
		Messages: []llm.Message{{Role: "user", Content: r.prompt(draft, ticket, category)}},
	})
	if err != nil {
		r.logger.Warn("review service failed", zap.Error(err))
		return domain.Rejected(FeedbackServiceFailure, nil)
	}
	r.logger.Debug("raw reviewer output", zap.String("output", out))
	return r.parser.Parse(out)
}

func (r *LLMReviewer) prompt(draft string, ticket domain.Ticket, category domain.Category) string {
	query := fmt.Sprintf("subject: %s, description: %s", ticket.Subject, ticket.Description)
	return fmt.Sprintf(`You are a strict customer support quality assurance reviewer.
You must reject the draft if it violates any of these rules:

Reject if (any of the following is true):
- It offers refunds, discounts, or financial commitments
- It promises something that support cannot guarantee (overpromising)
- It gives sensitive security advice (e.g., password resets, authentication bypass)
- It is rude, unprofessional, or unclear
- It is inaccurate or unhelpful
- It doesn't answer the user's query, i.e. gives an irrelevant answer
- It gives wrong security advice

Approve if:
- It is accurate, helpful, polite, and compliant with the rules above.
- It accurately answers the user's query: %s
- It gives a solution or accurate answer to the user's query

The ticket was filed under the category "%s". Valid categories: %s.

Here is the draft response:

--- DRAFT START ---
%s
--- DRAFT END ---

Respond with ONLY one of the following:
- "Approved"
- "Rejected: <feedback (a short one line reason for rejecting)>"
- "Rejected: <correct category> - <feedback>" when the ticket belongs to a different category
`, query, category, strings.Join(r.vocab.Strings(), ", "), draft)
}

package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/llm"
	"github.com/spec-kit/ticket-triage/internal/workflow"
)

var definitions = map[domain.Category]string{
	domain.CategoryBilling:   "Anything about payments, invoices, refunds, subscriptions, or charges",
	domain.CategoryTechnical: "Bugs, errors, features not working, installation issues",
	domain.CategorySecurity:  "Account breaches, password reset, suspicious activity, account hacked",
	domain.CategoryGeneral:   "Other inquiries not covered above or like talking to the support team",
}

// LLMClassifier performs zero-shot classification through a chat model.
type LLMClassifier struct {
	chat     llm.Chatter
	model    string
	vocab    domain.Vocabulary
	fallback domain.Category
	logger   *zap.Logger
}

// NewLLMClassifier constructs the classifier. fallback is returned whenever the model fails.
func NewLLMClassifier(chat llm.Chatter, model string, vocab domain.Vocabulary, fallback domain.Category, logger *zap.Logger) *LLMClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMClassifier{chat: chat, model: model, vocab: vocab, fallback: fallback, logger: logger}
}

type zeroShotResult struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// Classify implements workflow.Classifier.
func (c *LLMClassifier) Classify(ctx context.Context, ticket domain.Ticket) workflow.Classification {
	out, err := c.chat.Chat(ctx, llm.ChatRequest{
		Model:    c.model,
		Messages: []llm.Message{{Role: "user", Content: c.prompt(ticket)}},
	})
	if err == nil {
		var scores []domain.CategoryScore
		if scores, err = c.parse(out); err == nil {
			return workflow.Classification{Best: scores[0].Label, Scores: scores}
		}
	}
	c.logger.Warn("classification failed", zap.Error(err))
	return workflow.Classification{Best: c.fallback, Fallback: true}
}

func (c *LLMClassifier) parse(out string) ([]domain.CategoryScore, error) {
	start, end := strings.Index(out, "{"), strings.LastIndex(out, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in classifier output %q", out)
	}
	var res zeroShotResult
	if err := json.Unmarshal([]byte(out[start:end+1]), &res); err != nil {
		return nil, fmt.Errorf("decode classifier output: %w", err)
	}
	if len(res.Labels) == 0 || len(res.Labels) != len(res.Scores) {
		return nil, errors.New("classifier output has mismatched labels and scores")
	}

	raw := make([]domain.CategoryScore, len(res.Labels))
	known := false
	for i, l := range res.Labels {
		raw[i] = domain.CategoryScore{Label: domain.Category(l), Score: res.Scores[i]}
		if _, ok := c.vocab.Lookup(l); ok {
			known = true
		}
	}
	if !known {
		return nil, errors.New("classifier returned no known category")
	}
	return normalizeScores(c.vocab, raw), nil
}

func (c *LLMClassifier) prompt(ticket domain.Ticket) string {
	var defs strings.Builder
	for _, cat := range c.vocab {
		if d, ok := definitions[cat]; ok {
			fmt.Fprintf(&defs, "- %s: %s\n", cat, d)
		} else {
			fmt.Fprintf(&defs, "- %s\n", cat)
		}
	}
	return fmt.Sprintf(`You are a support ticket classifier.
Score how well this ticket fits each category from: %s.

Definitions:
%s
Ticket:
Subject: %s
Description: %s

Respond with ONLY a JSON object of the form {"labels": [...], "scores": [...]}
listing every category once, best match first, with scores summing to 1.
`, strings.Join(c.vocab.Strings(), ", "), defs.String(), ticket.Subject, ticket.Description)
}

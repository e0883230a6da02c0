package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/llm"
)

// LLMDrafter asks a chat model to write the reply from the retrieved passages.
type LLMDrafter struct {
	chat  llm.Chatter
	model string
}

// NewLLMDrafter constructs the drafter.
func NewLLMDrafter(chat llm.Chatter, model string) *LLMDrafter {
	return &LLMDrafter{chat: chat, model: model}
}

// Draft implements workflow.Drafter. Service errors and empty completions are returned as errors.
func (d *LLMDrafter) Draft(ctx context.Context, ticket domain.Ticket, category domain.Category, passages []string) (string, error) {
	out, err := d.chat.Chat(ctx, llm.ChatRequest{
		Model: d.model,
		Messages: []llm.Message{
			{Role: "system", Content: "You write polite, professional customer support replies. Use only the reference material provided. Never promise refunds, discounts or outcomes support cannot guarantee."},
			{Role: "user", Content: prompt(ticket, category, passages)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("draft completion: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return "", errors.New("draft completion returned no text")
	}
	return out, nil
}

func prompt(ticket domain.Ticket, category domain.Category, passages []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s\nSubject: %s\nDescription: %s\n\n", category, ticket.Subject, ticket.Description)
	if len(passages) == 0 {
		b.WriteString("No reference material was found. Say so explicitly and ask the customer for more details.\n")
		return b.String()
	}
	b.WriteString("Reference material (use every item):\n")
	for _, p := range passages {
		b.WriteString("- ")
		b.WriteString(p)
		b.WriteString("\n")
	}
	return b.String()
}

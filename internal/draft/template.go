package draft

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// TemplateDrafter composes replies from passages without a language model.
type TemplateDrafter struct{}

// NewTemplateDrafter constructs the drafter.
func NewTemplateDrafter() *TemplateDrafter {
	return &TemplateDrafter{}
}

// Draft implements workflow.Drafter.
func (d *TemplateDrafter) Draft(ctx context.Context, ticket domain.Ticket, category domain.Category, passages []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	topic := strings.ToLower(string(category))

	if len(passages) == 0 {
		return fmt.Sprintf("Thank you for reaching out. I see your request is related to %s. "+
			"Unfortunately, I couldn't find specific details in our resources about '%s'. "+
			"Please check our Help Center or provide more information so we can assist you further. "+
			"We truly appreciate your patience.", topic, ticket.Subject), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for reaching out. I understand your request is related to the %s category.\n\n", topic)
	b.WriteString("Here's some information that may help you:\n")
	for _, p := range passages {
		b.WriteString("- ")
		b.WriteString(p)
		b.WriteString("\n")
	}
	b.WriteString("\nI hope this information is useful. If you have any other questions, feel free to let us know. ")
	b.WriteString("We're always happy to assist.")
	return b.String(), nil
}

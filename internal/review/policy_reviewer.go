package review

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// categoryHints are keywords that strongly suggest a category.
var categoryHints = map[domain.Category][]string{
	domain.CategoryBilling:   {"invoice", "refund", "charge", "charged", "payment", "subscription", "billed", "billing"},
	domain.CategoryTechnical: {"error", "crash", "crashes", "bug", "install", "installation", "broken", "app"},
	domain.CategorySecurity:  {"hacked", "breach", "suspicious", "password", "2fa", "login", "compromised"},
}

type policyRule struct {
	pattern  *regexp.Regexp
	feedback string
}

var policyRules = []policyRule{
	{regexp.MustCompile(`(?i)\b(we|i)\s*(will|'ll|can)\s+(issue\s+(you\s+)?(a\s+)?|give\s+you\s+(a\s+)?)?(refund|reimburse|discount|credit)`), "Offers refunds, discounts, or financial commitments"},
	{regexp.MustCompile(`(?i)\b(guarantee|guaranteed|promise)\b`), "Promises something support cannot guarantee"},
	{regexp.MustCompile(`(?i)\b(send|give|email|tell)\s+(us|me)\s+your\s+(password|2fa|code)`), "Gives sensitive security advice"},
	{regexp.MustCompile(`(?i)couldn.t find specific details`), "Does not answer the user's query"},
}

// PolicyReviewer applies the QA rules locally without a model. It emits
// verdicts in the reviewer grammar and runs them through the same Parser.
type PolicyReviewer struct {
	parser *Parser
}

// NewPolicyReviewer constructs an offline reviewer.
func NewPolicyReviewer(vocab domain.Vocabulary) *PolicyReviewer {
	return &PolicyReviewer{parser: NewParser(vocab)}
}

// Review implements workflow.Reviewer.
func (r *PolicyReviewer) Review(ctx context.Context, draft string, ticket domain.Ticket, category domain.Category) domain.Verdict {
	if err := ctx.Err(); err != nil {
		return domain.Rejected(FeedbackServiceFailure, nil)
	}
	return r.parser.Parse(r.judge(draft, ticket, category))
}

func (r *PolicyReviewer) judge(draft string, ticket domain.Ticket, category domain.Category) string {
	if hinted, ok := hintedCategory(ticket); ok && !hinted.EqualFold(category) {
		return fmt.Sprintf("Rejected: %s - Ticket content points to a different category", hinted)
	}
	for _, rule := range policyRules {
		if rule.pattern.MatchString(draft) {
			return "Rejected: " + rule.feedback
		}
	}
	return "Approved"
}

// hintedCategory returns the category whose keywords appear most often in
// the ticket, if any appear at all. Ties are not a hint.
func hintedCategory(ticket domain.Ticket) (domain.Category, bool) {
	words := strings.FieldsFunc(strings.ToLower(ticket.Query()), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	counts := make(map[domain.Category]int)
	for _, w := range words {
		for c, hints := range categoryHints {
			for _, h := range hints {
				if w == h {
					counts[c]++
				}
			}
		}
	}

	var best domain.Category
	bestCount, tied := 0, false
	for _, c := range domain.DefaultCategories {
		switch n := counts[c]; {
		case n > bestCount:
			best, bestCount, tied = c, n, false
		case n == bestCount && n > 0:
			tied = true
		}
	}
	return best, bestCount > 0 && !tied
}

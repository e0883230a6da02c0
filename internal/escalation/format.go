package escalation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// Header is the column layout of the escalation file.
var Header = []string{"subject", "description", "final_category", "failed_drafts", "review_feedbacks"}

// Row is one escalation in its persisted, column-serialized form.
type Row struct {
	ID              string     `json:"id,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
	Subject         string     `json:"subject"`
	Description     string     `json:"description"`
	FinalCategory   string     `json:"final_category"`
	FailedDrafts    string     `json:"failed_drafts"`
	ReviewFeedbacks string     `json:"review_feedbacks"`
}

// ToRow serializes a record into the persisted column format.
func ToRow(r domain.EscalationRecord) Row {
	return Row{
		Subject:         r.Subject,
		Description:     r.Description,
		FinalCategory:   FormatCategories(r.Categories),
		FailedDrafts:    FormatDrafts(r.Drafts),
		ReviewFeedbacks: FormatFeedback(r.Feedback),
	}
}

func (r Row) columns() []string {
	return []string{r.Subject, r.Description, r.FinalCategory, r.FailedDrafts, r.ReviewFeedbacks}
}

// FormatCategories renders the per-attempt category map as a JSON object in attempt order.
func FormatCategories(entries []domain.AttemptEntry) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			b.WriteString(", ")
		}
		v, _ := json.Marshal(e.Value)
		fmt.Fprintf(&b, "%q: %s", strconv.Itoa(e.Attempt), v)
	}
	b.WriteByte('}')
	return b.String()
}

// FormatDrafts joins drafts as "attempt: text" separated by semicolons.
func FormatDrafts(entries []domain.AttemptEntry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%d: %s", e.Attempt, e.Value)
	}
	return strings.Join(parts, "; ")
}

// FormatFeedback joins feedback as "Attempt N: text" separated by semicolons.
func FormatFeedback(entries []domain.AttemptEntry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("Attempt %d: %s", e.Attempt, e.Value)
	}
	return strings.Join(parts, "; ")
}

package domain

import "strings"

// Category is a label from the fixed triage vocabulary.
type Category string

const (
	CategoryBilling   Category = "Billing"
	CategoryTechnical Category = "Technical"
	CategorySecurity  Category = "Security"
	CategoryGeneral   Category = "General"
)

// DefaultCategories is the vocabulary used when none is configured.
var DefaultCategories = []Category{CategoryBilling, CategoryTechnical, CategorySecurity, CategoryGeneral}

// EqualFold reports whether two categories name the same label, ignoring case.
func (c Category) EqualFold(other Category) bool {
	return strings.EqualFold(string(c), string(other))
}

// Ticket is a user-submitted support request. It is never mutated after creation.
type Ticket struct {
	Subject     string
	Description string
}

// Query returns the text used for classification and retrieval.
func (t Ticket) Query() string {
	return t.Subject + " " + t.Description
}

// CategoryScore pairs a label with its classification confidence.
type CategoryScore struct {
	Label Category `json:"label"`
	Score float64  `json:"score"`
}

// ReviewStatus enumerates the review outcome of a ticket run.
type ReviewStatus string

const (
	ReviewStatusUnset     ReviewStatus = ""
	ReviewStatusApproved  ReviewStatus = "Approved"
	ReviewStatusRejected  ReviewStatus = "Rejected"
	ReviewStatusEscalated ReviewStatus = "Escalated"
)

// Vocabulary is an ordered category set with case-insensitive lookup.
type Vocabulary []Category

// Lookup returns the canonical spelling of label if it belongs to the vocabulary.
func (v Vocabulary) Lookup(label string) (Category, bool) {
	label = strings.TrimSpace(label)
	for _, c := range v {
		if strings.EqualFold(string(c), label) {
			return c, true
		}
	}
	return "", false
}

// Strings returns the labels as plain strings.
func (v Vocabulary) Strings() []string {
	out := make([]string, len(v))
	for i, c := range v {
		out[i] = string(c)
	}
	return out
}

// ParseVocabulary builds a vocabulary from a comma separated list, skipping blanks and duplicates.
func ParseVocabulary(csv string) Vocabulary {
	var out Vocabulary
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, dup := out.Lookup(part); dup {
			continue
		}
		out = append(out, Category(part))
	}
	return out
}

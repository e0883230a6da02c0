package workflow

import (
	"fmt"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

const (
	// MaxAttempts bounds the number of draft/review cycles per ticket.
	MaxAttempts = 3
	// switchAttempt is the attempt counter value at which the category falls
	// back to the runner-up classification label (preparing the third attempt).
	switchAttempt = 2
)

// AttemptLog is an append-only, insertion-ordered map keyed by 1-based attempt number.
type AttemptLog[T any] struct {
	keys   []int
	values []T
}

// Put records v for attempt. Keys must be strictly increasing; existing entries are never replaced.
func (l *AttemptLog[T]) Put(attempt int, v T) error {
	if attempt < 1 {
		return fmt.Errorf("attempt %d out of range", attempt)
	}
	if n := len(l.keys); n > 0 && attempt <= l.keys[n-1] {
		return fmt.Errorf("attempt %d already recorded (last %d)", attempt, l.keys[n-1])
	}
	l.keys = append(l.keys, attempt)
	l.values = append(l.values, v)
	return nil
}

// Get returns the value recorded for attempt.
func (l *AttemptLog[T]) Get(attempt int) (T, bool) {
	for i, k := range l.keys {
		if k == attempt {
			return l.values[i], true
		}
	}
	var zero T
	return zero, false
}

// Last returns the most recently recorded value.
func (l *AttemptLog[T]) Last() (T, bool) {
	if len(l.values) == 0 {
		var zero T
		return zero, false
	}
	return l.values[len(l.values)-1], true
}

// Len returns the number of recorded attempts.
func (l *AttemptLog[T]) Len() int {
	return len(l.keys)
}

// Entries returns a copy of the log in insertion order, formatting values with format.
func (l *AttemptLog[T]) Entries(format func(T) string) []domain.AttemptEntry {
	out := make([]domain.AttemptEntry, len(l.keys))
	for i, k := range l.keys {
		out[i] = domain.AttemptEntry{Attempt: k, Value: format(l.values[i])}
	}
	return out
}

// TicketState is the per-ticket bookkeeping owned by a single Engine.Process call.
// It is created fresh for every ticket and never shared between runs.
type TicketState struct {
	ticket          domain.Ticket
	attempt         int
	categories      AttemptLog[domain.Category]
	scores          []domain.CategoryScore
	categoryChanged bool
	docs            []string
	drafts          AttemptLog[string]
	status          domain.ReviewStatus
	feedback        AttemptLog[string]

	// pending holds a reviewer-proposed category for the next attempt until Refine commits it.
	pending *domain.Category
}

func newTicketState(ticket domain.Ticket) *TicketState {
	return &TicketState{ticket: ticket}
}

// Ticket returns the ticket being processed.
func (s *TicketState) Ticket() domain.Ticket { return s.ticket }

// Attempt returns the rejection counter, always within [0, MaxAttempts].
func (s *TicketState) Attempt() int { return s.attempt }

// CategoryChanged reports whether the upcoming retrieval uses a new category.
func (s *TicketState) CategoryChanged() bool { return s.categoryChanged }

// Status returns the current review status.
func (s *TicketState) Status() domain.ReviewStatus { return s.status }

// CategoryFor returns the category recorded for a 1-based attempt.
func (s *TicketState) CategoryFor(attempt int) (domain.Category, bool) {
	return s.categories.Get(attempt)
}

// DraftFor returns the draft recorded for a 1-based attempt.
func (s *TicketState) DraftFor(attempt int) (string, bool) {
	return s.drafts.Get(attempt)
}

// Docs returns a copy of the passages retrieved for the current attempt.
func (s *TicketState) Docs() []string {
	return append([]string(nil), s.docs...)
}

// Scores returns a copy of the ranked classification scores.
func (s *TicketState) Scores() []domain.CategoryScore {
	return append([]domain.CategoryScore(nil), s.scores...)
}

func (s *TicketState) recordClassification(best domain.Category, scores []domain.CategoryScore) error {
	s.scores = append([]domain.CategoryScore(nil), scores...)
	return s.categories.Put(1, best)
}

// recordRejection stores feedback for the current attempt, stages a reviewer
// correction for the next one and advances the counter.
func (s *TicketState) recordRejection(v domain.Verdict) error {
	current := s.attempt + 1
	s.status = domain.ReviewStatusRejected
	if err := s.feedback.Put(current, v.Feedback); err != nil {
		return err
	}
	used, _ := s.categories.Get(current)
	if v.CorrectCategory != nil && !v.CorrectCategory.EqualFold(used) {
		next := *v.CorrectCategory
		s.pending = &next
		s.categoryChanged = true
	} else {
		s.pending = nil
		s.categoryChanged = false
	}
	s.attempt++
	return nil
}

func (s *TicketState) recordApproval() {
	s.status = domain.ReviewStatusApproved
	s.attempt = 0
	s.pending = nil
}

// prepareNextCategory commits the category for the upcoming attempt.
// A reviewer correction wins; otherwise the runner-up label is used when
// preparing the third attempt; otherwise the previous category carries forward.
func (s *TicketState) prepareNextCategory() (domain.Category, error) {
	prev, ok := s.categories.Get(s.attempt)
	if !ok {
		return "", &PreconditionError{Step: StepRefine, Missing: "category", Attempt: s.attempt}
	}

	next := prev
	switch {
	case s.pending != nil:
		next = *s.pending
		s.categoryChanged = true
	case s.attempt == switchAttempt:
		if len(s.scores) >= 2 && s.scores[1].Label != "" {
			next = s.scores[1].Label
		}
		s.categoryChanged = !next.EqualFold(prev)
	default:
		s.categoryChanged = false
	}
	s.pending = nil

	if err := s.categories.Put(s.attempt+1, next); err != nil {
		return "", err
	}
	return next, nil
}

func (s *TicketState) escalationRecord() domain.EscalationRecord {
	return domain.EscalationRecord{
		Subject:     s.ticket.Subject,
		Description: s.ticket.Description,
		Categories:  s.categories.Entries(categoryString),
		Drafts:      s.drafts.Entries(identity),
		Feedback:    s.feedback.Entries(identity),
	}
}

// FinalState is the read-only outcome handed back to callers of Engine.Process.
type FinalState struct {
	Subject         string                 `json:"subject"`
	Description     string                 `json:"description"`
	Attempt         int                    `json:"attempt"`
	Category        domain.Category        `json:"category"`
	Categories      []domain.AttemptEntry  `json:"categories"`
	Scores          []domain.CategoryScore `json:"classification_scores"`
	Docs            []string               `json:"docs"`
	Drafts          []domain.AttemptEntry  `json:"drafts"`
	Feedback        []domain.AttemptEntry  `json:"review_feedback"`
	ReviewStatus    domain.ReviewStatus    `json:"review_status"`
	CategoryChanged bool                   `json:"category_changed"`
}

func (s *TicketState) snapshot() *FinalState {
	last, _ := s.categories.Last()
	return &FinalState{
		Subject:         s.ticket.Subject,
		Description:     s.ticket.Description,
		Attempt:         s.attempt,
		Category:        last,
		Categories:      s.categories.Entries(categoryString),
		Scores:          s.Scores(),
		Docs:            s.Docs(),
		Drafts:          s.drafts.Entries(identity),
		Feedback:        s.feedback.Entries(identity),
		ReviewStatus:    s.status,
		CategoryChanged: s.categoryChanged,
	}
}

func categoryString(c domain.Category) string { return string(c) }

func identity(s string) string { return s }

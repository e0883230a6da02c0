package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrPrecondition marks a violated sequencing contract. It indicates a bug, not bad input.
	ErrPrecondition = errors.New("workflow precondition violated")
	// ErrEscalationNotPersisted is returned together with an Escalated FinalState
	// when the escalation sink could not store the audit record.
	ErrEscalationNotPersisted = errors.New("escalation record not persisted")
	// ErrDraftFailed wraps a Draft Port failure.
	ErrDraftFailed = errors.New("draft generation failed")
)

// PreconditionError names the missing piece of state and the attempt it was expected for.
type PreconditionError struct {
	Step    Step
	Missing string
	Attempt int
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s missing for attempt %d before %s", ErrPrecondition, e.Missing, e.Attempt, e.Step)
}

func (e *PreconditionError) Unwrap() error {
	return ErrPrecondition
}

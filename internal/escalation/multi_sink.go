package escalation

import (
	"context"
	"errors"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/workflow"
)

// MultiSink appends to every sink and reports all failures together.
type MultiSink []workflow.EscalationSink

// Append implements workflow.EscalationSink.
func (m MultiSink) Append(ctx context.Context, record domain.EscalationRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.Append(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

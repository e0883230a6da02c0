package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/escalation"
	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/observability"
	"github.com/spec-kit/ticket-triage/internal/retrieval"
	"github.com/spec-kit/ticket-triage/internal/workflow"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

// MaxBatchSize caps the number of tickets accepted in one batch call.
const MaxBatchSize = 100

// Processor runs one ticket through the workflow.
type Processor interface {
	Process(ctx context.Context, ticket domain.Ticket) (*workflow.FinalState, error)
}

// EscalationReader pages through persisted escalations.
type EscalationReader interface {
	List(ctx context.Context, limit, offset int) ([]escalation.Row, error)
}

// TicketInput is a ticket submitted for triage.
type TicketInput struct {
	Subject     string
	Description string
}

// TriageResult is the outcome of one ticket run.
type TriageResult struct {
	RunID string               `json:"run_id"`
	State *workflow.FinalState `json:"state,omitempty"`
	Error string               `json:"error,omitempty"`
}

// KnowledgeSummary describes the index currently in service.
type KnowledgeSummary struct {
	Categories []domain.Category `json:"categories"`
	Passages   int               `json:"passages"`
}

// TriageService coordinates ticket runs, escalation listing and knowledge reloads.
type TriageService struct {
	engine      Processor
	knowledge   *retrieval.Store
	escalations EscalationReader
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	parallelism int
	newRunID    func() string
}

// TriageDependencies bundles collaborators for the triage service.
type TriageDependencies struct {
	Engine      Processor
	Knowledge   *retrieval.Store
	Escalations EscalationReader
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Parallelism int
}

// NewTriageService constructs the service.
func NewTriageService(deps TriageDependencies) *TriageService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	parallelism := deps.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}
	return &TriageService{
		engine:      deps.Engine,
		knowledge:   deps.Knowledge,
		escalations: deps.Escalations,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger,
		parallelism: parallelism,
		newRunID:    uuid.NewString,
	}
}

// ProcessTicket runs one ticket to approval or escalation. The run is
// detached from cancellation of ctx; only port timeouts bound it.
func (s *TriageService) ProcessTicket(ctx context.Context, input TicketInput) (*TriageResult, error) {
	ticket, err := validateTicket(input)
	if err != nil {
		return nil, err
	}
	res := s.run(ctx, ticket)
	if res.State == nil {
		return nil, apperrors.NewInternalError(errors.New(res.Error))
	}
	return res, nil
}

// ProcessBatch runs every ticket concurrently, each with its own workflow
// state. Results keep the input order; a failing ticket does not affect the others.
func (s *TriageService) ProcessBatch(ctx context.Context, inputs []TicketInput) ([]TriageResult, error) {
	if len(inputs) == 0 {
		return nil, apperrors.NewValidationError("at least one ticket is required", nil)
	}
	if len(inputs) > MaxBatchSize {
		return nil, apperrors.NewValidationError("too many tickets", map[string]any{"max": MaxBatchSize})
	}
	tickets := make([]domain.Ticket, len(inputs))
	for i, in := range inputs {
		t, err := validateTicket(in)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid ticket", map[string]any{"index": i})
		}
		tickets[i] = t
	}

	results := make([]TriageResult, len(tickets))
	var g errgroup.Group
	g.SetLimit(s.parallelism)
	for i, t := range tickets {
		g.Go(func() error {
			results[i] = *s.run(ctx, t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *TriageService) run(ctx context.Context, ticket domain.Ticket) *TriageResult {
	runID := s.newRunID()
	ctx = workflow.WithRunID(context.WithoutCancel(ctx), runID)
	logger := s.logger.With(zap.String("ticket_run_id", runID))

	start := time.Now()
	state, err := s.engine.Process(ctx, ticket)
	res := &TriageResult{RunID: runID, State: state}

	switch {
	case err == nil:
	case errors.Is(err, workflow.ErrEscalationNotPersisted) && state != nil:
		res.Error = err.Error()
	default:
		logger.Error("ticket run failed", zap.Error(err))
		res.State = nil
		res.Error = err.Error()
		s.metrics.RecordOutcome("Failed", 0, time.Since(start))
		return res
	}

	s.metrics.RecordOutcome(string(state.ReviewStatus), approvedAttempt(state), time.Since(start))
	s.publishOutcome(ctx, runID, state, err)
	logger.Info("ticket run finished",
		zap.String("status", string(state.ReviewStatus)),
		zap.String("category", string(state.Category)),
		zap.Int("drafts", len(state.Drafts)))
	return res
}

func (s *TriageService) publishOutcome(ctx context.Context, runID string, state *workflow.FinalState, persistErr error) {
	switch state.ReviewStatus {
	case domain.ReviewStatusApproved:
		s.publishEvent(ctx, events.Event{
			Type:  events.EventTicketApproved,
			RunID: runID,
			Payload: events.TicketApprovedPayload{
				Subject:  state.Subject,
				Category: state.Category,
				Attempt:  approvedAttempt(state),
			},
		})
	case domain.ReviewStatusEscalated:
		payload := events.TicketEscalatedPayload{
			Record: domain.EscalationRecord{
				Subject:     state.Subject,
				Description: state.Description,
				Categories:  state.Categories,
				Drafts:      state.Drafts,
				Feedback:    state.Feedback,
			},
			Persisted: persistErr == nil,
		}
		if persistErr != nil {
			payload.Error = persistErr.Error()
			s.publishEvent(ctx, events.Event{Type: events.EventEscalationPersistFailed, RunID: runID, Payload: payload})
		}
		s.publishEvent(ctx, events.Event{Type: events.EventTicketEscalated, RunID: runID, Payload: payload})
	}
}

// ListEscalations pages through the escalation audit trail.
func (s *TriageService) ListEscalations(ctx context.Context, limit, offset int) ([]escalation.Row, error) {
	if s.escalations == nil {
		return nil, apperrors.NewUnavailable("escalation store not configured", nil)
	}
	if limit < 0 || offset < 0 {
		return nil, apperrors.NewValidationError("limit and offset must not be negative", nil)
	}
	return s.escalations.List(ctx, limit, offset)
}

// ReloadKnowledge rebuilds the retrieval index from disk and swaps it in.
func (s *TriageService) ReloadKnowledge(ctx context.Context) (*KnowledgeSummary, error) {
	if s.knowledge == nil {
		return nil, apperrors.NewUnavailable("knowledge store not configured", nil)
	}
	ix, err := s.knowledge.Reload(ctx)
	if err != nil {
		return nil, err
	}
	summary := &KnowledgeSummary{Categories: ix.Categories(), Passages: ix.Len()}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventKnowledgeReloaded,
		Payload: events.KnowledgeReloadedPayload{Categories: summary.Categories, Passages: summary.Passages},
	})
	return summary, nil
}

// Metrics returns the current counters.
func (s *TriageService) Metrics() observability.MetricsSnapshot {
	return s.metrics.Snapshot()
}

func (s *TriageService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func validateTicket(in TicketInput) (domain.Ticket, error) {
	t := domain.Ticket{Subject: strings.TrimSpace(in.Subject), Description: strings.TrimSpace(in.Description)}
	if t.Subject == "" && t.Description == "" {
		return domain.Ticket{}, apperrors.NewValidationError("subject or description is required", nil)
	}
	return t, nil
}

// approvedAttempt returns the 1-based attempt whose draft was approved, or 0.
func approvedAttempt(state *workflow.FinalState) int {
	if state.ReviewStatus != domain.ReviewStatusApproved || len(state.Drafts) == 0 {
		return 0
	}
	return state.Drafts[len(state.Drafts)-1].Attempt
}

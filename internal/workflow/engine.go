package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// Step names a state of the ticket workflow.
type Step int

const (
	StepClassify Step = iota
	StepRetrieve
	StepDraft
	StepReview
	StepRefine
	StepEscalate
	StepDone
)

var stepNames = [...]string{"classify", "retrieve", "draft", "review", "refine", "escalate", "done"}

func (s Step) String() string {
	if int(s) < len(stepNames) {
		return stepNames[s]
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// maxSteps bounds a single run: classify, MaxAttempts full cycles plus refines, escalate.
const maxSteps = 1 + MaxAttempts*4 + 1

// Observer is called after every completed step. It must not retain the state.
type Observer func(step Step, state *TicketState)

// Dependencies bundles the ports used by the engine.
type Dependencies struct {
	Classifier Classifier
	Retriever  Retriever
	Drafter    Drafter
	Reviewer   Reviewer
	Sink       EscalationSink
	Logger     *zap.Logger
}

// Options tunes engine behavior.
type Options struct {
	TopK            int
	PortTimeout     time.Duration
	DefaultCategory domain.Category
	Observer        Observer
}

// Engine sequences classification, retrieval, drafting and review for one
// ticket at a time per call. An Engine holds no per-ticket state and is safe
// for concurrent use.
type Engine struct {
	classifier      Classifier
	retriever       Retriever
	drafter         Drafter
	reviewer        Reviewer
	sink            EscalationSink
	logger          *zap.Logger
	topK            int
	portTimeout     time.Duration
	defaultCategory domain.Category
	observer        Observer
}

// NewEngine constructs the workflow engine.
func NewEngine(deps Dependencies, opts Options) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.DefaultCategory == "" {
		opts.DefaultCategory = domain.CategoryGeneral
	}
	return &Engine{
		classifier:      deps.Classifier,
		retriever:       deps.Retriever,
		drafter:         deps.Drafter,
		reviewer:        deps.Reviewer,
		sink:            deps.Sink,
		logger:          logger,
		topK:            opts.TopK,
		portTimeout:     opts.PortTimeout,
		defaultCategory: opts.DefaultCategory,
		observer:        opts.Observer,
	}
}

// stepResult is what a step hands to the transition function.
type stepResult struct {
	verdict *domain.Verdict
}

// transition maps the finished step and its verdict to the next step.
func transition(step Step, res stepResult, attempt int) Step {
	switch step {
	case StepClassify:
		return StepRetrieve
	case StepRetrieve:
		return StepDraft
	case StepDraft:
		if res.verdict != nil {
			return afterRejection(attempt)
		}
		return StepReview
	case StepReview:
		if res.verdict != nil && res.verdict.IsApproved() {
			return StepDone
		}
		return afterRejection(attempt)
	case StepRefine:
		return StepRetrieve
	default:
		return StepDone
	}
}

// afterRejection holds the single loop-exit predicate.
func afterRejection(attempt int) Step {
	if attempt >= MaxAttempts {
		return StepEscalate
	}
	return StepRefine
}

// Process runs a ticket through the workflow until it is approved or escalated.
//
// A nil FinalState with an ErrPrecondition error means the sequencing contract
// was broken. A non-nil FinalState with ErrEscalationNotPersisted means the
// ticket escalated but its audit row was not stored.
func (e *Engine) Process(ctx context.Context, ticket domain.Ticket) (*FinalState, error) {
	st := newTicketState(ticket)
	logger := e.logger.With(zap.String("ticket_run_id", RunIDFromContext(ctx)))

	var persistErr error
	step := StepClassify
	for steps := 0; step != StepDone; steps++ {
		if steps >= maxSteps {
			return nil, fmt.Errorf("%w: step budget exhausted at %s", ErrPrecondition, step)
		}

		var (
			res stepResult
			err error
		)
		switch step {
		case StepClassify:
			err = e.classify(ctx, st, logger)
		case StepRetrieve:
			err = e.retrieve(ctx, st, logger)
		case StepDraft:
			res, err = e.draft(ctx, st, logger)
		case StepReview:
			res, err = e.review(ctx, st, logger)
		case StepRefine:
			err = e.refine(st, logger)
		case StepEscalate:
			persistErr = e.escalate(ctx, st, logger)
		}
		if err != nil {
			logger.Error("workflow aborted", zap.Stringer("step", step), zap.Error(err))
			return nil, err
		}

		category, _ := st.categories.Last()
		logger.Debug("workflow step",
			zap.Stringer("state", step),
			zap.Int("attempt", st.attempt),
			zap.String("category", string(category)),
			zap.Bool("category_changed", st.categoryChanged),
			zap.String("status", string(st.status)))
		if e.observer != nil {
			e.observer(step, st)
		}
		step = transition(step, res, st.attempt)
	}

	return st.snapshot(), persistErr
}

func (e *Engine) portContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.portTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.portTimeout)
}

func (e *Engine) classify(ctx context.Context, st *TicketState, logger *zap.Logger) error {
	cctx, cancel := e.portContext(ctx)
	defer cancel()

	result := e.classifier.Classify(cctx, st.ticket)
	best := result.Best
	if best == "" {
		best = e.defaultCategory
	}
	if result.Fallback {
		logger.Warn("classification fell back to default category", zap.String("category", string(best)))
	}
	logger.Info("ticket classified", zap.String("category", string(best)), zap.Int("candidates", len(result.Scores)))
	return st.recordClassification(best, result.Scores)
}

func (e *Engine) retrieve(ctx context.Context, st *TicketState, logger *zap.Logger) error {
	current := st.attempt + 1
	category, ok := st.categories.Get(current)
	if !ok {
		return &PreconditionError{Step: StepRetrieve, Missing: "category", Attempt: current}
	}

	rctx, cancel := e.portContext(ctx)
	defer cancel()

	docs, err := e.retriever.Retrieve(rctx, RetrievalRequest{
		Category:        category,
		Ticket:          st.ticket,
		TopK:            e.topK,
		Attempt:         st.attempt,
		CategoryChanged: st.categoryChanged,
		Scores:          st.Scores(),
	})
	if err != nil {
		logger.Warn("retrieval failed; drafting without supporting material", zap.Error(err))
		docs = nil
	}
	st.docs = docs
	st.categoryChanged = false
	return nil
}

func (e *Engine) draft(ctx context.Context, st *TicketState, logger *zap.Logger) (stepResult, error) {
	current := st.attempt + 1
	category, ok := st.categories.Get(current)
	if !ok {
		return stepResult{}, &PreconditionError{Step: StepDraft, Missing: "category", Attempt: current}
	}

	dctx, cancel := e.portContext(ctx)
	defer cancel()

	text, err := e.drafter.Draft(dctx, st.ticket, category, st.Docs())
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty draft")
	}
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrDraftFailed, err)
		logger.Error("draft generation failed", zap.Int("attempt", current), zap.Error(err))
		verdict := domain.Rejected(capitalize(err.Error()), nil)
		if rerr := st.recordRejection(verdict); rerr != nil {
			return stepResult{}, rerr
		}
		return stepResult{verdict: &verdict}, nil
	}
	if err := st.drafts.Put(current, text); err != nil {
		return stepResult{}, err
	}
	return stepResult{}, nil
}

func (e *Engine) review(ctx context.Context, st *TicketState, logger *zap.Logger) (stepResult, error) {
	current := st.attempt + 1
	draft, ok := st.drafts.Get(current)
	if !ok || draft == "" {
		return stepResult{}, &PreconditionError{Step: StepReview, Missing: "draft", Attempt: current}
	}
	category, _ := st.categories.Get(current)

	rctx, cancel := e.portContext(ctx)
	defer cancel()

	verdict := e.reviewer.Review(rctx, draft, st.ticket, category)
	if verdict.IsApproved() {
		st.recordApproval()
		logger.Info("draft approved", zap.Int("attempt", current))
		return stepResult{verdict: &verdict}, nil
	}

	if err := st.recordRejection(verdict); err != nil {
		return stepResult{}, err
	}
	fields := []zap.Field{zap.Int("attempt", current), zap.String("feedback", verdict.Feedback)}
	if verdict.CorrectCategory != nil {
		fields = append(fields, zap.String("proposed_category", string(*verdict.CorrectCategory)))
	}
	logger.Info("draft rejected", fields...)
	return stepResult{verdict: &verdict}, nil
}

func (e *Engine) refine(st *TicketState, logger *zap.Logger) error {
	next, err := st.prepareNextCategory()
	if err != nil {
		return err
	}
	logger.Debug("category prepared for next attempt",
		zap.Int("next_attempt", st.attempt+1),
		zap.String("category", string(next)),
		zap.Bool("category_changed", st.categoryChanged))
	return nil
}

func (e *Engine) escalate(ctx context.Context, st *TicketState, logger *zap.Logger) error {
	st.attempt = 0
	record := st.escalationRecord()
	st.status = domain.ReviewStatusEscalated

	logger.Warn("escalating ticket to human support",
		zap.Int("drafts", len(record.Drafts)),
		zap.Int("feedback", len(record.Feedback)))

	if e.sink == nil {
		return fmt.Errorf("%w: no escalation sink configured", ErrEscalationNotPersisted)
	}

	sctx, cancel := e.portContext(ctx)
	defer cancel()

	if err := e.sink.Append(sctx, record); err != nil {
		logger.Error("failed to persist escalation record", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrEscalationNotPersisted, err)
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type runIDKey struct{}

// WithRunID attaches a run identifier used to correlate log lines of one ticket.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the run identifier, or an empty string.
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

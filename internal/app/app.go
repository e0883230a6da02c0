package app

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-triage/internal/api/http"
	"github.com/spec-kit/ticket-triage/internal/api/http/handlers"
	"github.com/spec-kit/ticket-triage/internal/auth"
	"github.com/spec-kit/ticket-triage/internal/classify"
	"github.com/spec-kit/ticket-triage/internal/config"
	"github.com/spec-kit/ticket-triage/internal/draft"
	"github.com/spec-kit/ticket-triage/internal/escalation"
	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/llm"
	"github.com/spec-kit/ticket-triage/internal/observability"
	"github.com/spec-kit/ticket-triage/internal/persistence"
	"github.com/spec-kit/ticket-triage/internal/repository"
	"github.com/spec-kit/ticket-triage/internal/retrieval"
	"github.com/spec-kit/ticket-triage/internal/review"
	"github.com/spec-kit/ticket-triage/internal/service"
	"github.com/spec-kit/ticket-triage/internal/worker"
	"github.com/spec-kit/ticket-triage/internal/workflow"
)

// App holds every long-lived component of the service.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Postgres   *persistence.Postgres
	Redis      *persistence.Redis
	Knowledge  *retrieval.Store
	Engine     *workflow.Engine
	Triage     *service.TriageService
	Auth       *service.AuthService
	Tokens     *auth.TokenManager
	Metrics    *observability.Metrics
	Dispatcher events.Dispatcher
}

// Build connects optional backends, loads the knowledge base and assembles
// the workflow engine with the port implementations selected in cfg.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger, Metrics: observability.NewMetrics()}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a.Postgres = pg
	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
			a.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	a.Redis = persistence.NewRedis(ctx, cfg.Redis, logger)

	a.Knowledge = retrieval.NewStore(cfg.Knowledge.Path, logger)
	if _, err := a.Knowledge.Reload(ctx); err != nil {
		logger.Warn("knowledge base unavailable; drafts will carry no supporting material",
			zap.String("path", cfg.Knowledge.Path), zap.Error(err))
	}

	var chat llm.Chatter
	if cfg.Triage.UsesLLM() {
		if cfg.LLM.APIKey == "" {
			logger.Warn("no LLM API key configured; model-backed ports will fall back")
		}
		chat = llm.NewClient(cfg.LLM.APIKey,
			llm.WithBaseURL(cfg.LLM.BaseURL),
			llm.WithAttribution(cfg.LLM.AppReferer, cfg.LLM.AppTitle),
		)
	}

	vocab := cfg.Triage.Categories
	fallback := cfg.Triage.DefaultCategory

	var classifier workflow.Classifier
	switch cfg.Triage.Classifier {
	case "lexical":
		classifier = classify.NewLexicalClassifier(a.Knowledge, vocab, fallback)
	default:
		classifier = classify.NewLLMClassifier(chat, cfg.LLM.ClassifyModel, vocab, fallback, logger)
	}
	if a.Redis.Enabled() {
		classifier = classify.NewCachedClassifier(classifier, classify.NewRedisCache(a.Redis.Client), cfg.Redis.ClassifyTTL(), logger)
	}

	var drafter workflow.Drafter
	switch cfg.Triage.Drafter {
	case "llm":
		drafter = draft.NewLLMDrafter(chat, cfg.LLM.DraftModel)
	default:
		drafter = draft.NewTemplateDrafter()
	}

	var reviewer workflow.Reviewer
	switch cfg.Triage.Reviewer {
	case "policy":
		reviewer = review.NewPolicyReviewer(vocab)
	default:
		reviewer = review.NewLLMReviewer(chat, cfg.LLM.ReviewModel, vocab, logger)
	}

	var (
		sinks  escalation.MultiSink
		reader service.EscalationReader
	)
	if cfg.Escalation.CSVPath != "" {
		csvSink := escalation.NewCSVSink(cfg.Escalation.CSVPath)
		sinks = append(sinks, csvSink)
		reader = csvSink
	}
	if pg.Enabled() {
		repo := repository.NewEscalationRepository(pg.PoolHandle())
		sinks = append(sinks, repo)
		reader = repo
	}
	var sink workflow.EscalationSink
	if len(sinks) > 0 {
		sink = sinks
	}

	a.Engine = workflow.NewEngine(workflow.Dependencies{
		Classifier: classifier,
		Retriever:  retrieval.NewRetriever(a.Knowledge),
		Drafter:    drafter,
		Reviewer:   reviewer,
		Sink:       sink,
		Logger:     logger,
	}, workflow.Options{
		TopK:            cfg.Triage.TopK,
		PortTimeout:     cfg.Triage.PortTimeout(),
		DefaultCategory: fallback,
	})

	a.Dispatcher = events.NewInMemoryDispatcher()
	var publisher service.Publisher
	if a.Redis.Enabled() {
		publisher = a.Redis.Client
	}
	worker.StartNotificationWorker(service.NewNotificationService(service.NotificationDependencies{
		Dispatcher: a.Dispatcher,
		Publisher:  publisher,
		Channel:    cfg.Redis.EscalationChannel,
		Logger:     logger,
		Config:     cfg.Notification,
	}))

	a.Triage = service.NewTriageService(service.TriageDependencies{
		Engine:      a.Engine,
		Knowledge:   a.Knowledge,
		Escalations: reader,
		Dispatcher:  a.Dispatcher,
		Metrics:     a.Metrics,
		Logger:      logger,
		Parallelism: cfg.Triage.BatchParallelism,
	})

	a.Tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	a.Auth = service.NewAuthService(cfg.Auth, a.Tokens)
	return a, nil
}

// HTTP builds the fiber application serving the triage API. Operator routes
// require a bearer token only when an operator password hash is configured.
func (a *App) HTTP() *fiber.App {
	server := fiber.New(fiber.Config{
		AppName:               a.Config.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(server, a.Logger, a.Metrics, a.Config.App.RequestTimeout())

	var authMiddleware *auth.AuthMiddleware
	if a.Config.Auth.OperatorPasswordHash != "" {
		authMiddleware = auth.NewAuthMiddleware(a.Tokens)
	} else {
		a.Logger.Warn("OPERATOR_PASSWORD_HASH not set; triage routes are unauthenticated")
	}

	httptransport.RegisterRoutes(server, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(a.Config.App.Name, a.Config.App.Version, a.Postgres, a.Redis, a.Knowledge),
		Triage:         handlers.NewTriageHandler(a.Triage),
		Escalations:    handlers.NewEscalationsHandler(a.Triage),
		Knowledge:      handlers.NewKnowledgeHandler(a.Triage),
		Auth:           handlers.NewAuthHandler(a.Auth),
		AuthMiddleware: authMiddleware,
	})
	return server
}

// Close releases backend connections.
func (a *App) Close() {
	a.Redis.Close()
	a.Postgres.Close()
}

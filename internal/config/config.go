package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	LLM          LLMConfig
	Triage       TriageConfig
	Knowledge    KnowledgeConfig
	Escalation   EscalationConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr              string
	Password          string
	DB                int
	ClassifyTTLSecs   int
	EscalationChannel string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines operator authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	OperatorUsername      string
	OperatorPasswordHash  string
}

// LLMConfig points the classification, drafting and review ports at an
// OpenAI-compatible chat endpoint.
type LLMConfig struct {
	BaseURL       string
	APIKey        string
	ClassifyModel string
	DraftModel    string
	ReviewModel   string
	AppReferer    string
	AppTitle      string
}

// TriageConfig tunes the workflow and selects port implementations.
type TriageConfig struct {
	Categories         domain.Vocabulary
	DefaultCategory    domain.Category
	TopK               int
	PortTimeoutSeconds int
	Classifier         string
	Drafter            string
	Reviewer           string
	BatchParallelism   int
}

// KnowledgeConfig locates the knowledge base. A positive reload interval
// rebuilds the index periodically.
type KnowledgeConfig struct {
	Path                  string
	ReloadIntervalSeconds int
}

// EscalationConfig locates the escalation audit file.
type EscalationConfig struct {
	CSVPath string
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	vocab := domain.ParseVocabulary(getEnv("TRIAGE_CATEGORIES", strings.Join(domain.Vocabulary(domain.DefaultCategories).Strings(), ",")))
	if len(vocab) == 0 {
		return nil, fmt.Errorf("TRIAGE_CATEGORIES must name at least one category")
	}
	fallback, ok := vocab.Lookup(getEnv("TRIAGE_DEFAULT_CATEGORY", string(domain.CategoryGeneral)))
	if !ok {
		return nil, fmt.Errorf("TRIAGE_DEFAULT_CATEGORY must be one of %s", strings.Join(vocab.Strings(), ", "))
	}

	triage := TriageConfig{
		Categories:         vocab,
		DefaultCategory:    fallback,
		TopK:               getEnvAsInt("TRIAGE_TOP_K", 3),
		PortTimeoutSeconds: getEnvAsInt("TRIAGE_PORT_TIMEOUT_SECONDS", 30),
		Classifier:         strings.ToLower(getEnv("TRIAGE_CLASSIFIER", "llm")),
		Drafter:            strings.ToLower(getEnv("TRIAGE_DRAFTER", "template")),
		Reviewer:           strings.ToLower(getEnv("TRIAGE_REVIEWER", "llm")),
		BatchParallelism:   getEnvAsInt("TRIAGE_BATCH_PARALLELISM", 4),
	}
	if triage.TopK <= 0 {
		return nil, fmt.Errorf("invalid TRIAGE_TOP_K: %d", triage.TopK)
	}
	if err := oneOf("TRIAGE_CLASSIFIER", triage.Classifier, "llm", "lexical"); err != nil {
		return nil, err
	}
	if err := oneOf("TRIAGE_DRAFTER", triage.Drafter, "template", "llm"); err != nil {
		return nil, err
	}
	if err := oneOf("TRIAGE_REVIEWER", triage.Reviewer, "llm", "policy"); err != nil {
		return nil, err
	}

	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENROUTER_API_KEY")
	}
	defaultModel := getEnv("LLM_MODEL", "mistralai/mistral-7b-instruct:free")

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-triage"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 300),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:              os.Getenv("REDIS_ADDR"),
			Password:          os.Getenv("REDIS_PASSWORD"),
			DB:                redisDB,
			ClassifyTTLSecs:   getEnvAsInt("REDIS_CLASSIFY_TTL_SECONDS", 3600),
			EscalationChannel: getEnv("REDIS_ESCALATION_CHANNEL", "triage:escalations"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			OperatorUsername:      getEnv("OPERATOR_USERNAME", "operator"),
			OperatorPasswordHash:  os.Getenv("OPERATOR_PASSWORD_HASH"),
		},
		LLM: LLMConfig{
			BaseURL:       getEnv("LLM_BASE_URL", "https://openrouter.ai/api/v1"),
			APIKey:        apiKey,
			ClassifyModel: getEnv("LLM_CLASSIFY_MODEL", defaultModel),
			DraftModel:    getEnv("LLM_DRAFT_MODEL", defaultModel),
			ReviewModel:   getEnv("LLM_REVIEW_MODEL", defaultModel),
			AppReferer:    getEnv("LLM_APP_REFERER", "http://localhost"),
			AppTitle:      getEnv("LLM_APP_TITLE", "Support Ticket Triage"),
		},
		Triage: triage,
		Knowledge: KnowledgeConfig{
			Path:                  getEnv("KB_PATH", "knowledgebase"),
			ReloadIntervalSeconds: getEnvAsInt("KB_RELOAD_INTERVAL_SECONDS", 0),
		},
		Escalation: EscalationConfig{
			CSVPath: getEnv("ESCALATION_CSV_PATH", "escalations.csv"),
		},
		Notification: NotificationConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// PortTimeout returns the per-call deadline applied to each workflow port.
func (t TriageConfig) PortTimeout() time.Duration {
	if t.PortTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(t.PortTimeoutSeconds) * time.Second
}

// ReloadInterval returns the periodic reload interval, zero when disabled.
func (k KnowledgeConfig) ReloadInterval() time.Duration {
	if k.ReloadIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(k.ReloadIntervalSeconds) * time.Second
}

// ClassifyTTL returns how long cached classifications live.
func (r RedisConfig) ClassifyTTL() time.Duration {
	return time.Duration(r.ClassifyTTLSecs) * time.Second
}

// UsesLLM reports whether any selected port needs the chat endpoint.
func (t TriageConfig) UsesLLM() bool {
	return t.Classifier == "llm" || t.Drafter == "llm" || t.Reviewer == "llm"
}

func oneOf(key, val string, allowed ...string) error {
	for _, a := range allowed {
		if val == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q: want one of %s", key, val, strings.Join(allowed, ", "))
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

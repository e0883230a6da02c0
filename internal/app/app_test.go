package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/ticket-triage/internal/auth"
	"github.com/spec-kit/ticket-triage/internal/config"
	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/escalation"
	"github.com/spec-kit/ticket-triage/internal/service"
)

func offlineConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	kb := filepath.Join(dir, "kb")
	if err := os.Mkdir(kb, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"billing.txt":  "Download your invoice from the billing page.\nInvoices are issued on the first day of each month.\n",
		"security.txt": "We guarantee account recovery after a password reset.\nSuspicious logins are guaranteed to trigger an alert.\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(kb, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	return &config.Config{
		App: config.AppConfig{Name: "ticket-triage-test", Version: "test"},
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 5,
			OperatorUsername:      "ops",
		},
		Triage: config.TriageConfig{
			Categories:       domain.Vocabulary(domain.DefaultCategories),
			DefaultCategory:  domain.CategoryGeneral,
			TopK:             3,
			Classifier:       "lexical",
			Drafter:          "template",
			Reviewer:         "policy",
			BatchParallelism: 2,
		},
		Knowledge:  config.KnowledgeConfig{Path: kb},
		Escalation: config.EscalationConfig{CSVPath: filepath.Join(dir, "escalations.csv")},
	}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func call(t *testing.T, server *fiber.App, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := server.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

func buildOffline(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := Build(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func TestOfflineTriageApprovesAndEscalates(t *testing.T) {
	cfg := offlineConfig(t)
	a := buildOffline(t, cfg)
	server := a.HTTP()

	status, env := call(t, server, http.MethodPost, "/tickets/triage", "", map[string]string{
		"subject":     "Invoice download",
		"description": "Where can I download my invoice?",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var approved service.TriageResult
	if err := json.Unmarshal(env.Data, &approved); err != nil {
		t.Fatal(err)
	}
	if approved.State.ReviewStatus != domain.ReviewStatusApproved || approved.State.Category != domain.CategoryBilling {
		t.Fatalf("expected Billing approval, got %+v", approved.State)
	}
	if approved.RunID == "" {
		t.Fatal("expected run id")
	}

	status, env = call(t, server, http.MethodPost, "/tickets/triage", "", map[string]string{
		"subject":     "Account hacked",
		"description": "Someone changed my password",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var escalated service.TriageResult
	if err := json.Unmarshal(env.Data, &escalated); err != nil {
		t.Fatal(err)
	}
	st := escalated.State
	if st.ReviewStatus != domain.ReviewStatusEscalated || st.Attempt != 0 || len(st.Feedback) != 3 {
		t.Fatalf("expected escalation after three rejections, got %+v", st)
	}
	if st.Categories[2].Value != string(domain.CategoryBilling) {
		t.Fatalf("expected runner-up category on attempt 3, got %+v", st.Categories)
	}

	status, env = call(t, server, http.MethodGet, "/escalations", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var rows []escalation.Row
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Subject != "Account hacked" {
		t.Fatalf("unexpected escalation rows %+v", rows)
	}
	if rows[0].FinalCategory != `{"1": "Security", "2": "Security", "3": "Billing"}` {
		t.Fatalf("unexpected category column %q", rows[0].FinalCategory)
	}

	snap := a.Metrics.Snapshot()
	if snap.Outcomes["Approved"] != 1 || snap.Outcomes["Escalated"] != 1 {
		t.Fatalf("unexpected outcomes %+v", snap.Outcomes)
	}
}

func TestOfflineBatchAndValidation(t *testing.T) {
	server := buildOffline(t, offlineConfig(t)).HTTP()

	status, env := call(t, server, http.MethodPost, "/tickets/triage/batch", "", map[string]any{
		"tickets": []map[string]string{
			{"subject": "Invoice download", "description": "Where can I download my invoice?"},
			{"subject": "Account hacked", "description": "Someone changed my password"},
		},
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var results []service.TriageResult
	if err := json.Unmarshal(env.Data, &results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 ||
		results[0].State.ReviewStatus != domain.ReviewStatusApproved ||
		results[1].State.ReviewStatus != domain.ReviewStatusEscalated {
		t.Fatalf("unexpected batch results %+v", results)
	}

	status, env = call(t, server, http.MethodPost, "/tickets/triage", "", map[string]string{})
	if status != http.StatusBadRequest || env.Error == nil || env.Error.Code != "VALIDATION_FAILED" {
		t.Fatalf("expected validation failure, got %d %+v", status, env.Error)
	}

	status, _ = call(t, server, http.MethodGet, "/nope", "", nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestKnowledgeReloadAndHealth(t *testing.T) {
	cfg := offlineConfig(t)
	server := buildOffline(t, cfg).HTTP()

	if err := os.WriteFile(filepath.Join(cfg.Knowledge.Path, "technical.txt"), []byte("Reinstall the app after a crash.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	status, env := call(t, server, http.MethodPost, "/knowledge/reload", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var summary service.KnowledgeSummary
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Passages != 5 || len(summary.Categories) != 3 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	if status, _ := call(t, server, http.MethodGet, "/health/ready", "", nil); status != http.StatusOK {
		t.Fatalf("expected ready with optional backends disabled, got %d", status)
	}
	if status, _ := call(t, server, http.MethodGet, "/health/live", "", nil); status != http.StatusOK {
		t.Fatalf("expected live, got %d", status)
	}
}

func TestOperatorAuthGuardsRoutes(t *testing.T) {
	cfg := offlineConfig(t)
	hash, err := auth.HashPassword("hunter2", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Auth.OperatorPasswordHash = hash
	server := buildOffline(t, cfg).HTTP()

	status, env := call(t, server, http.MethodGet, "/metrics", "", nil)
	if status != http.StatusUnauthorized || env.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("expected 401, got %d", status)
	}

	status, env = call(t, server, http.MethodPost, "/auth/login", "", map[string]string{"username": "ops", "password": "hunter2"})
	if status != http.StatusOK {
		t.Fatalf("expected login 200, got %d", status)
	}
	var tok struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &tok); err != nil || tok.Token == "" {
		t.Fatalf("expected token, got %s %v", env.Data, err)
	}

	if status, _ := call(t, server, http.MethodGet, "/metrics", tok.Token, nil); status != http.StatusOK {
		t.Fatalf("expected metrics with token, got %d", status)
	}

	if status, _ := call(t, server, http.MethodPost, "/auth/login", "", map[string]string{"username": "ops", "password": "nope"}); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", status)
	}
}

package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"TRIAGE_CATEGORIES", "TRIAGE_DEFAULT_CATEGORY", "TRIAGE_TOP_K", "TRIAGE_CLASSIFIER", "TRIAGE_DRAFTER", "TRIAGE_REVIEWER", "LLM_API_KEY", "OPENROUTER_API_KEY", "REDIS_ADDR"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := domain.Vocabulary{"Billing", "Technical", "Security", "General"}
	if diff := cmp.Diff(want, cfg.Triage.Categories); diff != "" {
		t.Fatalf("vocabulary mismatch (-want +got):\n%s", diff)
	}
	if cfg.Triage.DefaultCategory != domain.CategoryGeneral {
		t.Fatalf("expected General fallback, got %q", cfg.Triage.DefaultCategory)
	}
	if cfg.Triage.TopK != 3 {
		t.Fatalf("expected top k 3, got %d", cfg.Triage.TopK)
	}
	if cfg.Triage.PortTimeout() != 30*time.Second {
		t.Fatalf("unexpected port timeout %s", cfg.Triage.PortTimeout())
	}
	if cfg.Redis.Addr != "" {
		t.Fatalf("expected redis disabled by default, got %q", cfg.Redis.Addr)
	}
	if cfg.Escalation.CSVPath != "escalations.csv" {
		t.Fatalf("unexpected csv path %q", cfg.Escalation.CSVPath)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TRIAGE_CATEGORIES", "Billing, Shipping ,billing")
	t.Setenv("TRIAGE_DEFAULT_CATEGORY", "shipping")
	t.Setenv("TRIAGE_TOP_K", "5")
	t.Setenv("TRIAGE_CLASSIFIER", "Lexical")
	t.Setenv("TRIAGE_REVIEWER", "policy")
	t.Setenv("TRIAGE_DRAFTER", "template")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "or-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(domain.Vocabulary{"Billing", "Shipping"}, cfg.Triage.Categories); diff != "" {
		t.Fatalf("vocabulary mismatch (-want +got):\n%s", diff)
	}
	if cfg.Triage.DefaultCategory != "Shipping" {
		t.Fatalf("expected canonical Shipping, got %q", cfg.Triage.DefaultCategory)
	}
	if cfg.Triage.Classifier != "lexical" || cfg.Triage.UsesLLM() {
		t.Fatalf("expected lexical classifier without llm, got %+v", cfg.Triage)
	}
	if cfg.LLM.APIKey != "or-key" {
		t.Fatalf("expected OPENROUTER_API_KEY fallback, got %q", cfg.LLM.APIKey)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown default": {"TRIAGE_CATEGORIES": "Billing", "TRIAGE_DEFAULT_CATEGORY": "General"},
		"bad classifier":  {"TRIAGE_CLASSIFIER": "magic"},
		"bad top k":       {"TRIAGE_TOP_K": "-1"},
		"bad redis db":    {"REDIS_DB": "x"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

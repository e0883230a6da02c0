package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func offlineEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	kb := filepath.Join(dir, "kb")
	if err := os.Mkdir(kb, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(kb, "billing.txt"), []byte("Download your invoice from the billing page.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	for k, v := range map[string]string{
		"KB_PATH":                 kb,
		"ESCALATION_CSV_PATH":     filepath.Join(dir, "escalations.csv"),
		"TRIAGE_CLASSIFIER":       "lexical",
		"TRIAGE_DRAFTER":          "template",
		"TRIAGE_REVIEWER":         "policy",
		"TRIAGE_CATEGORIES":       "",
		"TRIAGE_DEFAULT_CATEGORY": "",
		"POSTGRES_DSN":            "",
		"REDIS_ADDR":              "",
		"LOG_LEVEL":               "error",
	} {
		t.Setenv(k, v)
	}
	return kb
}

func TestProcessCommand(t *testing.T) {
	offlineEnv(t)
	out, err := execute(t, "process", "--subject", "Invoice download", "--description", "Where can I download my invoice?")
	if err != nil {
		t.Fatalf("process: %v\n%s", err, out)
	}
	for _, want := range []string{"Status:   Approved", "Category: Billing", "Draft 1:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestEscalationsCommandEmpty(t *testing.T) {
	offlineEnv(t)
	escalationsFlags.limit, escalationsFlags.offset = 50, 0
	out, err := execute(t, "escalations")
	if err != nil {
		t.Fatalf("escalations: %v", err)
	}
	if !strings.Contains(out, "No escalations.") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestKBCheckCommand(t *testing.T) {
	kb := offlineEnv(t)
	out, err := execute(t, "kb-check", "--path", kb, "--category", "billing", "--query", "invoice")
	if err != nil {
		t.Fatalf("kb-check: %v", err)
	}
	for _, want := range []string{"Passages: 1", "Billing: 1", "- Download your invoice from the billing page."} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestHashPasswordCommand(t *testing.T) {
	out, err := execute(t, "hash-password", "--cost", "4", "hunter2")
	if err != nil {
		t.Fatalf("hash-password: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("hunter2")); err != nil {
		t.Fatalf("hash does not verify: %v", err)
	}
}

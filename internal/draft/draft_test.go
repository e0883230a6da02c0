package draft

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/llm"
)

var ticket = domain.Ticket{Subject: "Refund status", Description: "When will my refund arrive?"}

func TestTemplateDrafter_IncludesEveryPassage(t *testing.T) {
	passages := []string{"Refunds are processed within 5-7 business days.", "Contact billing support for payment failures."}
	got, err := NewTemplateDrafter().Draft(context.Background(), ticket, domain.CategoryBilling, passages)
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	for _, p := range passages {
		if !strings.Contains(got, "- "+p) {
			t.Errorf("draft missing passage %q", p)
		}
	}
	if !strings.Contains(got, "related to the billing category") {
		t.Errorf("draft does not mention the category: %q", got)
	}
}

func TestTemplateDrafter_NoPassages(t *testing.T) {
	got, err := NewTemplateDrafter().Draft(context.Background(), ticket, domain.CategoryBilling, nil)
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if !strings.Contains(got, "couldn't find specific details") || !strings.Contains(got, "'Refund status'") {
		t.Errorf("draft = %q", got)
	}
}

type fakeChat struct {
	reply string
	err   error
	req   llm.ChatRequest
}

func (f *fakeChat) Chat(_ context.Context, req llm.ChatRequest) (string, error) {
	f.req = req
	return f.reply, f.err
}

func TestLLMDrafter(t *testing.T) {
	chat := &fakeChat{reply: "Your refund is on its way."}
	got, err := NewLLMDrafter(chat, "draft-model").Draft(context.Background(), ticket, domain.CategoryBilling, []string{"Refunds take 5-7 days."})
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if got != "Your refund is on its way." {
		t.Errorf("draft = %q", got)
	}
	if chat.req.Model != "draft-model" || !strings.Contains(chat.req.Messages[1].Content, "- Refunds take 5-7 days.") {
		t.Errorf("request = %+v", chat.req)
	}
}

func TestLLMDrafter_NoPassagesPrompt(t *testing.T) {
	chat := &fakeChat{reply: "We could not find material."}
	if _, err := NewLLMDrafter(chat, "").Draft(context.Background(), ticket, domain.CategoryBilling, nil); err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if !strings.Contains(chat.req.Messages[1].Content, "No reference material was found") {
		t.Errorf("prompt = %q", chat.req.Messages[1].Content)
	}
}

func TestLLMDrafter_Failures(t *testing.T) {
	if _, err := NewLLMDrafter(&fakeChat{err: errors.New("boom")}, "").Draft(context.Background(), ticket, "Billing", nil); err == nil {
		t.Error("expected service error")
	}
	if _, err := NewLLMDrafter(&fakeChat{reply: "  "}, "").Draft(context.Background(), ticket, "Billing", nil); err == nil {
		t.Error("expected error for empty completion")
	}
}

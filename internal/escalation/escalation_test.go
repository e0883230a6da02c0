package escalation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/workflow"
)

func sampleRecord(subject string) domain.EscalationRecord {
	return domain.EscalationRecord{
		Subject:     subject,
		Description: "Card charged twice, refund please",
		Categories: []domain.AttemptEntry{
			{Attempt: 1, Value: "Billing"},
			{Attempt: 2, Value: "Billing"},
			{Attempt: 3, Value: "Security"},
		},
		Drafts: []domain.AttemptEntry{
			{Attempt: 1, Value: "Draft one"},
			{Attempt: 2, Value: "Draft, two"},
			{Attempt: 3, Value: "Draft \"three\""},
		},
		Feedback: []domain.AttemptEntry{
			{Attempt: 1, Value: "Too vague"},
			{Attempt: 2, Value: "Still vague"},
			{Attempt: 3, Value: "Wrong tone"},
		},
	}
}

func TestFormatColumns(t *testing.T) {
	row := ToRow(sampleRecord("Refund"))

	want := Row{
		Subject:         "Refund",
		Description:     "Card charged twice, refund please",
		FinalCategory:   `{"1": "Billing", "2": "Billing", "3": "Security"}`,
		FailedDrafts:    `1: Draft one; 2: Draft, two; 3: Draft "three"`,
		ReviewFeedbacks: "Attempt 1: Too vague; Attempt 2: Still vague; Attempt 3: Wrong tone",
	}
	if diff := cmp.Diff(want, row); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatEmpty(t *testing.T) {
	if got := FormatCategories(nil); got != "{}" {
		t.Fatalf("expected {}, got %q", got)
	}
	if got := FormatDrafts(nil); got != "" {
		t.Fatalf("expected empty drafts, got %q", got)
	}
	if got := FormatFeedback(nil); got != "" {
		t.Fatalf("expected empty feedback, got %q", got)
	}
}

func TestCSVSinkWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "escalations.csv")
	sink := NewCSVSink(path)
	ctx := context.Background()

	for _, subject := range []string{"first", "second"} {
		if err := sink.Append(ctx, sampleRecord(subject)); err != nil {
			t.Fatalf("append %s: %v", subject, err)
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if n := strings.Count(string(raw), strings.Join(Header, ",")); n != 1 {
		t.Fatalf("expected header once, found %d times", n)
	}

	rows, err := sink.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if diff := cmp.Diff(ToRow(sampleRecord("first")), rows[0]); diff != "" {
		t.Fatalf("first row mismatch (-want +got):\n%s", diff)
	}
	if rows[1].Subject != "second" {
		t.Fatalf("expected second row last, got %q", rows[1].Subject)
	}
}

func TestCSVSinkConcurrentFirstAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "escalations.csv")
	// Two sinks on the same path exercise the file lock, not only the mutex.
	sinks := []*CSVSink{NewCSVSink(path), NewCSVSink(path)}

	const writers = 16
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- sinks[i%2].Append(context.Background(), sampleRecord(fmt.Sprintf("ticket-%d", i)))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if n := strings.Count(string(raw), strings.Join(Header, ",")); n != 1 {
		t.Fatalf("expected header once, found %d times", n)
	}
	rows, err := sinks[0].List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != writers {
		t.Fatalf("expected %d rows, got %d", writers, len(rows))
	}
}

func TestCSVSinkListPages(t *testing.T) {
	sink := NewCSVSink(filepath.Join(t.TempDir(), "escalations.csv"))
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := sink.Append(ctx, sampleRecord(fmt.Sprintf("t%d", i))); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	rows, err := sink.List(ctx, 2, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got []string
	for _, r := range rows {
		got = append(got, r.Subject)
	}
	if diff := cmp.Diff([]string{"t1", "t2"}, got); diff != "" {
		t.Fatalf("page mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVSinkListMissingFile(t *testing.T) {
	sink := NewCSVSink(filepath.Join(t.TempDir(), "none.csv"))
	rows, err := sink.List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestCSVSinkUnwritablePath(t *testing.T) {
	sink := NewCSVSink(filepath.Join(t.TempDir(), "missing-dir", "escalations.csv"))
	if err := sink.Append(context.Background(), sampleRecord("x")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

type recordingSink struct {
	records []domain.EscalationRecord
	err     error
}

func (s *recordingSink) Append(_ context.Context, r domain.EscalationRecord) error {
	s.records = append(s.records, r)
	return s.err
}

func TestMultiSinkFansOut(t *testing.T) {
	boom := errors.New("boom")
	a := &recordingSink{}
	b := &recordingSink{err: boom}
	c := &recordingSink{}

	err := MultiSink{a, b, c}.Append(context.Background(), sampleRecord("fan"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to wrap boom, got %v", err)
	}
	for i, s := range []*recordingSink{a, b, c} {
		if len(s.records) != 1 {
			t.Fatalf("sink %d: expected 1 record, got %d", i, len(s.records))
		}
	}

	var _ workflow.EscalationSink = MultiSink{}
	if err := (MultiSink{a}).Append(context.Background(), sampleRecord("ok")); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

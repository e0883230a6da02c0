package retrieval

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/workflow"
)

func TestStore_ReloadSwapsIndex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "billing.txt"), "Refunds take 5-7 days.\n")

	store := NewStore(dir, nil)
	if store.Index().Len() != 0 {
		t.Fatal("new store should serve an empty index")
	}
	ix, err := store.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if store.Index() != ix || ix.Len() != 1 {
		t.Fatalf("index not swapped in, len=%d", store.Index().Len())
	}

	writeFile(t, filepath.Join(dir, "general.txt"), "Visit our Help Center.\n")
	if _, err := store.Reload(context.Background()); err != nil {
		t.Fatalf("second Reload: %v", err)
	}
	if got := store.Index().Len(); got != 2 {
		t.Errorf("Len after reload = %d, want 2", got)
	}
}

func TestStore_ReloadWithoutPath(t *testing.T) {
	if _, err := NewStore("", nil).Reload(context.Background()); err == nil {
		t.Fatal("expected error without a path")
	}
}

func TestStore_ConcurrentReadsDuringSwap(t *testing.T) {
	store := NewStore("", nil)
	small := NewIndex(&KnowledgeBase{Sections: []Section{{Category: "Billing", Passages: []string{"a1", "a2"}}}})
	large := NewIndex(&KnowledgeBase{Sections: []Section{{Category: "Billing", Passages: []string{"b1", "b2", "b3", "b4"}}}})
	store.Swap(small)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				n := len(store.Index().Rank("Billing", "query"))
				if n != 2 && n != 4 {
					t.Errorf("observed partially built index with %d passages", n)
					return
				}
			}
		}()
	}
	for j := 0; j < 100; j++ {
		if j%2 == 0 {
			store.Swap(large)
		} else {
			store.Swap(small)
		}
	}
	wg.Wait()
}

func TestRetriever_BandsAcrossAttempts(t *testing.T) {
	store := NewStore("", nil)
	store.Swap(NewIndex(sampleKnowledgeBase()))
	r := NewRetriever(store)
	tk := domain.Ticket{Subject: "Invoice", Description: "where is my billing invoice"}

	first, err := r.Retrieve(context.Background(), workflow.RetrievalRequest{Category: domain.CategoryBilling, Ticket: tk, TopK: 3})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("first band = %v, want 3 passages", first)
	}

	retry, err := r.Retrieve(context.Background(), workflow.RetrievalRequest{Category: domain.CategoryBilling, Ticket: tk, TopK: 3, Attempt: 1})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(retry) != 1 {
		t.Fatalf("second band = %v, want the single remaining passage", retry)
	}
	for _, p := range first {
		if p == retry[0] {
			t.Errorf("retry repeated passage %q", p)
		}
	}

	changed, err := r.Retrieve(context.Background(), workflow.RetrievalRequest{Category: domain.CategorySecurity, Ticket: tk, TopK: 3, Attempt: 1, CategoryChanged: true})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(changed) != 3 {
		t.Errorf("category change band = %v, want top 3", changed)
	}
}

func TestRetriever_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRetriever(NewStore("", nil)).Retrieve(ctx, workflow.RetrievalRequest{TopK: 3}); err == nil {
		t.Fatal("expected context error")
	}
}

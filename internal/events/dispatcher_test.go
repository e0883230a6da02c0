package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcherDeliversToAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")

	var calls []string
	d.Subscribe(EventTicketEscalated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return boom
	})
	d.Subscribe(EventTicketEscalated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventTicketApproved, func(context.Context, Event) error {
		calls = append(calls, "approved")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketEscalated})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("unexpected calls %v", calls)
	}

	if err := d.Publish(context.Background(), Event{Type: EventKnowledgeReloaded}); err != nil {
		t.Fatalf("expected nil without handlers, got %v", err)
	}
}

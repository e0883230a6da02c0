package observability

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/tickets/triage", "POST", 200)
	m.RecordRequest("/tickets/triage", "POST", 200)
	m.RecordError("/tickets/triage", "POST", "VALIDATION_FAILED")
	m.RecordOutcome("Approved", 1, 10*time.Millisecond)
	m.RecordOutcome("Approved", 3, 30*time.Millisecond)
	m.RecordOutcome("Escalated", 0, 20*time.Millisecond)

	snap := m.Snapshot()
	want := MetricsSnapshot{
		Requests:          map[string]int64{"/tickets/triage|POST|200": 2},
		Errors:            map[string]int64{"/tickets/triage|POST|VALIDATION_FAILED": 1},
		Outcomes:          map[string]int64{"Approved": 2, "Escalated": 1},
		ApprovedOnAttempt: map[string]int64{"1": 1, "3": 1},
		AvgTicketMillis:   20,
	}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200)
	m.RecordOutcome("Approved", 1, time.Millisecond)
	if snap := m.Snapshot(); len(snap.Outcomes) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestMetricsConcurrentOutcomes(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordOutcome("Escalated", 0, time.Millisecond)
		}()
	}
	wg.Wait()
	if got := m.Snapshot().Outcomes["Escalated"]; got != 50 {
		t.Fatalf("expected 50 escalations, got %d", got)
	}
}

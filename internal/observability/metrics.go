package observability

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// Metrics provides in-memory counters for requests and workflow outcomes.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	outcomes     map[string]int64
	attempts     map[int]int64
	latencyTotal time.Duration
	latencyCount int64
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Requests          map[string]int64 `json:"requests"`
	Errors            map[string]int64 `json:"errors"`
	Outcomes          map[string]int64 `json:"outcomes"`
	ApprovedOnAttempt map[string]int64 `json:"approved_on_attempt"`
	AvgTicketMillis   float64          `json:"avg_ticket_ms"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		outcomes:     make(map[string]int64),
		attempts:     make(map[int]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordOutcome counts a finished ticket run. approvedOn is the 1-based
// attempt that was approved, or 0 when the ticket did not approve.
func (m *Metrics) RecordOutcome(status string, approvedOn int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[status]++
	if approvedOn > 0 {
		m.attempts[approvedOn]++
	}
	m.latencyTotal += elapsed
	m.latencyCount++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Requests:          map[string]int64{},
		Errors:            map[string]int64{},
		Outcomes:          map[string]int64{},
		ApprovedOnAttempt: map[string]int64{},
	}
	if m == nil {
		return snap
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.requestCount {
		snap.Requests[k] = v
	}
	for k, v := range m.errorCount {
		snap.Errors[k] = v
	}
	for k, v := range m.outcomes {
		snap.Outcomes[k] = v
	}
	keys := make([]int, 0, len(m.attempts))
	for k := range m.attempts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		snap.ApprovedOnAttempt[strconv.Itoa(k)] = m.attempts[k]
	}
	if m.latencyCount > 0 {
		snap.AvgTicketMillis = float64(m.latencyTotal.Milliseconds()) / float64(m.latencyCount)
	}
	return snap
}

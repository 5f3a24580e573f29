package intent

import (
	"sync"
	"time"
)

// Stats is a snapshot of dispatch metrics for one process lifetime.
// Latencies are measured from buffer flush to intent applied.
type Stats struct {
	Dispatches  int           // Utterances handled
	Parses      int           // Parser calls, retries included
	Retries     int           // Parser calls beyond the first attempt
	Failures    int           // Utterances that ended in the error notice
	FastPaths   int           // Bill requests matched without a parser call
	LastLatency time.Duration // Latency of the most recent dispatch
	AvgLatency  time.Duration // Mean latency over all dispatches
}

// MetricsCollector tracks dispatch latency and parser behavior.
// It is goroutine-safe.
type MetricsCollector struct {
	mu    sync.Mutex
	stats Stats
	total time.Duration
}

// NewMetricsCollector creates an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

// MarkDispatch records one completed dispatch and its latency.
func (m *MetricsCollector) MarkDispatch(elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Dispatches++
	m.stats.LastLatency = elapsed
	m.total += elapsed
	m.stats.AvgLatency = m.total / time.Duration(m.stats.Dispatches)
}

// MarkParse records one parser call; retry marks it as a repeat attempt.
func (m *MetricsCollector) MarkParse(retry bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Parses++
	if retry {
		m.stats.Retries++
	}
}

// MarkFailure records an utterance that could not be handled.
func (m *MetricsCollector) MarkFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Failures++
}

// MarkFastPath records a bill request matched without the parser.
func (m *MetricsCollector) MarkFastPath() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.FastPaths++
}

// Snapshot returns a copy of the current stats.
func (m *MetricsCollector) Snapshot() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

package billing

import (
	"context"
	"sync"

	"github.com/codewithayushgupta/voiceBillingAgent/pkg/ledger"
)

// Mock implements Exporter for testing.
// Behavior can be customized via the ExportFunc field.
type Mock struct {
	// ExportFunc is called when Export is invoked. If nil, the mock
	// computes the grand total like a real exporter would.
	ExportFunc func(ctx context.Context, items []ledger.LineItem, customer string) (*float64, error)

	mu    sync.Mutex
	calls []MockExport
}

// MockExport records one Export invocation.
type MockExport struct {
	Items    []ledger.LineItem
	Customer string
}

// NewMock creates a mock exporter with default total computation.
func NewMock() *Mock {
	return &Mock{}
}

// Export records the call and delegates to ExportFunc or the default.
func (m *Mock) Export(ctx context.Context, items []ledger.LineItem, customer string) (*float64, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockExport{Items: items, Customer: customer})
	m.mu.Unlock()

	if m.ExportFunc != nil {
		return m.ExportFunc(ctx, items, customer)
	}
	if len(items) == 0 {
		return nil, nil
	}
	total := GrandTotal(items)
	return &total, nil
}

// Calls returns all recorded exports.
func (m *Mock) Calls() []MockExport {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockExport, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Export invocations.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Verify Mock implements Exporter at compile time.
var _ Exporter = (*Mock)(nil)

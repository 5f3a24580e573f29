package speech

import (
	"context"
	"sync"
	"time"
)

// Mock implements Speaker for testing.
// Behavior can be customized via the SpeakFunc field.
type Mock struct {
	// SpeakFunc is called when Speak is invoked. If nil, Speak succeeds.
	SpeakFunc func(ctx context.Context, text string) error

	// Tracking
	mu    sync.Mutex
	calls []MockCall
	ch    chan string
}

// MockCall records a Speak invocation for verification.
type MockCall struct {
	Text string
	Time time.Time
}

// NewMock creates a new mock speaker. Spoken notices can be awaited via
// Next, which matters because the dispatcher speaks on background
// goroutines.
func NewMock() *Mock {
	return &Mock{ch: make(chan string, 32)}
}

// Speak records the call and invokes SpeakFunc if set.
func (m *Mock) Speak(ctx context.Context, text string) error {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Text: text, Time: time.Now()})
	m.mu.Unlock()

	select {
	case m.ch <- text:
	default:
	}

	if m.SpeakFunc != nil {
		return m.SpeakFunc(ctx, text)
	}
	return nil
}

// Next waits for the next spoken notice, or returns false on timeout.
func (m *Mock) Next(timeout time.Duration) (string, bool) {
	select {
	case text := <-m.ch:
		return text, true
	case <-time.After(timeout):
		return "", false
	}
}

// Spoken returns all recorded notices in order.
func (m *Mock) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	for i, c := range m.calls {
		out[i] = c.Text
	}
	return out
}

// CallCount returns the number of Speak invocations.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	m.calls = nil
	m.mu.Unlock()

	for {
		select {
		case <-m.ch:
		default:
			return
		}
	}
}

// WithError returns a mock whose Speak always fails with err.
func WithError(err error) *Mock {
	m := NewMock()
	m.SpeakFunc = func(ctx context.Context, text string) error { return err }
	return m
}

// Verify Mock implements Speaker at compile time.
var _ Speaker = (*Mock)(nil)

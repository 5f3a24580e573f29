package intent

import (
	"context"
	"sync"
)

// MockParser implements Parser for testing.
// Behavior can be customized via the ParseFunc field.
type MockParser struct {
	// ParseFunc is called when Parse is invoked. If nil, the mock
	// returns the Result field.
	ParseFunc func(ctx context.Context, prompt string) (*Intent, error)

	// Result is returned when ParseFunc is nil.
	Result *Intent

	mu      sync.Mutex
	prompts []string
}

// NewMockParser creates a mock that answers every prompt with result.
func NewMockParser(result *Intent) *MockParser {
	return &MockParser{Result: result}
}

// Parse records the prompt and delegates to ParseFunc or Result.
func (m *MockParser) Parse(ctx context.Context, prompt string) (*Intent, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.ParseFunc != nil {
		return m.ParseFunc(ctx, prompt)
	}
	if m.Result != nil {
		return m.Result, nil
	}
	return &Intent{Kind: KindOther}, nil
}

// Prompts returns all recorded prompts.
func (m *MockParser) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// CallCount returns the number of Parse invocations.
func (m *MockParser) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// MockNameDetector implements NameDetector for testing.
type MockNameDetector struct {
	// DetectFunc is called when Detect is invoked. If nil, the mock
	// returns the Name field.
	DetectFunc func(ctx context.Context, prompt string) (string, error)

	// Name is returned when DetectFunc is nil.
	Name string

	mu    sync.Mutex
	calls int
}

// Detect records the call and delegates to DetectFunc or Name.
func (m *MockNameDetector) Detect(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.DetectFunc != nil {
		return m.DetectFunc(ctx, prompt)
	}
	return m.Name, nil
}

// CallCount returns the number of Detect invocations.
func (m *MockNameDetector) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Verify implementations at compile time.
var (
	_ Parser       = (*MockParser)(nil)
	_ NameDetector = (*MockNameDetector)(nil)
)

package capture

import (
	"context"
	"sync"
)

// FakeRecognizer implements Recognizer for testing.
// Behavior can be customized via the function fields; by default Start
// succeeds, Stop emits EventEnded (the graceful path) and Abort emits
// EventEnded immediately.
type FakeRecognizer struct {
	// StartFunc is called when Start is invoked. If nil, Start succeeds.
	StartFunc func(ctx context.Context, language string) error

	// StopFunc is called when Stop is invoked. If nil, Stop emits
	// EventEnded. Set a no-op to simulate a wedged platform.
	StopFunc func() error

	// AbortFunc is called when Abort is invoked. If nil, Abort emits
	// EventEnded.
	AbortFunc func()

	events chan Event

	mu         sync.Mutex
	startCalls int
	stopCalls  int
	abortCalls int
	languages  []string
}

// NewFakeRecognizer creates a fake with a buffered event stream.
func NewFakeRecognizer() *FakeRecognizer {
	return &FakeRecognizer{events: make(chan Event, 32)}
}

// Start implements Recognizer.
func (f *FakeRecognizer) Start(ctx context.Context, language string) error {
	f.mu.Lock()
	f.startCalls++
	f.languages = append(f.languages, language)
	f.mu.Unlock()

	if f.StartFunc != nil {
		return f.StartFunc(ctx, language)
	}
	return nil
}

// Stop implements Recognizer.
func (f *FakeRecognizer) Stop() error {
	f.mu.Lock()
	f.stopCalls++
	f.mu.Unlock()

	if f.StopFunc != nil {
		return f.StopFunc()
	}
	f.EmitEnded()
	return nil
}

// Abort implements Recognizer.
func (f *FakeRecognizer) Abort() {
	f.mu.Lock()
	f.abortCalls++
	f.mu.Unlock()

	if f.AbortFunc != nil {
		f.AbortFunc()
		return
	}
	f.EmitEnded()
}

// Events implements Recognizer.
func (f *FakeRecognizer) Events() <-chan Event {
	return f.events
}

// EmitFragment delivers a recognized fragment to the controller.
func (f *FakeRecognizer) EmitFragment(text string) {
	f.events <- Event{Kind: EventFragment, Text: text}
}

// EmitEnded delivers an end-of-capture notification.
func (f *FakeRecognizer) EmitEnded() {
	f.events <- Event{Kind: EventEnded}
}

// EmitError delivers a recognizer failure.
func (f *FakeRecognizer) EmitError(err error) {
	f.events <- Event{Kind: EventError, Err: err}
}

// StartCalls returns the number of Start invocations.
func (f *FakeRecognizer) StartCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startCalls
}

// StopCalls returns the number of Stop invocations.
func (f *FakeRecognizer) StopCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopCalls
}

// AbortCalls returns the number of Abort invocations.
func (f *FakeRecognizer) AbortCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.abortCalls
}

// Languages returns the language tags passed to Start, in order.
func (f *FakeRecognizer) Languages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.languages))
	copy(out, f.languages)
	return out
}

// Verify FakeRecognizer implements Recognizer at compile time.
var _ Recognizer = (*FakeRecognizer)(nil)

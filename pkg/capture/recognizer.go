package capture

import (
	"context"
	"errors"
)

// Sentinel errors for common error conditions.
var (
	// ErrAlreadyListening is returned when Start is called on a
	// recognizer that is already capturing.
	ErrAlreadyListening = errors.New("capture: already listening")

	// ErrNotListening is returned when Stop is called with no capture
	// in progress.
	ErrNotListening = errors.New("capture: not listening")
)

// EventKind identifies a recognizer event.
type EventKind int

const (
	// EventFragment carries a recognized piece of speech.
	EventFragment EventKind = iota

	// EventEnded signals that the capture finished, gracefully or not.
	EventEnded

	// EventError reports a recognizer failure. An EventEnded follows.
	EventError
)

// Event is one notification from a recognizer.
type Event struct {
	Kind EventKind
	Text string
	Err  error
}

// Recognizer is the speech-capture collaborator. Start begins a
// capture in the given language; fragments and the end-of-capture
// notification arrive on Events. Stop requests a graceful finish: the
// recognizer finalizes pending audio and then emits EventEnded — but a
// wedged platform may never deliver it, which is why the controller
// races Stop against a safety timeout. Abort is best-effort and
// fire-and-forget.
type Recognizer interface {
	Start(ctx context.Context, language string) error
	Stop() error
	Abort()
	Events() <-chan Event
}

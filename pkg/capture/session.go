// Package capture turns press-and-hold mic gestures into recognition
// sessions.
//
// A Controller owns at most one live session. Press events, recognizer
// events and the stop safety timer all funnel into a single inbox and
// are handled strictly in arrival order, so the session state machine
// never races with itself.
package capture

import "time"

// State is the lifecycle phase of a recognition session.
type State int

const (
	// StateIdle means no capture is in progress.
	StateIdle State = iota

	// StateStarting means the recognizer has been asked to start.
	StateStarting

	// StateListening means fragments are being captured.
	StateListening

	// StateStopping means a graceful stop is in flight, racing the
	// safety timeout.
	StateStopping

	// StateAborted means the session was cancelled abruptly and is
	// being torn down.
	StateAborted
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateListening:
		return "listening"
	case StateStopping:
		return "stopping"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Session is a snapshot of one capture lifecycle. Only one session is
// non-Idle at a time; PointerID identifies the touch or pointer that
// owns it.
type Session struct {
	ID        string
	State     State
	PointerID int64
	StartedAt time.Time
}

// Active reports whether the session is capturing or winding down.
func (s Session) Active() bool {
	return s.State != StateIdle
}

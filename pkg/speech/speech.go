// Package speech defines the spoken-feedback collaborator.
//
// The agent confirms every ledger mutation out loud. Synthesis and
// playback live outside this core; implementations of Speaker bridge to
// whatever engine is available (platform TTS, a remote service, or a
// log line in development). Callers treat Speak as fire-and-forget: the
// pipeline never blocks on feedback.
package speech

import (
	"context"
	"errors"

	"github.com/codewithayushgupta/voiceBillingAgent/internal/log"
)

// Sentinel errors for common error conditions.
var (
	// ErrNoSpeaker is returned when a chain has no speakers to try.
	ErrNoSpeaker = errors.New("speech: no speakers available")
)

// Speaker converts a user-facing notice into audible (or visible)
// feedback.
type Speaker interface {
	// Speak delivers one notice. Implementations should be quick or
	// honor ctx; the caller does not retry.
	Speak(ctx context.Context, text string) error
}

// Say delivers a notice on a background goroutine, logging failure
// instead of surfacing it. This is the fire-and-forget path used by the
// dispatcher.
func Say(s Speaker, text string) {
	if s == nil || text == "" {
		return
	}
	go func() {
		if err := s.Speak(context.Background(), text); err != nil {
			log.Warn("speech output failed", "error", err, "text", text)
		}
	}()
}

// Null discards every notice. Useful when no output device exists.
type Null struct{}

// Speak implements Speaker.
func (Null) Speak(ctx context.Context, text string) error { return nil }

// Logger writes notices to the structured log instead of speaking them.
// This is the development default.
type Logger struct{}

// Speak implements Speaker.
func (Logger) Speak(ctx context.Context, text string) error {
	log.Info("speak", "text", text)
	return nil
}

// Verify implementations at compile time.
var (
	_ Speaker = Null{}
	_ Speaker = Logger{}
)

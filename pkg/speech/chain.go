package speech

import (
	"context"
	"fmt"
	"log/slog"
)

// Chain implements Speaker by trying multiple speakers in order.
// The first successful speaker wins; if all fail, returns an aggregate error.
type Chain struct {
	speakers []Speaker
	logger   *slog.Logger
}

// NewChain creates a speaker chain that tries speakers in order.
// At least one speaker is required.
func NewChain(speakers ...Speaker) (*Chain, error) {
	if len(speakers) == 0 {
		return nil, ErrNoSpeaker
	}

	return &Chain{
		speakers: speakers,
		logger:   slog.Default().With("component", "speech.chain"),
	}, nil
}

// Speak tries each speaker until one succeeds.
func (c *Chain) Speak(ctx context.Context, text string) error {
	var errs []error

	for i, s := range c.speakers {
		err := s.Speak(ctx, text)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback speaker succeeded",
					"speaker_index", i,
					"chars", len(text),
				)
			}
			return nil
		}

		errs = append(errs, err)
		c.logger.Warn("speaker failed, trying next",
			"speaker_index", i,
			"error", err,
		)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return &ChainError{Errors: errs}
}

// Speakers returns the list of speakers in the chain.
func (c *Chain) Speakers() []Speaker {
	return c.speakers
}

// ChainError aggregates errors from all speakers in a chain.
type ChainError struct {
	Errors []error
}

// Error implements the error interface.
func (e *ChainError) Error() string {
	if len(e.Errors) == 0 {
		return "speech chain: no errors recorded"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("speech chain: %v", e.Errors[0])
	}
	return fmt.Sprintf("speech chain: all %d speakers failed, last error: %v", len(e.Errors), e.Errors[len(e.Errors)-1])
}

// Unwrap returns the last error in the chain.
func (e *ChainError) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[len(e.Errors)-1]
}

// Verify Chain implements Speaker at compile time.
var _ Speaker = (*Chain)(nil)

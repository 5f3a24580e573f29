// Package transcript accumulates speech fragments into utterances.
//
// Human speech arrives as a burst of short recognizer callbacks. The
// Buffer merges them and waits for a quiet gap before handing the
// combined text off for interpretation: each new fragment restarts the
// countdown (debounce, not throttle), and ForceFlush bypasses the wait
// when the capture session ends mid-window.
package transcript

import (
	"strings"
	"sync"
	"time"
)

// DefaultFlushDelay is the debounce window between the last fragment and
// the flush.
const DefaultFlushDelay = 800 * time.Millisecond

// FlushFunc receives one complete utterance. It is invoked outside the
// buffer's lock, so it may safely append new fragments or block.
type FlushFunc func(text string)

// Buffer merges successive speech fragments and flushes them after a
// quiet period. A flush is delivered at most once per accumulated batch.
type Buffer struct {
	mu      sync.Mutex
	pending string
	timer   *time.Timer
	gen     uint64 // invalidates stale timers after a restart
	delay   time.Duration
	flush   FlushFunc
}

// NewBuffer creates a buffer that calls flush after delay of silence.
// A non-positive delay falls back to DefaultFlushDelay.
func NewBuffer(delay time.Duration, flush FlushFunc) *Buffer {
	if delay <= 0 {
		delay = DefaultFlushDelay
	}
	return &Buffer{delay: delay, flush: flush}
}

// Append concatenates fragment to the pending utterance with a single
// separating space and restarts the flush countdown. The previous timer
// is cancelled and invalidated, never merely ignored: a stale timer that
// already fired must not flush a newer batch.
func (b *Buffer) Append(fragment string) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return
	}

	b.mu.Lock()
	if b.pending == "" {
		b.pending = fragment
	} else {
		b.pending = b.pending + " " + fragment
	}
	b.restartTimerLocked()
	b.mu.Unlock()
}

// ForceFlush cancels any pending timer and delivers whatever is buffered
// immediately. A no-op when the buffer is empty. Used when the capture
// session ends and cannot wait out the debounce window.
func (b *Buffer) ForceFlush() {
	b.mu.Lock()
	b.cancelTimerLocked()
	text := b.takeLocked()
	b.mu.Unlock()

	if text != "" && b.flush != nil {
		b.flush(text)
	}
}

// Reset discards the pending utterance without flushing it.
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.cancelTimerLocked()
	b.pending = ""
	b.mu.Unlock()
}

// Pending returns the currently buffered text.
func (b *Buffer) Pending() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}

// restartTimerLocked replaces the active timer with a fresh countdown.
// The generation counter guards against a timer that fired concurrently
// with the restart.
func (b *Buffer) restartTimerLocked() {
	b.cancelTimerLocked()
	b.gen++
	gen := b.gen
	b.timer = time.AfterFunc(b.delay, func() {
		b.fire(gen)
	})
}

func (b *Buffer) cancelTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.gen++
}

// fire delivers the batch for the given timer generation. Read-then-clear
// happens under the lock as one step, so a concurrent Append either lands
// before the take (and is included) or after (and starts a new batch).
func (b *Buffer) fire(gen uint64) {
	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		return
	}
	b.timer = nil
	text := b.takeLocked()
	b.mu.Unlock()

	if text != "" && b.flush != nil {
		b.flush(text)
	}
}

func (b *Buffer) takeLocked() string {
	text := strings.TrimSpace(b.pending)
	b.pending = ""
	return text
}

package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codewithayushgupta/voiceBillingAgent/internal/log"
	"github.com/codewithayushgupta/voiceBillingAgent/pkg/transcript"
)

// DefaultStopTimeout bounds how long a graceful stop may take before
// the capture is aborted.
const DefaultStopTimeout = 1500 * time.Millisecond

// Status messages surfaced to the UI.
const (
	StatusListening  = "Listening…"
	StatusFinalizing = "Finalizing..."
	StatusReady      = "Ready"
	StatusStartError = "Could not start listening"
)

type msgKind int

const (
	msgPressStart msgKind = iota
	msgPressEnd
	msgPressCancel
	msgStopTimeout
)

type message struct {
	kind      msgKind
	pointerID int64
	sessionID string
}

// Config wires a Controller to its collaborators.
type Config struct {
	// Recognizer performs the actual speech capture. Required.
	Recognizer Recognizer

	// Buffer receives recognized fragments and is force-flushed when
	// a session ends. Required.
	Buffer *transcript.Buffer

	// Log accumulates everything recognized across sessions. Optional.
	Log *transcript.Log

	// Language is the recognition language tag, e.g. "hi-IN".
	Language string

	// StopTimeout bounds the graceful-stop race. Zero means
	// DefaultStopTimeout.
	StopTimeout time.Duration

	// OnStatus receives UI status updates. Optional.
	OnStatus func(status string)
}

// Controller drives the push-to-talk lifecycle: exactly one
// recognition session at a time, owned by the pointer that pressed
// the mic. All transitions happen on the Run loop.
type Controller struct {
	rec         Recognizer
	buffer      *transcript.Buffer
	tlog        *transcript.Log
	language    string
	stopTimeout time.Duration
	onStatus    func(string)
	logger      *slog.Logger

	inbox chan message

	mu      sync.RWMutex
	session Session
}

// NewController creates a controller from cfg. Call Run to start
// processing events.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Recognizer == nil {
		return nil, fmt.Errorf("capture: recognizer required")
	}
	if cfg.Buffer == nil {
		return nil, fmt.Errorf("capture: transcript buffer required")
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}
	return &Controller{
		rec:         cfg.Recognizer,
		buffer:      cfg.Buffer,
		tlog:        cfg.Log,
		language:    cfg.Language,
		stopTimeout: cfg.StopTimeout,
		onStatus:    cfg.OnStatus,
		logger:      log.With("component", "capture"),
		inbox:       make(chan message, 64),
	}, nil
}

// Run processes press events, recognizer events and safety timeouts
// in strict arrival order until ctx is cancelled. It blocks; run it
// in its own goroutine.
func (c *Controller) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if c.Session().Active() {
				c.rec.Abort()
				c.endSession()
			}
			return

		case m := <-c.inbox:
			c.handleMessage(ctx, m)

		case ev, ok := <-c.rec.Events():
			if !ok {
				return
			}
			c.handleEvent(ev)
		}
	}
}

// PressStart begins a session for the given pointer. No-op unless the
// controller is idle.
func (c *Controller) PressStart(pointerID int64) {
	c.post(message{kind: msgPressStart, pointerID: pointerID})
}

// PressEnd releases the mic: graceful stop raced against the safety
// timeout. Ignored when pointerID does not own the session.
func (c *Controller) PressEnd(pointerID int64) {
	c.post(message{kind: msgPressEnd, pointerID: pointerID})
}

// PressCancel is an abrupt release (pointer left the surface): the
// capture is aborted without waiting for a graceful stop. Ignored
// when pointerID does not own the session.
func (c *Controller) PressCancel(pointerID int64) {
	c.post(message{kind: msgPressCancel, pointerID: pointerID})
}

// Session returns a snapshot of the current session.
func (c *Controller) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Controller) post(m message) {
	select {
	case c.inbox <- m:
	default:
		c.logger.Warn("inbox full, dropping event", "kind", m.kind)
	}
}

func (c *Controller) handleMessage(ctx context.Context, m message) {
	switch m.kind {
	case msgPressStart:
		c.startSession(ctx, m.pointerID)
	case msgPressEnd:
		c.stopSession(m.pointerID, false)
	case msgPressCancel:
		c.stopSession(m.pointerID, true)
	case msgStopTimeout:
		c.handleStopTimeout(m.sessionID)
	}
}

func (c *Controller) startSession(ctx context.Context, pointerID int64) {
	if c.Session().Active() {
		c.logger.Debug("press while session active, ignoring", "pointer", pointerID)
		return
	}

	c.setSession(Session{
		ID:        uuid.NewString(),
		State:     StateStarting,
		PointerID: pointerID,
		StartedAt: time.Now(),
	})
	c.status(StatusListening)

	if err := c.rec.Start(ctx, c.language); err != nil {
		c.logger.Error("recognizer start failed", "error", err)
		c.status(StatusStartError)
		c.setSession(Session{})
		return
	}
	c.setState(StateListening)
	c.logger.Info("session started", "session", c.Session().ID, "pointer", pointerID)
}

func (c *Controller) stopSession(pointerID int64, abrupt bool) {
	s := c.Session()
	if s.State != StateListening && s.State != StateStarting {
		return
	}
	if s.PointerID != pointerID {
		c.logger.Debug("release from non-owning pointer, ignoring",
			"pointer", pointerID, "owner", s.PointerID)
		return
	}

	if abrupt {
		c.setState(StateAborted)
		c.rec.Abort()
		c.endSession()
		return
	}

	c.setState(StateStopping)
	c.status(StatusFinalizing)

	// Stop may block until the platform finalizes, or forever. The
	// safety timer guarantees the session still reaches Idle.
	go func() {
		if err := c.rec.Stop(); err != nil {
			c.logger.Warn("recognizer stop failed", "error", err)
		}
	}()
	time.AfterFunc(c.stopTimeout, func() {
		c.post(message{kind: msgStopTimeout, sessionID: s.ID})
	})
}

func (c *Controller) handleStopTimeout(sessionID string) {
	s := c.Session()
	if s.ID != sessionID || s.State != StateStopping {
		return // stale timer from an already-finished session
	}
	c.logger.Warn("stop safety timeout fired, aborting capture", "session", sessionID)
	c.rec.Abort()
	c.endSession()
}

func (c *Controller) handleEvent(ev Event) {
	switch ev.Kind {
	case EventFragment:
		s := c.Session()
		if s.State != StateListening && s.State != StateStopping {
			c.logger.Debug("late fragment dropped", "text", ev.Text)
			return
		}
		c.buffer.Append(ev.Text)
		if c.tlog != nil {
			c.tlog.Append(ev.Text)
		}

	case EventEnded:
		if c.Session().Active() {
			c.endSession()
		}

	case EventError:
		c.logger.Warn("recognizer error", "error", ev.Err)
	}
}

// endSession flushes whatever was buffered and returns to Idle. Both
// the graceful and the aborted path come through here, so a release
// mid-debounce-window never loses the utterance.
func (c *Controller) endSession() {
	c.buffer.ForceFlush()
	c.setSession(Session{})
	c.status(StatusReady)
	c.logger.Info("session ended")
}

func (c *Controller) setSession(s Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *Controller) setState(st State) {
	c.mu.Lock()
	c.session.State = st
	c.mu.Unlock()
}

func (c *Controller) status(s string) {
	if c.onStatus != nil {
		c.onStatus(s)
	}
}

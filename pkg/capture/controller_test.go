package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codewithayushgupta/voiceBillingAgent/pkg/transcript"
)

type harness struct {
	ctrl     *Controller
	rec      *FakeRecognizer
	flushes  chan string
	statuses chan string
}

func newHarness(t *testing.T, stopTimeout time.Duration) *harness {
	t.Helper()

	h := &harness{
		rec:      NewFakeRecognizer(),
		flushes:  make(chan string, 8),
		statuses: make(chan string, 32),
	}
	buf := transcript.NewBuffer(time.Second, func(text string) {
		h.flushes <- text
	})

	ctrl, err := NewController(Config{
		Recognizer:  h.rec,
		Buffer:      buf,
		Language:    "hi-IN",
		StopTimeout: stopTimeout,
		OnStatus:    func(s string) { h.statuses <- s },
	})
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	h.ctrl = ctrl

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go ctrl.Run(ctx)
	return h
}

func (h *harness) waitState(t *testing.T, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.ctrl.Session().State == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", h.ctrl.Session().State, want)
}

func (h *harness) awaitFlush(t *testing.T) string {
	t.Helper()
	select {
	case text := <-h.flushes:
		return text
	case <-time.After(2 * time.Second):
		t.Fatal("no flush")
		return ""
	}
}

func (h *harness) awaitStatus(t *testing.T, want string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-h.statuses:
			if s == want {
				return
			}
		case <-deadline:
			t.Fatalf("status %q never emitted", want)
		}
	}
}

func TestController_GracefulLifecycle(t *testing.T) {
	h := newHarness(t, DefaultStopTimeout)

	h.ctrl.PressStart(7)
	h.waitState(t, StateListening)
	h.awaitStatus(t, StatusListening)

	if s := h.ctrl.Session(); s.PointerID != 7 {
		t.Errorf("pointer = %d, want 7", s.PointerID)
	}
	if langs := h.rec.Languages(); len(langs) != 1 || langs[0] != "hi-IN" {
		t.Errorf("languages = %v", langs)
	}

	h.rec.EmitFragment("दो किलो")
	h.rec.EmitFragment("चावल")

	h.ctrl.PressEnd(7)
	h.waitState(t, StateIdle)
	h.awaitStatus(t, StatusFinalizing)
	h.awaitStatus(t, StatusReady)

	if got := h.awaitFlush(t); got != "दो किलो चावल" {
		t.Errorf("flushed %q, want joined fragments", got)
	}
	if h.rec.AbortCalls() != 0 {
		t.Errorf("abort called %d times on graceful path", h.rec.AbortCalls())
	}
}

func TestController_SecondPressIgnoredWhileActive(t *testing.T) {
	h := newHarness(t, DefaultStopTimeout)

	h.ctrl.PressStart(1)
	h.waitState(t, StateListening)
	h.ctrl.PressStart(2)

	time.Sleep(20 * time.Millisecond)
	if h.rec.StartCalls() != 1 {
		t.Errorf("start called %d times, want 1", h.rec.StartCalls())
	}
	if s := h.ctrl.Session(); s.PointerID != 1 {
		t.Errorf("session stolen by pointer %d", s.PointerID)
	}
}

func TestController_ReleaseFromOtherPointerIgnored(t *testing.T) {
	h := newHarness(t, DefaultStopTimeout)

	h.ctrl.PressStart(1)
	h.waitState(t, StateListening)

	h.ctrl.PressEnd(2) // stray second finger
	time.Sleep(20 * time.Millisecond)
	if s := h.ctrl.Session(); s.State != StateListening {
		t.Fatalf("state = %v, want still listening", s.State)
	}
	if h.rec.StopCalls() != 0 {
		t.Errorf("stop called %d times, want 0", h.rec.StopCalls())
	}

	h.ctrl.PressEnd(1)
	h.waitState(t, StateIdle)
}

func TestController_StopTimeoutForcesAbort(t *testing.T) {
	h := newHarness(t, 40*time.Millisecond)
	h.rec.StopFunc = func() error { return nil } // wedged: never emits ended

	h.ctrl.PressStart(3)
	h.waitState(t, StateListening)
	h.rec.EmitFragment("दो किलो आलू")

	h.ctrl.PressEnd(3)
	h.waitState(t, StateIdle)

	if h.rec.AbortCalls() != 1 {
		t.Errorf("abort called %d times, want 1", h.rec.AbortCalls())
	}
	if got := h.awaitFlush(t); got != "दो किलो आलू" {
		t.Errorf("flushed %q, buffered transcript lost on abort", got)
	}

	// Next press works normally.
	h.ctrl.PressStart(4)
	h.waitState(t, StateListening)
	if h.rec.StartCalls() != 2 {
		t.Errorf("start called %d times, want 2", h.rec.StartCalls())
	}
}

func TestController_StaleTimeoutDoesNotAbortNextSession(t *testing.T) {
	h := newHarness(t, 30*time.Millisecond)

	h.ctrl.PressStart(1)
	h.waitState(t, StateListening)
	h.ctrl.PressEnd(1) // graceful stop succeeds well before the timer
	h.waitState(t, StateIdle)

	h.ctrl.PressStart(2)
	h.waitState(t, StateListening)

	time.Sleep(60 * time.Millisecond) // stale timer from session 1 fires
	if s := h.ctrl.Session(); s.State != StateListening {
		t.Errorf("state = %v, stale timeout ended the new session", s.State)
	}
	if h.rec.AbortCalls() != 0 {
		t.Errorf("abort called %d times, want 0", h.rec.AbortCalls())
	}
}

func TestController_CancelAbortsImmediately(t *testing.T) {
	h := newHarness(t, DefaultStopTimeout)

	h.ctrl.PressStart(5)
	h.waitState(t, StateListening)
	h.rec.EmitFragment("एक लीटर दूध")

	h.ctrl.PressCancel(5)
	h.waitState(t, StateIdle)

	if h.rec.AbortCalls() != 1 {
		t.Errorf("abort called %d times, want 1", h.rec.AbortCalls())
	}
	if h.rec.StopCalls() != 0 {
		t.Errorf("stop called %d times, want 0 on cancel", h.rec.StopCalls())
	}
	if got := h.awaitFlush(t); got != "एक लीटर दूध" {
		t.Errorf("flushed %q, buffered transcript lost on cancel", got)
	}
}

func TestController_LateFragmentsDropped(t *testing.T) {
	h := newHarness(t, DefaultStopTimeout)

	h.ctrl.PressStart(1)
	h.waitState(t, StateListening)
	h.rec.EmitFragment("पहला")
	h.ctrl.PressEnd(1)
	h.waitState(t, StateIdle)
	h.awaitFlush(t)

	h.rec.EmitFragment("देर से आया")
	time.Sleep(20 * time.Millisecond)

	select {
	case got := <-h.flushes:
		t.Errorf("late fragment flushed: %q", got)
	default:
	}
}

func TestController_StartFailureReturnsToIdle(t *testing.T) {
	h := newHarness(t, DefaultStopTimeout)
	h.rec.StartFunc = func(ctx context.Context, language string) error {
		return errors.New("mic permission denied")
	}

	h.ctrl.PressStart(1)
	h.awaitStatus(t, StatusStartError)
	h.waitState(t, StateIdle)

	// The user can press again; no retry happened on its own.
	if h.rec.StartCalls() != 1 {
		t.Errorf("start called %d times, want 1", h.rec.StartCalls())
	}
	h.rec.StartFunc = nil
	h.ctrl.PressStart(1)
	h.waitState(t, StateListening)
}

func TestController_FragmentsWhileStoppingStillBuffered(t *testing.T) {
	h := newHarness(t, 200*time.Millisecond)
	h.rec.StopFunc = func() error { return nil } // hold the stopping state open

	h.ctrl.PressStart(1)
	h.waitState(t, StateListening)
	h.rec.EmitFragment("दो किलो")

	h.ctrl.PressEnd(1)
	h.waitState(t, StateStopping)
	h.rec.EmitFragment("चीनी") // finalized result arriving during stop

	h.rec.EmitEnded()
	h.waitState(t, StateIdle)

	if got := h.awaitFlush(t); got != "दो किलो चीनी" {
		t.Errorf("flushed %q, want fragments from both phases", got)
	}
}

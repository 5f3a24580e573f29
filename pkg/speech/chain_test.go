package speech

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestChain_FirstSpeakerWins(t *testing.T) {
	first := NewMock()
	second := NewMock()
	chain, err := NewChain(first, second)
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	if err := chain.Speak(context.Background(), "hello"); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if first.CallCount() != 1 {
		t.Errorf("first speaker calls = %d, want 1", first.CallCount())
	}
	if second.CallCount() != 0 {
		t.Errorf("second speaker calls = %d, want 0", second.CallCount())
	}
}

func TestChain_FallsBackOnFailure(t *testing.T) {
	failing := WithError(errors.New("device busy"))
	fallback := NewMock()
	chain, err := NewChain(failing, fallback)
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	if err := chain.Speak(context.Background(), "bill ready"); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if fallback.CallCount() != 1 {
		t.Errorf("fallback calls = %d, want 1", fallback.CallCount())
	}
}

func TestChain_AllFail(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	chain, err := NewChain(WithError(errA), WithError(errB))
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	err = chain.Speak(context.Background(), "anyone there")
	if err == nil {
		t.Fatal("expected aggregate error")
	}
	var chainErr *ChainError
	if !errors.As(err, &chainErr) {
		t.Fatalf("error type = %T, want *ChainError", err)
	}
	if len(chainErr.Errors) != 2 {
		t.Errorf("aggregated %d errors, want 2", len(chainErr.Errors))
	}
	if !errors.Is(err, errB) {
		t.Error("Unwrap should expose the last error")
	}
}

func TestChain_RequiresSpeakers(t *testing.T) {
	if _, err := NewChain(); !errors.Is(err, ErrNoSpeaker) {
		t.Errorf("NewChain() error = %v, want ErrNoSpeaker", err)
	}
}

func TestSay_DoesNotBlock(t *testing.T) {
	slow := NewMock()
	slow.SpeakFunc = func(ctx context.Context, text string) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	}

	start := time.Now()
	Say(slow, "long confirmation")
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("Say blocked for %v", elapsed)
	}

	if _, ok := slow.Next(time.Second); !ok {
		t.Error("notice never delivered")
	}
}

func TestSay_NilAndEmptyAreSafe(t *testing.T) {
	Say(nil, "ignored")
	m := NewMock()
	Say(m, "")
	time.Sleep(20 * time.Millisecond)
	if m.CallCount() != 0 {
		t.Errorf("calls = %d, want 0 for empty text", m.CallCount())
	}
}

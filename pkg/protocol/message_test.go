package protocol

import (
	"testing"
)

func TestMessageRoundTrip(t *testing.T) {
	msg, err := NewMessage(TypeFragment, FragmentData{Text: "दो किलो चावल"})
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}
	if msg.Timestamp == 0 {
		t.Error("timestamp not set")
	}

	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	parsed, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if parsed.Type != TypeFragment {
		t.Errorf("type = %q, want fragment", parsed.Type)
	}

	var frag FragmentData
	if err := parsed.ParseData(&frag); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if frag.Text != "दो किलो चावल" {
		t.Errorf("text = %q", frag.Text)
	}
}

func TestNewMessage_NilData(t *testing.T) {
	msg, err := NewMessage(TypeAbort, nil)
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}
	if msg.Data != nil {
		t.Errorf("data = %s, want empty", msg.Data)
	}

	var press PressData
	if err := msg.ParseData(&press); err != nil {
		t.Errorf("ParseData on empty data: %v", err)
	}
}

func TestParseMessage_Invalid(t *testing.T) {
	if _, err := ParseMessage([]byte("not json")); err == nil {
		t.Error("expected error for malformed message")
	}
}

// Package protocol defines the WebSocket message types between the
// billing agent and the capture device (the phone or browser running
// on-device speech recognition).
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Device → Agent messages
	TypePress    MessageType = "press"    // Mic pressed
	TypeRelease  MessageType = "release"  // Mic released
	TypeCancel   MessageType = "cancel"   // Pointer left the mic surface
	TypeFragment MessageType = "fragment" // Recognized speech fragment
	TypeEnded    MessageType = "ended"    // Device recognizer finished
	TypeError    MessageType = "error"    // Device recognizer failure

	// Agent → Device messages
	TypeStart  MessageType = "start"  // Begin on-device recognition
	TypeStop   MessageType = "stop"   // Finalize recognition gracefully
	TypeAbort  MessageType = "abort"  // Tear recognition down immediately
	TypeSpeak  MessageType = "speak"  // Voice a notice to the user
	TypeStatus MessageType = "status" // Pipeline status update
	TypeItems  MessageType = "items"  // Current ledger snapshot
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Device → Agent Message Types
// =============================================================================

// PressData identifies the pointer holding the mic button.
type PressData struct {
	PointerID int64 `json:"pointer_id"`
}

// FragmentData carries one recognized piece of speech.
type FragmentData struct {
	Text string `json:"text"`
}

// ErrorData reports a device-side recognition failure.
type ErrorData struct {
	Message string `json:"message"`
}

// =============================================================================
// Agent → Device Message Types
// =============================================================================

// StartData configures on-device recognition.
type StartData struct {
	Language string `json:"language"` // BCP 47 tag, e.g. "hi-IN"
}

// SpeakData is a notice the device should voice to the user.
type SpeakData struct {
	Text string `json:"text"`
}

// StatusData is a human-readable pipeline status.
type StatusData struct {
	Message string `json:"message"`
}

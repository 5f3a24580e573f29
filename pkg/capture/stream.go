package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/codewithayushgupta/voiceBillingAgent/internal/log"
)

// writeWait bounds control-frame writes to the STT service.
const writeWait = 5 * time.Second

// sttMessage is one frame from the speech-to-text service.
type sttMessage struct {
	Type string `json:"type"` // "partial", "final", "end", "error"
	Text string `json:"text"`
}

// StreamRecognizer bridges to an external speech-to-text service over
// a websocket. Each Start dials a fresh connection; final transcript
// frames become fragment events and the service's end frame (or the
// connection closing) becomes the end-of-capture event.
type StreamRecognizer struct {
	baseURL string
	dialer  *websocket.Dialer
	events  chan Event
	logger  *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewStreamRecognizer creates a recognizer for the STT service at
// baseURL (a ws:// or wss:// endpoint).
func NewStreamRecognizer(baseURL string) *StreamRecognizer {
	return &StreamRecognizer{
		baseURL: baseURL,
		dialer:  websocket.DefaultDialer,
		events:  make(chan Event, 32),
		logger:  log.With("component", "stt"),
	}
}

// Start implements Recognizer. It dials the service with the language
// tag in the query string and starts the read loop.
func (r *StreamRecognizer) Start(ctx context.Context, language string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		return ErrAlreadyListening
	}

	u, err := url.Parse(r.baseURL)
	if err != nil {
		return fmt.Errorf("capture: invalid stt url: %w", err)
	}
	q := u.Query()
	q.Set("language", language)
	u.RawQuery = q.Encode()

	conn, _, err := r.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("capture: dialing stt service: %w", err)
	}
	r.conn = conn

	go r.readLoop(conn)
	return nil
}

// Stop implements Recognizer. It asks the service to finalize; the
// end frame arrives on the event stream once finalization completes.
func (r *StreamRecognizer) Stop() error {
	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()
	if conn == nil {
		return ErrNotListening
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(map[string]string{"type": "stop"}); err != nil {
		return fmt.Errorf("capture: requesting stop: %w", err)
	}
	return nil
}

// Abort implements Recognizer. Closing the connection makes the read
// loop emit the end event.
func (r *StreamRecognizer) Abort() {
	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()
	if conn == nil {
		return
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "abort"))
	conn.Close()
}

// Events implements Recognizer.
func (r *StreamRecognizer) Events() <-chan Event {
	return r.events
}

func (r *StreamRecognizer) readLoop(conn *websocket.Conn) {
	defer func() {
		r.mu.Lock()
		if r.conn == conn {
			r.conn = nil
		}
		r.mu.Unlock()
		conn.Close()
		r.events <- Event{Kind: EventEnded}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				r.logger.Warn("stt read failed", "error", err)
				r.events <- Event{Kind: EventError, Err: err}
			}
			return
		}

		var msg sttMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			r.logger.Warn("unparseable stt frame", "error", err)
			continue
		}

		switch msg.Type {
		case "final":
			if msg.Text != "" {
				r.events <- Event{Kind: EventFragment, Text: msg.Text}
			}
		case "end":
			return
		case "error":
			r.events <- Event{Kind: EventError, Err: fmt.Errorf("capture: stt: %s", msg.Text)}
		}
		// partial frames are progress only, not forwarded
	}
}

// Verify StreamRecognizer implements Recognizer at compile time.
var _ Recognizer = (*StreamRecognizer)(nil)

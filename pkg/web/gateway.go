package web

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/codewithayushgupta/voiceBillingAgent/internal/log"
	"github.com/codewithayushgupta/voiceBillingAgent/pkg/capture"
	"github.com/codewithayushgupta/voiceBillingAgent/pkg/protocol"
)

const gatewayWriteWait = 5 * time.Second

// PressHandler receives mic gestures relayed by the capture device.
// *capture.Controller satisfies it.
type PressHandler interface {
	PressStart(pointerID int64)
	PressEnd(pointerID int64)
	PressCancel(pointerID int64)
}

// Gateway bridges one capture device (phone or browser doing on-device
// speech recognition) to the agent. The device relays mic gestures and
// recognition events over a websocket; the agent answers with
// start/stop/abort commands and notices to voice.
//
// Gateway implements capture.Recognizer, so the capture controller
// drives the device exactly like an in-process recognizer, and
// speech.Speaker, so spoken notices reach the device's TTS.
type Gateway struct {
	events  chan capture.Event
	logger  *slog.Logger
	presses PressHandler

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewGateway creates a gateway with no device attached.
func NewGateway() *Gateway {
	return &Gateway{
		events: make(chan capture.Event, 32),
		logger: log.With("component", "gateway"),
	}
}

// SetPressHandler wires mic gestures to the capture controller. Must
// be called before a device connects.
func (g *Gateway) SetPressHandler(h PressHandler) {
	g.mu.Lock()
	g.presses = h
	g.mu.Unlock()
}

// Handle serves one device connection. It blocks until the device
// disconnects. A second device is rejected while one is attached.
func (g *Gateway) Handle(conn *websocket.Conn) {
	g.mu.Lock()
	if g.conn != nil {
		g.mu.Unlock()
		g.logger.Warn("second capture device rejected")
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "device already attached"))
		conn.Close()
		return
	}
	g.conn = conn
	g.mu.Unlock()
	g.logger.Info("capture device attached")

	defer func() {
		g.mu.Lock()
		if g.conn == conn {
			g.conn = nil
		}
		g.mu.Unlock()
		conn.Close()
		// A vanished device can never deliver its end event.
		g.events <- capture.Event{Kind: capture.EventEnded}
		g.logger.Info("capture device detached")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			g.logger.Warn("unparseable device message", "error", err)
			continue
		}
		g.dispatch(msg)
	}
}

func (g *Gateway) dispatch(msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypePress, protocol.TypeRelease, protocol.TypeCancel:
		var press protocol.PressData
		if err := msg.ParseData(&press); err != nil {
			g.logger.Warn("bad press payload", "error", err)
			return
		}
		g.mu.Lock()
		h := g.presses
		g.mu.Unlock()
		if h == nil {
			g.logger.Warn("press event with no handler wired")
			return
		}
		switch msg.Type {
		case protocol.TypePress:
			h.PressStart(press.PointerID)
		case protocol.TypeRelease:
			h.PressEnd(press.PointerID)
		case protocol.TypeCancel:
			h.PressCancel(press.PointerID)
		}

	case protocol.TypeFragment:
		var frag protocol.FragmentData
		if err := msg.ParseData(&frag); err != nil {
			g.logger.Warn("bad fragment payload", "error", err)
			return
		}
		if frag.Text != "" {
			g.events <- capture.Event{Kind: capture.EventFragment, Text: frag.Text}
		}

	case protocol.TypeEnded:
		g.events <- capture.Event{Kind: capture.EventEnded}

	case protocol.TypeError:
		var e protocol.ErrorData
		msg.ParseData(&e)
		g.events <- capture.Event{Kind: capture.EventError, Err: fmt.Errorf("device: %s", e.Message)}

	default:
		g.logger.Debug("ignoring device message", "type", msg.Type)
	}
}

// Start implements capture.Recognizer: ask the device to begin
// on-device recognition.
func (g *Gateway) Start(ctx context.Context, language string) error {
	return g.send(protocol.TypeStart, protocol.StartData{Language: language})
}

// Stop implements capture.Recognizer: ask the device to finalize.
// The device answers with an ended event once recognition settles.
func (g *Gateway) Stop() error {
	return g.send(protocol.TypeStop, nil)
}

// Abort implements capture.Recognizer: best-effort teardown.
func (g *Gateway) Abort() {
	if err := g.send(protocol.TypeAbort, nil); err != nil {
		g.logger.Warn("abort not delivered", "error", err)
	}
}

// Events implements capture.Recognizer.
func (g *Gateway) Events() <-chan capture.Event {
	return g.events
}

// Speak implements speech.Speaker: the device voices the notice with
// its platform TTS. Fails when no device is attached, letting a
// speaker chain fall through to the next option.
func (g *Gateway) Speak(ctx context.Context, text string) error {
	return g.send(protocol.TypeSpeak, protocol.SpeakData{Text: text})
}

// Connected reports whether a capture device is attached.
func (g *Gateway) Connected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.conn != nil
}

func (g *Gateway) send(t protocol.MessageType, data interface{}) error {
	msg, err := protocol.NewMessage(t, data)
	if err != nil {
		return err
	}
	raw, err := msg.Bytes()
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conn == nil {
		return fmt.Errorf("web: no capture device attached")
	}
	g.conn.SetWriteDeadline(time.Now().Add(gatewayWriteWait))
	return g.conn.WriteMessage(websocket.TextMessage, raw)
}

// Verify Gateway implements capture.Recognizer at compile time.
var _ capture.Recognizer = (*Gateway)(nil)

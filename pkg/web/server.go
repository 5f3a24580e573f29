// Package web exposes the billing agent over HTTP: a JSON API for the
// item table and bill actions, a status feed, and the websocket
// gateway the capture device connects through.
package web

import (
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/codewithayushgupta/voiceBillingAgent/internal/log"
	"github.com/codewithayushgupta/voiceBillingAgent/pkg/capture"
	"github.com/codewithayushgupta/voiceBillingAgent/pkg/hub"
	"github.com/codewithayushgupta/voiceBillingAgent/pkg/intent"
	"github.com/codewithayushgupta/voiceBillingAgent/pkg/ledger"
	"github.com/codewithayushgupta/voiceBillingAgent/pkg/protocol"
	"github.com/codewithayushgupta/voiceBillingAgent/pkg/transcript"
)

// Config wires the Server to the agent's core.
type Config struct {
	Port       string
	Ledger     *ledger.Ledger
	Dispatcher *intent.Dispatcher
	Controller *capture.Controller
	Transcript *transcript.Log
	Gateway    *Gateway
}

// Server is the agent's HTTP and websocket surface.
type Server struct {
	app    *fiber.App
	port   string
	logger *slog.Logger

	ledger     *ledger.Ledger
	dispatcher *intent.Dispatcher
	controller *capture.Controller
	tlog       *transcript.Log
	gateway    *Gateway

	statusHub *hub.Hub

	statusMu sync.RWMutex
	status   string
}

// NewServer creates the web surface. The gateway may be nil when the
// agent runs with an in-process recognizer instead of a device.
func NewServer(cfg Config) *Server {
	s := &Server{
		port:       cfg.Port,
		logger:     log.With("component", "web"),
		ledger:     cfg.Ledger,
		dispatcher: cfg.Dispatcher,
		controller: cfg.Controller,
		tlog:       cfg.Transcript,
		gateway:    cfg.Gateway,
		statusHub:  hub.New("status"),
		status:     capture.StatusReady,
	}

	app := fiber.New(fiber.Config{
		AppName:               "Voice Billing Agent",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/items", s.handleItems)
	api.Get("/transcript", s.handleTranscript)
	api.Get("/metrics", s.handleMetrics)
	api.Put("/items/:index", s.handleEditItem)
	api.Delete("/items/:index", s.handleDeleteItem)
	api.Post("/bill", s.handleGenerateBill)
	api.Post("/clear", s.handleClear)
	api.Post("/customer", s.handleCustomerCapture)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	if s.gateway != nil {
		app.Get("/ws/capture", websocket.New(s.gateway.Handle))
	}

	s.app = app
	return s
}

// Start runs the server. It blocks.
func (s *Server) Start() error {
	go s.statusHub.Run()
	s.logger.Info("listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// PushStatus records a pipeline status update and fans it out to the
// status feed together with the current item snapshot. Safe to use as
// the OnStatus callback of the controller and the dispatcher.
func (s *Server) PushStatus(status string) {
	s.statusMu.Lock()
	s.status = status
	s.statusMu.Unlock()

	if msg, err := protocol.NewMessage(protocol.TypeStatus, protocol.StatusData{Message: status}); err == nil {
		if raw, err := msg.Bytes(); err == nil {
			s.statusHub.Broadcast(raw)
		}
	}
	s.pushItems()
}

func (s *Server) pushItems() {
	msg, err := protocol.NewMessage(protocol.TypeItems, s.itemsPayload())
	if err != nil {
		return
	}
	raw, err := msg.Bytes()
	if err != nil {
		return
	}
	s.statusHub.Broadcast(raw)
}

func (s *Server) currentStatus() string {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

func (s *Server) itemsPayload() fiber.Map {
	return fiber.Map{
		"items":       s.ledger.Items(),
		"grand_total": s.ledger.GrandTotal(),
		"customer":    s.dispatcher.Customer(),
	}
}

// handleStatusWS serves the status feed: a snapshot on connect, then
// broadcasts until the client goes away.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	if msg, err := protocol.NewMessage(protocol.TypeStatus, protocol.StatusData{Message: s.currentStatus()}); err == nil {
		if raw, err := msg.Bytes(); err == nil {
			c.WriteMessage(websocket.TextMessage, raw)
		}
	}
	hub.NewClient(s.statusHub, c).Run()
}

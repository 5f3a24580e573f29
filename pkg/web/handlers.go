package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/codewithayushgupta/voiceBillingAgent/pkg/ledger"
)

// handleStatus returns the pipeline state for the UI header.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	session := s.controller.Session()
	return c.JSON(fiber.Map{
		"status":   s.currentStatus(),
		"session":  session.State.String(),
		"busy":     s.dispatcher.Busy(),
		"mode":     s.dispatcher.Mode(),
		"customer": s.dispatcher.Customer(),
		"device":   s.gateway != nil && s.gateway.Connected(),
	})
}

// handleItems returns the current ledger snapshot.
func (s *Server) handleItems(c *fiber.Ctx) error {
	return c.JSON(s.itemsPayload())
}

// handleTranscript returns everything recognized so far.
func (s *Server) handleTranscript(c *fiber.Ctx) error {
	text := ""
	if s.tlog != nil {
		text = s.tlog.Text()
	}
	return c.JSON(fiber.Map{"text": text})
}

// handleMetrics returns dispatch stats.
func (s *Server) handleMetrics(c *fiber.Ctx) error {
	st := s.dispatcher.Metrics().Snapshot()
	return c.JSON(fiber.Map{
		"dispatches":      st.Dispatches,
		"parses":          st.Parses,
		"retries":         st.Retries,
		"failures":        st.Failures,
		"fast_paths":      st.FastPaths,
		"last_latency_ms": st.LastLatency.Milliseconds(),
		"avg_latency_ms":  st.AvgLatency.Milliseconds(),
	})
}

// EditItemRequest is the body for item edits from the table UI.
// Omitted fields keep their current value.
type EditItemRequest struct {
	Name  *string  `json:"name"`
	Qty   *float64 `json:"qty"`
	Price *float64 `json:"price"`
}

// handleEditItem patches the item at a table position.
func (s *Server) handleEditItem(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid index"})
	}

	var req EditItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	ok := s.dispatcher.EditAt(index, ledger.Patch{
		Name:      req.Name,
		Quantity:  req.Qty,
		UnitPrice: req.Price,
	})
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no item at index"})
	}

	s.pushItems()
	return c.JSON(s.itemsPayload())
}

// handleDeleteItem removes the item at a table position.
func (s *Server) handleDeleteItem(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid index"})
	}

	if !s.dispatcher.DeleteAt(index) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no item at index"})
	}

	s.pushItems()
	return c.JSON(s.itemsPayload())
}

// handleGenerateBill triggers bill export from the UI button.
func (s *Server) handleGenerateBill(c *fiber.Ctx) error {
	if s.ledger.Len() == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "no items to bill"})
	}
	go s.dispatcher.GenerateBill()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"ok": true})
}

// handleClear empties the ledger and recorded customer.
func (s *Server) handleClear(c *fiber.Ctx) error {
	s.dispatcher.ClearAll()
	if s.tlog != nil {
		s.tlog.Reset()
	}
	s.pushItems()
	return c.JSON(fiber.Map{"ok": true})
}

// handleCustomerCapture switches the next utterance to customer-name
// capture.
func (s *Server) handleCustomerCapture(c *fiber.Ctx) error {
	s.dispatcher.StartCustomerCapture()
	return c.JSON(fiber.Map{"mode": s.dispatcher.Mode()})
}

package intent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/codewithayushgupta/voiceBillingAgent/internal/log"
	"github.com/codewithayushgupta/voiceBillingAgent/pkg/billing"
	"github.com/codewithayushgupta/voiceBillingAgent/pkg/ledger"
	"github.com/codewithayushgupta/voiceBillingAgent/pkg/speech"
)

// Defaults for parser calls.
const (
	DefaultParseTimeout = 8 * time.Second
	DefaultRetries      = 2
)

// Mode selects how the dispatcher interprets the next utterance.
type Mode string

const (
	// ModeItems treats utterances as billing commands.
	ModeItems Mode = "items"

	// ModeCustomerName treats the next utterance as the customer's name.
	ModeCustomerName Mode = "customer_name"
)

// billWords matches an explicit bill request in English. The Hindi
// trigger words are matched separately because \b only understands
// ASCII word boundaries.
var billWords = regexp.MustCompile(`(?i)\b(bill|generate)\b`)

var billWordsHindi = []string{"बिल", "बनाओ"}

// Config wires a Dispatcher to its collaborators.
type Config struct {
	// Parser extracts intents from utterances. Required.
	Parser Parser

	// Ledger holds the line items. Required.
	Ledger *ledger.Ledger

	// Names detects customer names in customer-name mode. Optional;
	// without it the raw utterance becomes the customer name.
	Names NameDetector

	// Speaker voices outcome notices. Optional.
	Speaker speech.Speaker

	// Exporter renders bills. Optional; bill requests without one
	// only speak the no-exporter behavior of an empty export.
	Exporter billing.Exporter

	// ParseTimeout bounds each parser attempt. Zero means
	// DefaultParseTimeout.
	ParseTimeout time.Duration

	// Retries is the number of repeat attempts after a timed-out
	// parse. Negative means DefaultRetries.
	Retries int

	// OnStatus receives human-readable pipeline status updates.
	// Optional. Called synchronously; keep it fast.
	OnStatus func(status string)

	// Metrics collects dispatch stats. Optional; one is created when nil.
	Metrics *MetricsCollector
}

// Dispatcher routes flushed utterances to the ledger and the bill
// exporter. One utterance is handled at a time; dispatches arriving
// while another is in flight wait their turn and apply in order.
type Dispatcher struct {
	parser   Parser
	names    NameDetector
	ledger   *ledger.Ledger
	speaker  speech.Speaker
	exporter billing.Exporter
	metrics  *MetricsCollector
	timeout  time.Duration
	retries  int
	onStatus func(string)
	logger   *slog.Logger

	// dispatchMu serializes whole dispatches; mu guards the fields below.
	dispatchMu sync.Mutex
	mu         sync.Mutex
	busy       bool
	mode       Mode
	customer   string
}

// NewDispatcher creates a dispatcher from cfg.
func NewDispatcher(cfg Config) (*Dispatcher, error) {
	if cfg.Parser == nil {
		return nil, ErrNoParser
	}
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("intent: ledger required")
	}
	if cfg.ParseTimeout <= 0 {
		cfg.ParseTimeout = DefaultParseTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = DefaultRetries
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetricsCollector()
	}
	return &Dispatcher{
		parser:   cfg.Parser,
		names:    cfg.Names,
		ledger:   cfg.Ledger,
		speaker:  cfg.Speaker,
		exporter: cfg.Exporter,
		metrics:  cfg.Metrics,
		timeout:  cfg.ParseTimeout,
		retries:  cfg.Retries,
		onStatus: cfg.OnStatus,
		logger:   log.With("component", "dispatcher"),
		mode:     ModeItems,
	}, nil
}

// Dispatch handles one flushed utterance. It blocks until the
// utterance is fully applied; callers that must not block run it in a
// goroutine. Utterances arriving while another dispatch is in flight
// wait and apply in receipt order.
func (d *Dispatcher) Dispatch(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	d.dispatchMu.Lock()
	defer d.dispatchMu.Unlock()

	d.mu.Lock()
	d.busy = true
	mode := d.mode
	d.mu.Unlock()

	start := time.Now()
	defer func() {
		d.mu.Lock()
		d.busy = false
		d.mu.Unlock()
		d.metrics.MarkDispatch(time.Since(start))
	}()

	if mode == ModeCustomerName {
		d.handleCustomerName(text)
		return
	}

	if isBillRequest(text) {
		d.metrics.MarkFastPath()
		if d.ledger.Len() == 0 {
			d.say("आपने अभी तक कोई आइटम नहीं बताया।")
			return
		}
		d.say("बिल बना रहा हूँ।")
		d.exportBill()
		return
	}

	d.status("Processing speech…")
	defer d.status("Ready")

	in, err := d.parseWithRetry(text)
	if err != nil {
		d.logger.Error("parse failed", "error", err, "text", text)
		d.metrics.MarkFailure()
		d.say("आइटम पढ़ने में त्रुटि हुई। दुबारा बोलें।")
		return
	}
	d.logger.Debug("intent parsed", "kind", in.Kind, "items", len(in.Items))
	d.apply(in)
}

// apply routes a parsed intent to the ledger and speaks the outcome.
func (d *Dispatcher) apply(in *Intent) {
	switch in.Kind {
	case KindAddItem:
		res := d.ledger.AddItems(in.Items)
		if res.Outcome == ledger.OutcomeApplied {
			d.say(strings.Join(res.Names, ", ") + " जोड़ दिया गया है।")
		} else {
			d.say("कृपया मात्रा और कीमत दोनों बताएं।")
		}

	case KindDeleteItem:
		res := d.ledger.DeleteItems(in.Items)
		if res.Outcome == ledger.OutcomeNoName {
			d.say("कौन सा आइटम हटाना है?")
		} else {
			d.say(strings.Join(res.Names, ", ") + " हटा दिया गया है।")
		}

	case KindUpdateItem:
		res := d.ledger.UpdateItems(in.Items)
		switch res.Outcome {
		case ledger.OutcomeApplied:
			d.say("आइटम अपडेट कर दिया गया है।")
		case ledger.OutcomeNoMatch:
			d.say("कोई मेल खाता आइटम नहीं मिला।")
		default:
			d.say("कौन सा आइटम अपडेट करना है?")
		}

	case KindGenerateBill:
		if d.ledger.Len() == 0 {
			d.say("अभी तक कोई आइटम नहीं जोड़ा गया है।")
			return
		}
		d.say("बिल बना रहा हूँ।")
		d.exportBill()

	default:
		d.say("मैंने समझा नहीं, कृपया दोबारा कहें।")
	}
}

// exportBill renders the current snapshot through the exporter and
// speaks the grand total.
func (d *Dispatcher) exportBill() {
	items := d.ledger.Items()
	if len(items) == 0 {
		d.say("कोई आइटम नहीं है। पहले कुछ आइटम बोलें।")
		return
	}
	if d.exporter == nil {
		d.logger.Warn("no exporter configured, bill request ignored")
		return
	}

	d.status("Generating bill…")
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	total, err := d.exporter.Export(ctx, items, d.Customer())
	if err != nil {
		d.logger.Error("bill export failed", "error", err)
		d.metrics.MarkFailure()
		return
	}
	if total != nil {
		d.say(fmt.Sprintf("बिल बन गया है। कुल रकम ₹%s रुपये है।", formatAmount(*total)))
	}
	d.status("Bill generated")
}

// handleCustomerName treats the utterance as the customer's name,
// then switches back to item mode.
func (d *Dispatcher) handleCustomerName(text string) {
	name := text
	if d.names != nil {
		detected, err := d.detectWithRetry(text)
		if err != nil {
			d.logger.Error("name detection failed", "error", err)
			d.say("नाम पता करने में त्रुटि हुई — कृपया आगे आइटम बताइए।")
			d.setMode(ModeItems)
			return
		}
		name = detected
	}
	name = strings.TrimSpace(name)

	if name != "" {
		d.setCustomer(name)
		d.say(fmt.Sprintf("ठीक है, ग्राहक का नाम %s रिकॉर्ड कर लिया गया है।", name))
	} else {
		d.setCustomer("")
		d.say("नाम नहीं मिला — आगे बढ़ते हैं।")
	}

	d.setMode(ModeItems)
	d.say("कृपया अपने आइटम बताइए।")
}

// parseWithRetry calls the parser with a per-attempt deadline,
// retrying timed-out and retryable attempts up to the configured
// retry budget.
func (d *Dispatcher) parseWithRetry(text string) (*Intent, error) {
	var lastErr error
	for attempt := 0; attempt <= d.retries; attempt++ {
		d.metrics.MarkParse(attempt > 0)

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		in, err := d.parser.Parse(ctx, text)
		cancel()
		if err == nil {
			return in, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return nil, err
		}
		d.logger.Warn("parse attempt failed", "attempt", attempt+1, "error", err)
	}
	return nil, lastErr
}

func (d *Dispatcher) detectWithRetry(text string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= d.retries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		name, err := d.names.Detect(ctx, text)
		cancel()
		if err == nil {
			return name, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return "", err
		}
		d.logger.Warn("name detection attempt failed", "attempt", attempt+1, "error", err)
	}
	return "", lastErr
}

// isRetryable reports whether a parse attempt should be repeated:
// deadline overruns and retryable API responses only.
func isRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsRetryable()
}

// isBillRequest matches explicit bill commands without a parser call.
func isBillRequest(text string) bool {
	if billWords.MatchString(text) {
		return true
	}
	for _, w := range billWordsHindi {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// GenerateBill exports the current snapshot on an explicit request (a
// tap on the bill button rather than a voice command). Serialized with
// voice dispatches.
func (d *Dispatcher) GenerateBill() {
	d.dispatchMu.Lock()
	defer d.dispatchMu.Unlock()

	d.mu.Lock()
	d.busy = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.busy = false
		d.mu.Unlock()
	}()

	if d.ledger.Len() == 0 {
		d.say("कोई आइटम नहीं है। पहले कुछ आइटम बोलें।")
		return
	}
	d.say("बिल बना रहा हूँ।")
	d.exportBill()
}

// StartCustomerCapture switches the dispatcher to customer-name mode:
// the next utterance is recorded as the customer's name instead of
// being parsed as a billing command.
func (d *Dispatcher) StartCustomerCapture() {
	d.setMode(ModeCustomerName)
	d.say("ग्राहक का नाम बताइए।")
}

// ClearAll empties the ledger and the recorded customer name.
func (d *Dispatcher) ClearAll() {
	d.ledger.Clear()
	d.setCustomer("")
	d.say("क्लियर कर दिया।")
}

// DeleteAt removes the item at a list position, for taps on the item
// table rather than voice commands.
func (d *Dispatcher) DeleteAt(index int) bool {
	if !d.ledger.DeleteAt(index) {
		return false
	}
	d.say("आइटम हटा दिया।")
	return true
}

// EditAt patches the item at a list position.
func (d *Dispatcher) EditAt(index int, patch ledger.Patch) bool {
	return d.ledger.EditAt(index, patch)
}

// Mode returns the current interpretation mode.
func (d *Dispatcher) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// Customer returns the recorded customer name, if any.
func (d *Dispatcher) Customer() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.customer
}

// Busy reports whether a dispatch is in flight.
func (d *Dispatcher) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busy
}

// Metrics exposes the dispatch stats collector.
func (d *Dispatcher) Metrics() *MetricsCollector {
	return d.metrics
}

func (d *Dispatcher) setMode(m Mode) {
	d.mu.Lock()
	d.mode = m
	d.mu.Unlock()
}

func (d *Dispatcher) setCustomer(name string) {
	d.mu.Lock()
	d.customer = name
	d.mu.Unlock()
}

func (d *Dispatcher) say(text string) {
	speech.Say(d.speaker, text)
}

func (d *Dispatcher) status(s string) {
	if d.onStatus != nil {
		d.onStatus(s)
	}
}

// formatAmount prints whole totals without a decimal point.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

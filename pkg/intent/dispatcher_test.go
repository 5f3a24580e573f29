package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codewithayushgupta/voiceBillingAgent/pkg/billing"
	"github.com/codewithayushgupta/voiceBillingAgent/pkg/ledger"
	"github.com/codewithayushgupta/voiceBillingAgent/pkg/speech"
)

func newTestDispatcher(t *testing.T, cfg Config) (*Dispatcher, *speech.Mock) {
	t.Helper()
	spk := speech.NewMock()
	cfg.Speaker = spk
	if cfg.Ledger == nil {
		cfg.Ledger = ledger.New()
	}
	if cfg.Parser == nil {
		cfg.Parser = NewMockParser(nil)
	}
	d, err := NewDispatcher(cfg)
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}
	return d, spk
}

func awaitNotice(t *testing.T, spk *speech.Mock) string {
	t.Helper()
	text, ok := spk.Next(2 * time.Second)
	if !ok {
		t.Fatal("no notice spoken")
	}
	return text
}

func TestDispatch_AddItems(t *testing.T) {
	l := ledger.New()
	parser := NewMockParser(&Intent{
		Kind: KindAddItem,
		Items: []ledger.ItemDescriptor{
			{Name: "चावल", Quantity: ledger.Float(2), Rate: ledger.Float(50)},
		},
	})
	d, spk := newTestDispatcher(t, Config{Parser: parser, Ledger: l})

	d.Dispatch("दो किलो चावल पचास रुपये")

	if l.Len() != 1 {
		t.Fatalf("ledger has %d items, want 1", l.Len())
	}
	if got := awaitNotice(t, spk); got != "चावल जोड़ दिया गया है।" {
		t.Errorf("notice = %q", got)
	}
}

func TestDispatch_AddWithoutQuantityAsksForBoth(t *testing.T) {
	parser := NewMockParser(&Intent{
		Kind:  KindAddItem,
		Items: []ledger.ItemDescriptor{{Name: "milk"}},
	})
	d, spk := newTestDispatcher(t, Config{Parser: parser})

	d.Dispatch("milk")

	if got := awaitNotice(t, spk); got != "कृपया मात्रा और कीमत दोनों बताएं।" {
		t.Errorf("notice = %q", got)
	}
}

func TestDispatch_BillFastPathSkipsParser(t *testing.T) {
	l := ledger.New()
	l.AddItems([]ledger.ItemDescriptor{
		{Name: "rice", Quantity: ledger.Float(2), Rate: ledger.Float(50)},
	})
	parser := NewMockParser(nil)
	exp := billing.NewMock()
	d, spk := newTestDispatcher(t, Config{Parser: parser, Ledger: l, Exporter: exp})

	d.Dispatch("बिल बनाओ")

	if parser.CallCount() != 0 {
		t.Errorf("parser called %d times, want 0 on fast path", parser.CallCount())
	}
	if exp.CallCount() != 1 {
		t.Fatalf("exporter called %d times, want 1", exp.CallCount())
	}

	notices := map[string]bool{}
	notices[awaitNotice(t, spk)] = true
	notices[awaitNotice(t, spk)] = true
	if !notices["बिल बना रहा हूँ।"] {
		t.Errorf("missing progress notice, got %v", notices)
	}
	if !notices["बिल बन गया है। कुल रकम ₹100 रुपये है।"] {
		t.Errorf("missing total notice, got %v", notices)
	}
}

func TestDispatch_BillFastPathEnglish(t *testing.T) {
	parser := NewMockParser(nil)
	d, spk := newTestDispatcher(t, Config{Parser: parser})

	d.Dispatch("generate the bill")

	if parser.CallCount() != 0 {
		t.Errorf("parser called %d times, want 0", parser.CallCount())
	}
	if got := awaitNotice(t, spk); got != "आपने अभी तक कोई आइटम नहीं बताया।" {
		t.Errorf("notice = %q", got)
	}
}

func TestDispatch_ParsedGenerateBillOnEmptyLedger(t *testing.T) {
	parser := NewMockParser(&Intent{Kind: KindGenerateBill})
	d, spk := newTestDispatcher(t, Config{Parser: parser})

	d.Dispatch("हिसाब कर दो")

	if got := awaitNotice(t, spk); got != "अभी तक कोई आइटम नहीं जोड़ा गया है।" {
		t.Errorf("notice = %q", got)
	}
}

func TestDispatch_RetriesTimeoutsThenGivesUp(t *testing.T) {
	parser := &MockParser{
		ParseFunc: func(ctx context.Context, prompt string) (*Intent, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	d, spk := newTestDispatcher(t, Config{
		Parser:       parser,
		ParseTimeout: 20 * time.Millisecond,
		Retries:      2,
	})

	d.Dispatch("दो किलो आलू")

	if parser.CallCount() != 3 {
		t.Errorf("parser called %d times, want 3 (1 + 2 retries)", parser.CallCount())
	}
	if got := awaitNotice(t, spk); got != "आइटम पढ़ने में त्रुटि हुई। दुबारा बोलें।" {
		t.Errorf("notice = %q", got)
	}
	if s := d.Metrics().Snapshot(); s.Retries != 2 || s.Failures != 1 {
		t.Errorf("stats = %+v, want 2 retries and 1 failure", s)
	}
}

func TestDispatch_NonRetryableErrorFailsFast(t *testing.T) {
	parser := &MockParser{
		ParseFunc: func(ctx context.Context, prompt string) (*Intent, error) {
			return nil, errors.New("malformed response")
		},
	}
	d, spk := newTestDispatcher(t, Config{Parser: parser, Retries: 2})

	d.Dispatch("कुछ भी")

	if parser.CallCount() != 1 {
		t.Errorf("parser called %d times, want 1", parser.CallCount())
	}
	if got := awaitNotice(t, spk); got != "आइटम पढ़ने में त्रुटि हुई। दुबारा बोलें।" {
		t.Errorf("notice = %q", got)
	}
}

func TestDispatch_SerializesConcurrentUtterances(t *testing.T) {
	gate := make(chan struct{})
	parser := &MockParser{
		ParseFunc: func(ctx context.Context, prompt string) (*Intent, error) {
			if prompt == "first" {
				<-gate
			}
			return &Intent{Kind: KindOther}, nil
		},
	}
	d, _ := newTestDispatcher(t, Config{Parser: parser})

	first := make(chan struct{})
	go func() {
		d.Dispatch("first")
		close(first)
	}()

	for !d.Busy() {
		time.Sleep(time.Millisecond)
	}

	second := make(chan struct{})
	go func() {
		d.Dispatch("second")
		close(second)
	}()

	select {
	case <-second:
		t.Fatal("second dispatch finished while first was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate)
	<-first
	<-second

	prompts := parser.Prompts()
	if len(prompts) != 2 || prompts[0] != "first" || prompts[1] != "second" {
		t.Errorf("prompts = %v, want [first second]", prompts)
	}
}

func TestDispatch_CustomerNameCapture(t *testing.T) {
	names := &MockNameDetector{Name: "Ramesh"}
	d, spk := newTestDispatcher(t, Config{Parser: NewMockParser(nil), Names: names})

	d.StartCustomerCapture()
	if got := awaitNotice(t, spk); got != "ग्राहक का नाम बताइए।" {
		t.Errorf("prompt = %q", got)
	}
	if d.Mode() != ModeCustomerName {
		t.Fatalf("mode = %q, want customer_name", d.Mode())
	}

	d.Dispatch("ग्राहक का नाम रमेश है")

	if d.Customer() != "Ramesh" {
		t.Errorf("customer = %q, want Ramesh", d.Customer())
	}
	if d.Mode() != ModeItems {
		t.Errorf("mode = %q, want items after capture", d.Mode())
	}
	notices := map[string]bool{}
	notices[awaitNotice(t, spk)] = true
	notices[awaitNotice(t, spk)] = true
	if !notices["ठीक है, ग्राहक का नाम Ramesh रिकॉर्ड कर लिया गया है।"] {
		t.Errorf("missing recorded notice, got %v", notices)
	}
	if !notices["कृपया अपने आइटम बताइए।"] {
		t.Errorf("missing items prompt, got %v", notices)
	}
}

func TestDispatch_CustomerNameNotFound(t *testing.T) {
	names := &MockNameDetector{Name: ""}
	d, spk := newTestDispatcher(t, Config{Parser: NewMockParser(nil), Names: names})

	d.StartCustomerCapture()
	awaitNotice(t, spk)

	d.Dispatch("आज मौसम अच्छा है")

	if d.Customer() != "" {
		t.Errorf("customer = %q, want empty", d.Customer())
	}
	if d.Mode() != ModeItems {
		t.Errorf("mode = %q, want items", d.Mode())
	}
}

func TestClearAll(t *testing.T) {
	l := ledger.New()
	l.AddItems([]ledger.ItemDescriptor{
		{Name: "rice", Quantity: ledger.Float(1), Rate: ledger.Float(10)},
	})
	d, spk := newTestDispatcher(t, Config{Parser: NewMockParser(nil), Ledger: l})
	d.setCustomer("Ramesh")

	d.ClearAll()

	if l.Len() != 0 {
		t.Errorf("ledger has %d items after clear", l.Len())
	}
	if d.Customer() != "" {
		t.Errorf("customer = %q, want empty", d.Customer())
	}
	if got := awaitNotice(t, spk); got != "क्लियर कर दिया।" {
		t.Errorf("notice = %q", got)
	}
}

func TestIsBillRequest(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"बिल बनाओ", true},
		{"generate bill", true},
		{"please generate", true},
		{"Bill बना दो", true},
		{"billing software kharido", false},
		{"दो किलो चावल", false},
	}
	for _, tc := range cases {
		if got := isBillRequest(tc.text); got != tc.want {
			t.Errorf("isBillRequest(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestNewDispatcher_RequiresParser(t *testing.T) {
	_, err := NewDispatcher(Config{Ledger: ledger.New()})
	if !errors.Is(err, ErrNoParser) {
		t.Errorf("error = %v, want ErrNoParser", err)
	}
}

// Package intent turns flushed utterances into ledger operations.
//
// A Parser extracts a structured intent from free-form speech. The
// Dispatcher routes that intent to the item ledger, speaks the outcome
// back to the user, and triggers bill export. Bill requests are matched
// locally before any parser call so "bill banao" works even when the
// parse backend is down.
package intent

import (
	"context"

	"github.com/codewithayushgupta/voiceBillingAgent/pkg/ledger"
)

// Kind identifies the operation an utterance asks for.
type Kind string

const (
	KindAddItem      Kind = "add_item"
	KindDeleteItem   Kind = "delete_item"
	KindUpdateItem   Kind = "update_item"
	KindGenerateBill Kind = "generate_bill"
	KindOther        Kind = "other"
)

// Intent is the structured result of parsing one utterance.
// Items carries the descriptors the operation applies to; it is empty
// for generate_bill and other.
type Intent struct {
	Kind  Kind                    `json:"intent"`
	Items []ledger.ItemDescriptor `json:"items"`
}

// Parser extracts an Intent from a raw utterance.
//
// Implementations must honor ctx cancellation; the dispatcher bounds
// every call with a deadline and retries timeouts.
type Parser interface {
	Parse(ctx context.Context, prompt string) (*Intent, error)
}

// NameDetector extracts a customer name from an utterance, returning
// the empty string when no name is present.
type NameDetector interface {
	Detect(ctx context.Context, prompt string) (string, error)
}

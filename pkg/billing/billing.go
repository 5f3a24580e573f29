// Package billing defines the bill-export collaborator.
//
// The core hands an exporter a snapshot of the current line items plus an
// optional customer label and receives the computed grand total back. A
// nil total means there was nothing to export. Document rendering (PDF,
// printing, sharing) lives behind the Exporter interface, outside this
// core.
package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/codewithayushgupta/voiceBillingAgent/pkg/ledger"
)

// Exporter renders and delivers a bill for the given items.
// Implementations return the computed grand total, or nil when there is
// nothing to export (empty snapshot).
type Exporter interface {
	Export(ctx context.Context, items []ledger.LineItem, customer string) (*float64, error)
}

// GrandTotal sums the item totals of a snapshot.
func GrandTotal(items []ledger.LineItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Total
	}
	return total
}

// RenderText formats a plain-text receipt: header, item table, grand
// total. Long item names are truncated the same way the printed bill
// truncates them.
func RenderText(items []ledger.LineItem, customer string, now time.Time) string {
	var b strings.Builder

	b.WriteString("Voice Billing Receipt\n")
	fmt.Fprintf(&b, "Date: %s\n", now.Format("2006-01-02 15:04:05"))
	if customer != "" {
		fmt.Fprintf(&b, "Customer: %s\n", customer)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%-30s %6s %10s %10s\n", "Item", "Qty", "Price", "Total")
	b.WriteString(strings.Repeat("-", 60))
	b.WriteString("\n")

	for _, it := range items {
		name := it.Name
		if len(name) > 28 {
			name = name[:28] + "..."
		}
		fmt.Fprintf(&b, "%-30s %6s %10s %10s\n",
			name,
			formatNumber(it.Quantity),
			"₹"+formatNumber(it.UnitPrice),
			"₹"+formatNumber(it.Total),
		)
	}

	b.WriteString(strings.Repeat("-", 60))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Total Amount: ₹%s\n", formatNumber(GrandTotal(items)))

	return b.String()
}

// formatNumber prints whole amounts without a decimal point and
// fractional ones with two places.
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

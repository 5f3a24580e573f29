// Package ledger maintains the authoritative in-memory list of billing
// line items and reconciles it against fuzzy descriptors produced by the
// intent parser.
//
// The ledger is session-scoped: it lives for the lifetime of one billing
// session and is never persisted. Consumers receive snapshots; the ledger
// exclusively owns the items, and an item's total is always derived from
// quantity × unit price, never accepted from outside.
package ledger

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// LineItem is a single billing entry.
type LineItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"qty"`
	UnitPrice float64 `json:"price"`
	Total     float64 `json:"total"`
}

// ItemDescriptor is a partial item description returned by the parser.
// Quantity and Rate are optional; a nil field means "not spoken".
type ItemDescriptor struct {
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity,omitempty"`
	Rate     *float64 `json:"rate,omitempty"`
}

// HasQuantity reports whether the descriptor carries a usable quantity.
func (d ItemDescriptor) HasQuantity() bool {
	return d.Quantity != nil && *d.Quantity > 0
}

// HasRate reports whether the descriptor carries a usable unit price.
func (d ItemDescriptor) HasRate() bool {
	return d.Rate != nil && *d.Rate > 0
}

// Outcome classifies the result of a ledger operation for user feedback.
type Outcome int

const (
	// OutcomeApplied means at least one item was added, removed or updated.
	OutcomeApplied Outcome = iota

	// OutcomeNoValidItems means an add batch contained no descriptor with
	// a name, a positive quantity and a positive price.
	OutcomeNoValidItems

	// OutcomeNoName means a delete batch contained no named descriptor.
	OutcomeNoName

	// OutcomeNoMatch means an update batch matched no existing item.
	OutcomeNoMatch
)

// Result describes what an operation did, so the caller can phrase a
// spoken notice. Names holds the affected item names in order.
type Result struct {
	Outcome Outcome
	Names   []string
}

// Patch is a direct, user-driven edit applied by index. Nil fields are
// left unchanged.
type Patch struct {
	Name      *string
	Quantity  *float64
	UnitPrice *float64
}

// Ledger is the ordered, mutex-guarded set of line items. Dispatcher
// responses may arrive on different goroutines, so every mutation takes
// the write lock.
type Ledger struct {
	mu    sync.RWMutex
	items []LineItem
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// AddItems appends a new line item for every valid descriptor. A
// descriptor is valid when it has a name, a positive quantity and a
// strictly positive unit price; a half-parsed item is dropped rather than
// defaulted. An entirely invalid batch yields OutcomeNoValidItems.
func (l *Ledger) AddItems(descs []ItemDescriptor) Result {
	var added []string

	l.mu.Lock()
	for _, d := range descs {
		if d.Name == "" || !d.HasQuantity() || !d.HasRate() {
			continue
		}
		qty, rate := *d.Quantity, *d.Rate
		l.items = append(l.items, LineItem{
			ID:        uuid.NewString(),
			Name:      d.Name,
			Quantity:  qty,
			UnitPrice: rate,
			Total:     qty * rate,
		})
		added = append(added, d.Name)
	}
	l.mu.Unlock()

	if len(added) == 0 {
		return Result{Outcome: OutcomeNoValidItems}
	}
	return Result{Outcome: OutcomeApplied, Names: added}
}

// DeleteItems removes every item whose name contains a descriptor name as
// a case-insensitive substring. One descriptor may remove several items
// ("rice" removes both "basmati rice" and "brown rice"). A batch with no
// named descriptor yields OutcomeNoName and leaves the ledger untouched.
func (l *Ledger) DeleteItems(descs []ItemDescriptor) Result {
	var names []string
	for _, d := range descs {
		if d.Name != "" {
			names = append(names, d.Name)
		}
	}
	if len(names) == 0 {
		return Result{Outcome: OutcomeNoName}
	}

	l.mu.Lock()
	kept := l.items[:0]
	for _, it := range l.items {
		if !matchesAny(it.Name, names) {
			kept = append(kept, it)
		}
	}
	l.items = kept
	l.mu.Unlock()

	// The notice names what was asked for, not what was found; deleting
	// an absent name is a safe no-op, matching repeat-command behavior.
	return Result{Outcome: OutcomeApplied, Names: names}
}

// UpdateItems applies the first matching descriptor to each existing
// item: a descriptor matches when its name is a case-insensitive
// substring of the item's name. Quantity and price update independently,
// and the total is recomputed. An empty batch yields
// OutcomeNoValidItems; a batch matching nothing leaves the ledger
// untouched and yields OutcomeNoMatch.
func (l *Ledger) UpdateItems(descs []ItemDescriptor) Result {
	if len(descs) == 0 {
		return Result{Outcome: OutcomeNoValidItems}
	}

	var updated []string

	l.mu.Lock()
	for i := range l.items {
		d, ok := firstMatch(l.items[i].Name, descs)
		if !ok {
			continue
		}
		if d.HasQuantity() {
			l.items[i].Quantity = *d.Quantity
		}
		if d.HasRate() {
			l.items[i].UnitPrice = *d.Rate
		}
		l.items[i].Total = l.items[i].Quantity * l.items[i].UnitPrice
		updated = append(updated, l.items[i].Name)
	}
	l.mu.Unlock()

	if len(updated) == 0 {
		return Result{Outcome: OutcomeNoMatch}
	}
	return Result{Outcome: OutcomeApplied, Names: updated}
}

// EditAt replaces fields of the item at index with the patch values and
// recomputes the total. Out-of-range indexes are a no-op; the return
// value reports whether an item was edited.
func (l *Ledger) EditAt(index int, patch Patch) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.items) {
		return false
	}
	it := &l.items[index]
	if patch.Name != nil && *patch.Name != "" {
		it.Name = *patch.Name
	}
	if patch.Quantity != nil && *patch.Quantity > 0 {
		it.Quantity = *patch.Quantity
	}
	if patch.UnitPrice != nil && *patch.UnitPrice > 0 {
		it.UnitPrice = *patch.UnitPrice
	}
	it.Total = it.Quantity * it.UnitPrice
	return true
}

// DeleteAt removes the item at index. Out-of-range indexes are a no-op.
func (l *Ledger) DeleteAt(index int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.items) {
		return false
	}
	l.items = append(l.items[:index], l.items[index+1:]...)
	return true
}

// Clear removes every item, resetting the billing session.
func (l *Ledger) Clear() {
	l.mu.Lock()
	l.items = nil
	l.mu.Unlock()
}

// Items returns a read-only snapshot of the current line items.
func (l *Ledger) Items() []LineItem {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]LineItem, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of line items.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// GrandTotal returns the sum of all item totals.
func (l *Ledger) GrandTotal() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var total float64
	for _, it := range l.items {
		total += it.Total
	}
	return total
}

func matchesAny(itemName string, names []string) bool {
	lower := strings.ToLower(itemName)
	for _, n := range names {
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func firstMatch(itemName string, descs []ItemDescriptor) (ItemDescriptor, bool) {
	lower := strings.ToLower(itemName)
	for _, d := range descs {
		if d.Name != "" && strings.Contains(lower, strings.ToLower(d.Name)) {
			return d, true
		}
	}
	return ItemDescriptor{}, false
}

// Float is a convenience for building optional descriptor fields.
func Float(v float64) *float64 { return &v }

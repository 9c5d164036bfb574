package cart

import (
	"iter"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/dinein-kiosk/internal/menu"
)

// Entry is a menu item together with the quantity the guest has picked.
type Entry struct {
	Item     menu.Item
	Quantity int
}

// LineTotal returns unit price multiplied by quantity.
func (e Entry) LineTotal() decimal.Decimal {
	return e.Item.UnitPrice.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// Subtotal sums the line totals of entries. Entries with a non-positive quantity are skipped.
func Subtotal(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.Quantity <= 0 {
			continue
		}
		total = total.Add(e.LineTotal())
	}
	return total
}

// Ledger is the authoritative cart for one session. Entries keep insertion order
// and there is at most one entry per item id, always with a quantity of at least one.
// The zero value is an empty ledger ready for use.
type Ledger struct {
	entries []Entry
	index   map[string]int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{index: map[string]int{}}
}

// Increment adds one unit of item, appending a new entry the first time the id is seen.
func (l *Ledger) Increment(item menu.Item) {
	if l.index == nil {
		l.index = map[string]int{}
	}
	if i, ok := l.index[item.ID]; ok {
		l.entries[i].Quantity++
		return
	}
	l.index[item.ID] = len(l.entries)
	l.entries = append(l.entries, Entry{Item: item, Quantity: 1})
}

// Decrement removes one unit of id. The entry disappears when its last unit is
// removed; unknown ids are ignored.
func (l *Ledger) Decrement(id string) {
	i, ok := l.index[id]
	if !ok {
		return
	}
	if l.entries[i].Quantity > 1 {
		l.entries[i].Quantity--
		return
	}
	l.entries = slices.Delete(l.entries, i, i+1)
	delete(l.index, id)
	for j := i; j < len(l.entries); j++ {
		l.index[l.entries[j].Item.ID] = j
	}
}

// QuantityOf returns the quantity held for id, or 0.
func (l *Ledger) QuantityOf(id string) int {
	i, ok := l.index[id]
	if !ok {
		return 0
	}
	return l.entries[i].Quantity
}

// Clear empties the ledger.
func (l *Ledger) Clear() {
	l.entries = nil
	l.index = map[string]int{}
}

// NonZeroEntries yields entries with a positive quantity in ledger order.
func (l *Ledger) NonZeroEntries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range l.entries {
			if e.Quantity <= 0 {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Snapshot copies the current entries in ledger order.
func (l *Ledger) Snapshot() []Entry {
	return slices.Collect(l.NonZeroEntries())
}

// Len returns the number of distinct items in the ledger.
func (l *Ledger) Len() int { return len(l.entries) }

// Subtotal is the undiscounted value of the whole cart.
func (l *Ledger) Subtotal() decimal.Decimal {
	return Subtotal(l.entries)
}

package selection

import "github.com/noah-isme/dinein-kiosk/internal/cart"

// Source is the ledger a selection is drawn from.
type Source interface {
	QuantityOf(id string) int
}

// Set is the checkout-time subset of a ledger, keyed by item id. It never
// mutates the ledger and only resolves to entries when materialized.
type Set struct {
	source Source
	ids    map[string]struct{}
}

// New binds an empty selection to source.
func New(source Source) *Set {
	return &Set{source: source, ids: map[string]struct{}{}}
}

// Toggle flips membership of id. Ids the source ledger does not hold are ignored.
func (s *Set) Toggle(id string) {
	if s.source == nil || s.source.QuantityOf(id) <= 0 {
		return
	}
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

// SelectAll replaces the selection with every id in snapshot.
func (s *Set) SelectAll(snapshot []cart.Entry) {
	next := make(map[string]struct{}, len(snapshot))
	for _, e := range snapshot {
		if e.Quantity > 0 {
			next[e.Item.ID] = struct{}{}
		}
	}
	s.ids = next
}

// DeselectAll empties the selection.
func (s *Set) DeselectAll() {
	s.ids = map[string]struct{}{}
}

// ToggleAll backs the "select all" checkbox: it clears the selection when every
// entry of snapshot is already selected and selects everything otherwise.
func (s *Set) ToggleAll(snapshot []cart.Entry) {
	if s.AllSelected(snapshot) {
		s.DeselectAll()
		return
	}
	s.SelectAll(snapshot)
}

// AllSelected reports whether snapshot is non-empty and fully selected.
func (s *Set) AllSelected(snapshot []cart.Entry) bool {
	if len(snapshot) == 0 {
		return false
	}
	for _, e := range snapshot {
		if !s.Contains(e.Item.ID) {
			return false
		}
	}
	return true
}

// Materialize resolves the selection against snapshot in ledger order. Selected
// ids that are no longer in the snapshot are dropped.
func (s *Set) Materialize(snapshot []cart.Entry) []cart.Entry {
	out := make([]cart.Entry, 0, len(s.ids))
	for _, e := range snapshot {
		if e.Quantity <= 0 {
			continue
		}
		if _, ok := s.ids[e.Item.ID]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Contains reports whether id is selected.
func (s *Set) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids, including any that have since left the ledger.
func (s *Set) Len() int { return len(s.ids) }

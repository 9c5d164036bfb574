package wire

import (
	"fmt"
	"io"
	"strings"

	"github.com/noah-isme/dinein-kiosk/internal/menu"
)

// MenuItem is one element of the GET /menu response.
type MenuItem struct {
	ID       string  `json:"id" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Price    *Amount `json:"price" validate:"required"`
	Category string  `json:"category,omitempty"`
	Image    string  `json:"image,omitempty"`
}

// DecodeMenu reads a menu document. Any malformed item rejects the whole
// document, as do duplicate ids.
func DecodeMenu(r io.Reader) ([]menu.Item, error) {
	var raw []MenuItem
	if err := decodeLenient(r, &raw); err != nil {
		return nil, err
	}
	items := make([]menu.Item, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i := range raw {
		prefix := fmt.Sprintf("[%d].", i)
		if err := validateStruct(prefix, &raw[i]); err != nil {
			return nil, err
		}
		if err := nonNegative(prefix+"price", raw[i].Price); err != nil {
			return nil, err
		}
		id := strings.TrimSpace(raw[i].ID)
		if _, dup := seen[id]; dup {
			return nil, fieldError(prefix+"id", fmt.Sprintf("duplicates %q", id))
		}
		seen[id] = struct{}{}
		items = append(items, menu.Item{
			ID:        id,
			Name:      raw[i].Name,
			UnitPrice: raw[i].Price.Decimal,
			Category:  raw[i].Category,
			Image:     raw[i].Image,
		})
	}
	return items, nil
}

// FromMenu renders items in wire form.
func FromMenu(items []menu.Item) []MenuItem {
	out := make([]MenuItem, 0, len(items))
	for _, it := range items {
		out = append(out, MenuItem{
			ID:       it.ID,
			Name:     it.Name,
			Price:    AmountPtr(it.UnitPrice),
			Category: it.Category,
			Image:    it.Image,
		})
	}
	return out
}

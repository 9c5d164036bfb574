package menu

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Item is a single orderable dish as published by the venue backend.
type Item struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	Category  string
	Image     string
}

// InCategory reports whether the item belongs to the named category. Matching is exact.
func (i Item) InCategory(category string) bool {
	return category != "" && i.Category == category
}

const placeholderAsset = "placeholder.jpg"

var knownAssets = map[string]struct{}{
	"thaali1.jpg": {},
	"thaali2.jpg": {},
	"thaali3.jpg": {},
	"thaali4.jpg": {},
	"cake.jpg":    {},
	"salad.jpg":   {},
	"naan.jpg":    {},
	"paneer.jpg":  {},
}

// ImageAsset maps a backend image filename onto a bundled asset name, falling back
// to the placeholder for anything unknown.
func ImageAsset(filename string) string {
	name := strings.ToLower(strings.TrimSpace(filename))
	if _, ok := knownAssets[name]; ok {
		return name
	}
	return placeholderAsset
}

package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/dinein-kiosk/internal/cart"
	"github.com/noah-isme/dinein-kiosk/internal/offer"
)

var hundred = decimal.NewFromInt(100)

// Quote aggregates computed pricing components.
type Quote struct {
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	FinalAmount decimal.Decimal
}

// Compute prices entries under at most one offer. A nil offer applies no discount.
// The discount never exceeds the subtotal and is never negative.
func Compute(entries []cart.Entry, o offer.Offer) Quote {
	subtotal := cart.Subtotal(entries)
	discount := discountFor(entries, subtotal, o)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return Quote{
		Subtotal:    subtotal,
		Discount:    discount,
		FinalAmount: subtotal.Sub(discount),
	}
}

func discountFor(entries []cart.Entry, subtotal decimal.Decimal, o offer.Offer) decimal.Decimal {
	switch v := o.(type) {
	case offer.Percentage:
		return subtotal.Mul(v.Percent).Div(hundred)
	case offer.FlatThreshold:
		if subtotal.GreaterThanOrEqual(v.MinSubtotal) {
			return v.AmountOff
		}
		return decimal.Zero
	case offer.CategoryBogo:
		return bogoDiscount(entries, v)
	default:
		return decimal.Zero
	}
}

// bogoDiscount frees one unit per complete group of RequiredMultiple units of
// each qualifying line.
func bogoDiscount(entries []cart.Entry, rule offer.CategoryBogo) decimal.Decimal {
	if rule.RequiredMultiple < 1 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, e := range entries {
		if e.Quantity < rule.RequiredMultiple || !e.Item.InCategory(rule.Category) {
			continue
		}
		free := int64(e.Quantity / rule.RequiredMultiple)
		total = total.Add(e.Item.UnitPrice.Mul(decimal.NewFromInt(free)))
	}
	return total
}

// Preview is one offer's what-if pricing.
type Preview struct {
	Offer offer.Offer
	Quote Quote
}

// PreviewAll prices entries once per offer so they can be compared before one is chosen.
func PreviewAll(entries []cart.Entry, offers []offer.Offer) []Preview {
	out := make([]Preview, 0, len(offers))
	for _, o := range offers {
		out = append(out, Preview{Offer: o, Quote: Compute(entries, o)})
	}
	return out
}

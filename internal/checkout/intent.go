package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/dinein-kiosk/internal/cart"
	"github.com/noah-isme/dinein-kiosk/internal/offer"
	"github.com/noah-isme/dinein-kiosk/internal/pricing"
)

// Line is one charged item of a payment intent.
type Line struct {
	ItemID    string
	Quantity  int
	UnitPrice decimal.Decimal
}

// PaymentIntent is the finalized record of what is being charged and why. It is
// built once per payment attempt and never modified.
type PaymentIntent struct {
	ID               uuid.UUID
	Items            []Line
	Subtotal         decimal.Decimal
	AppliedOfferName *string
	FinalAmount      decimal.Decimal
	CreatedAt        time.Time
}

// PaymentResult is the backend's verdict on a payment intent.
type PaymentResult struct {
	Success bool
	Message string
}

// OrderLine is one item of an order submission.
type OrderLine struct {
	ItemID   string
	Quantity int
}

// OrderRequest is the payload of a plain order submission.
type OrderRequest struct {
	Items []OrderLine
	Total decimal.Decimal
}

func newIntent(id uuid.UUID, at time.Time, entries []cart.Entry, o offer.Offer) PaymentIntent {
	quote := pricing.Compute(entries, o)
	lines := make([]Line, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, Line{ItemID: e.Item.ID, Quantity: e.Quantity, UnitPrice: e.Item.UnitPrice})
	}
	intent := PaymentIntent{
		ID:          id,
		Items:       lines,
		Subtotal:    quote.Subtotal,
		FinalAmount: quote.FinalAmount,
		CreatedAt:   at,
	}
	if o != nil {
		name := o.Label()
		intent.AppliedOfferName = &name
	}
	return intent
}

func newOrder(entries []cart.Entry) OrderRequest {
	lines := make([]OrderLine, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, OrderLine{ItemID: e.Item.ID, Quantity: e.Quantity})
	}
	return OrderRequest{Items: lines, Total: pricing.Compute(entries, nil).FinalAmount}
}

func positive(entries []cart.Entry) []cart.Entry {
	out := make([]cart.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Quantity > 0 {
			out = append(out, e)
		}
	}
	return out
}

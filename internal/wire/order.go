package wire

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/dinein-kiosk/internal/cart"
	"github.com/noah-isme/dinein-kiosk/internal/checkout"
)

// OrderLine is one line of POST /order.
type OrderLine struct {
	ID       string `json:"id" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

// OrderRequest is the body of POST /order.
type OrderRequest struct {
	Items []OrderLine `json:"items" validate:"required,min=1,dive"`
	Total *Amount     `json:"total" validate:"required"`
}

// FromOrder renders an order submission.
func FromOrder(req checkout.OrderRequest) OrderRequest {
	lines := make([]OrderLine, 0, len(req.Items))
	for _, l := range req.Items {
		lines = append(lines, OrderLine{ID: l.ItemID, Quantity: l.Quantity})
	}
	return OrderRequest{Items: lines, Total: AmountPtr(req.Total)}
}

// DecodeOrderRequest reads and validates a POST /order body.
func DecodeOrderRequest(r io.Reader) (OrderRequest, error) {
	var req OrderRequest
	if err := decodeStrict(r, &req); err != nil {
		return OrderRequest{}, err
	}
	if err := validateStruct("", &req); err != nil {
		return OrderRequest{}, err
	}
	if err := nonNegative("total", req.Total); err != nil {
		return OrderRequest{}, err
	}
	return req, nil
}

// PaymentLine is one charged line of POST /process_payment/.
type PaymentLine struct {
	ID        string  `json:"id" validate:"required"`
	Quantity  int     `json:"quantity" validate:"min=1"`
	UnitPrice *Amount `json:"unit_price" validate:"required"`
}

// PaymentIntent is the body of POST /process_payment/.
type PaymentIntent struct {
	IntentID     string        `json:"intent_id" validate:"required,uuid"`
	Items        []PaymentLine `json:"items" validate:"required,min=1,dive"`
	Subtotal     *Amount       `json:"subtotal" validate:"required"`
	AppliedOffer *string       `json:"applied_offer"`
	FinalAmount  *Amount       `json:"final_amount" validate:"required"`
}

// PaymentAck is the backend verdict on a payment. A missing success flag on a
// 2xx answer counts as accepted.
type PaymentAck struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
}

// Accepted reports the verdict.
func (a PaymentAck) Accepted() bool { return a.Success == nil || *a.Success }

// Ack builds an explicit verdict.
func Ack(success bool, message string) PaymentAck {
	return PaymentAck{Success: &success, Message: message}
}

// FromIntent renders a payment intent.
func FromIntent(intent checkout.PaymentIntent) PaymentIntent {
	lines := make([]PaymentLine, 0, len(intent.Items))
	for _, l := range intent.Items {
		lines = append(lines, PaymentLine{ID: l.ItemID, Quantity: l.Quantity, UnitPrice: AmountPtr(l.UnitPrice)})
	}
	return PaymentIntent{
		IntentID:     intent.ID.String(),
		Items:        lines,
		Subtotal:     AmountPtr(intent.Subtotal),
		AppliedOffer: intent.AppliedOfferName,
		FinalAmount:  AmountPtr(intent.FinalAmount),
	}
}

// DecodePaymentIntent reads and validates a POST /process_payment/ body. The
// final amount must not exceed the subtotal.
func DecodePaymentIntent(r io.Reader) (PaymentIntent, error) {
	var p PaymentIntent
	if err := decodeStrict(r, &p); err != nil {
		return PaymentIntent{}, err
	}
	if err := validateStruct("", &p); err != nil {
		return PaymentIntent{}, err
	}
	for _, check := range []struct {
		field string
		value *Amount
	}{{"subtotal", p.Subtotal}, {"final_amount", p.FinalAmount}} {
		if err := nonNegative(check.field, check.value); err != nil {
			return PaymentIntent{}, err
		}
	}
	for i, l := range p.Items {
		if err := nonNegative(fmt.Sprintf("items[%d].unit_price", i), l.UnitPrice); err != nil {
			return PaymentIntent{}, err
		}
	}
	if p.FinalAmount.GreaterThan(p.Subtotal.Decimal) {
		return PaymentIntent{}, fieldError("final_amount", "must not exceed subtotal")
	}
	return p, nil
}

// ParsedID returns the intent id.
func (p PaymentIntent) ParsedID() uuid.UUID {
	id, _ := uuid.Parse(strings.TrimSpace(p.IntentID))
	return id
}

// SelectedItem is one element of the selection log.
type SelectedItem struct {
	ID       string  `json:"id" validate:"required"`
	Name     string  `json:"name"`
	Price    *Amount `json:"price" validate:"required"`
	Quantity int     `json:"quantity" validate:"min=1"`
}

// SelectionLog is the body of POST /log_selected_items/.
type SelectionLog struct {
	SelectedItems []SelectedItem `json:"selectedItems" validate:"required,min=1,dive"`
}

// FromSelection renders the reviewed entries.
func FromSelection(entries []cart.Entry) SelectionLog {
	items := make([]SelectedItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, SelectedItem{ID: e.Item.ID, Name: e.Item.Name, Price: AmountPtr(e.Item.UnitPrice), Quantity: e.Quantity})
	}
	return SelectionLog{SelectedItems: items}
}

// DecodeSelectionLog reads and validates a POST /log_selected_items/ body.
func DecodeSelectionLog(r io.Reader) (SelectionLog, error) {
	var s SelectionLog
	if err := decodeStrict(r, &s); err != nil {
		return SelectionLog{}, err
	}
	if err := validateStruct("", &s); err != nil {
		return SelectionLog{}, err
	}
	return s, nil
}

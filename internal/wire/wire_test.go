package wire_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dinein-kiosk/internal/cart"
	"github.com/noah-isme/dinein-kiosk/internal/checkout"
	"github.com/noah-isme/dinein-kiosk/internal/common"
	"github.com/noah-isme/dinein-kiosk/internal/menu"
	"github.com/noah-isme/dinein-kiosk/internal/offer"
	"github.com/noah-isme/dinein-kiosk/internal/wire"
)

func TestDecodeMenu(t *testing.T) {
	doc := `[
		{"id":"1","name":"Thaali 1","price":250,"category":"Main","image":"thaali1.jpg"},
		{"id":"5","name":"Chocolate Cake","price":"150.50","category":"Dessert"},
		{"id":"9","name":"Lassi","price":60,"extra":"ignored"}
	]`
	items, err := wire.DecodeMenu(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, "Thaali 1", items[0].Name)
	require.True(t, items[0].UnitPrice.Equal(decimal.NewFromInt(250)))
	require.True(t, items[1].UnitPrice.Equal(decimal.RequireFromString("150.50")))
	require.True(t, items[1].InCategory("Dessert"))
	require.Empty(t, items[2].Category)
}

func TestDecodeMenuRejectsMalformedDocuments(t *testing.T) {
	cases := map[string]string{
		"missing price": `[{"id":"1","name":"Thaali"}]`,
		"missing id":    `[{"name":"Thaali","price":10}]`,
		"negative":      `[{"id":"1","name":"Thaali","price":-1}]`,
		"duplicate":     `[{"id":"1","name":"A","price":1},{"id":"1","name":"B","price":2}]`,
		"not a list":    `{"id":"1"}`,
		"bad price":     `[{"id":"1","name":"A","price":"ten"}]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := wire.DecodeMenu(strings.NewReader(doc))
			require.Error(t, err)
			appErr, ok := common.AsAppError(err)
			require.True(t, ok)
			require.Equal(t, common.CodeValidation, appErr.Code)
		})
	}
}

func TestMenuRoundTripKeepsNumbers(t *testing.T) {
	items := []menu.Item{{ID: "1", Name: "Paneer", UnitPrice: decimal.RequireFromString("199.99"), Category: "Main"}}
	raw, err := json.Marshal(wire.FromMenu(items))
	require.NoError(t, err)
	require.Contains(t, string(raw), `"price":199.99`)
}

func TestDecodeOffers(t *testing.T) {
	doc := `[
		{"id":"1","name":"10% Off on Total","kind":"percentage","percent":10},
		{"id":"2","name":"Flat 50","kind":"flat","min_subtotal":500,"amount_off":50},
		{"id":"3","name":"Buy 2 Get 1","kind":"bogo","category":"Dessert","required_multiple":2},
		{"id":"4","name":"Mystery","kind":"lottery"},
		{"id":"5","name":"Too generous","kind":"percentage","percent":150},
		{"id":"6","name":"Lonely","kind":"bogo","category":"Dessert","required_multiple":1},
		{"id":"7","name":"No threshold","kind":"flat","amount_off":50}
	]`
	offers, err := wire.DecodeOffers(strings.NewReader(doc))
	require.Error(t, err)
	require.Len(t, offers, 3)

	pct, ok := offers[0].(offer.Percentage)
	require.True(t, ok)
	require.True(t, pct.Percent.Equal(decimal.NewFromInt(10)))

	flat, ok := offers[1].(offer.FlatThreshold)
	require.True(t, ok)
	require.True(t, flat.MinSubtotal.Equal(decimal.NewFromInt(500)))

	bogo, ok := offers[2].(offer.CategoryBogo)
	require.True(t, ok)
	require.Equal(t, "Dessert", bogo.Category)
	require.Equal(t, 2, bogo.RequiredMultiple)
}

func TestOffersRoundTrip(t *testing.T) {
	raw, err := json.Marshal(wire.FromOffers(offer.Defaults().All()))
	require.NoError(t, err)
	decoded, err := wire.DecodeOffers(strings.NewReader(string(raw)))
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	for i, o := range offer.Defaults().All() {
		require.Equal(t, o.Key(), decoded[i].Key())
		require.Equal(t, o.Kind(), decoded[i].Kind())
	}
}

func TestPaymentIntentEncoding(t *testing.T) {
	name := "10% Off on Total"
	intent := checkout.PaymentIntent{
		ID:               uuid.MustParse("2b0b1f4e-8a77-4b8e-9d4c-1f6a3c0e5d21"),
		Items:            []checkout.Line{{ItemID: "1", Quantity: 2, UnitPrice: decimal.NewFromInt(100)}},
		Subtotal:         decimal.NewFromInt(200),
		AppliedOfferName: &name,
		FinalAmount:      decimal.NewFromInt(180),
		CreatedAt:        time.Now(),
	}
	raw, err := json.Marshal(wire.FromIntent(intent))
	require.NoError(t, err)
	require.JSONEq(t, `{
		"intent_id":"2b0b1f4e-8a77-4b8e-9d4c-1f6a3c0e5d21",
		"items":[{"id":"1","quantity":2,"unit_price":100}],
		"subtotal":200,
		"applied_offer":"10% Off on Total",
		"final_amount":180
	}`, string(raw))

	decoded, err := wire.DecodePaymentIntent(strings.NewReader(string(raw)))
	require.NoError(t, err)
	require.Equal(t, intent.ID, decoded.ParsedID())
}

func TestPaymentIntentWithoutOfferSendsNull(t *testing.T) {
	raw, err := json.Marshal(wire.FromIntent(checkout.PaymentIntent{
		ID:          uuid.New(),
		Items:       []checkout.Line{{ItemID: "1", Quantity: 1, UnitPrice: decimal.NewFromInt(5)}},
		Subtotal:    decimal.NewFromInt(5),
		FinalAmount: decimal.NewFromInt(5),
	}))
	require.NoError(t, err)
	require.Contains(t, string(raw), `"applied_offer":null`)
}

func TestDecodePaymentIntentRejects(t *testing.T) {
	cases := map[string]string{
		"empty items":   `{"intent_id":"2b0b1f4e-8a77-4b8e-9d4c-1f6a3c0e5d21","items":[],"subtotal":1,"applied_offer":null,"final_amount":1}`,
		"bad id":        `{"intent_id":"nope","items":[{"id":"1","quantity":1,"unit_price":1}],"subtotal":1,"applied_offer":null,"final_amount":1}`,
		"over subtotal": `{"intent_id":"2b0b1f4e-8a77-4b8e-9d4c-1f6a3c0e5d21","items":[{"id":"1","quantity":1,"unit_price":1}],"subtotal":1,"applied_offer":null,"final_amount":2}`,
		"zero qty":      `{"intent_id":"2b0b1f4e-8a77-4b8e-9d4c-1f6a3c0e5d21","items":[{"id":"1","quantity":0,"unit_price":1}],"subtotal":1,"applied_offer":null,"final_amount":1}`,
		"unknown field": `{"intent_id":"2b0b1f4e-8a77-4b8e-9d4c-1f6a3c0e5d21","items":[{"id":"1","quantity":1,"unit_price":1}],"subtotal":1,"final_amount":1,"tip":5}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := wire.DecodePaymentIntent(strings.NewReader(doc))
			require.True(t, common.IsAppError(err), "got %v", err)
		})
	}
}

func TestOrderAndSelectionEncoding(t *testing.T) {
	raw, err := json.Marshal(wire.FromOrder(checkout.OrderRequest{
		Items: []checkout.OrderLine{{ItemID: "1", Quantity: 2}},
		Total: decimal.RequireFromString("500.00"),
	}))
	require.NoError(t, err)
	require.JSONEq(t, `{"items":[{"id":"1","quantity":2}],"total":500}`, string(raw))
	_, err = wire.DecodeOrderRequest(strings.NewReader(string(raw)))
	require.NoError(t, err)

	entries := []cart.Entry{{Item: menu.Item{ID: "1", Name: "Thaali 1", UnitPrice: decimal.NewFromInt(250)}, Quantity: 2}}
	raw, err = json.Marshal(wire.FromSelection(entries))
	require.NoError(t, err)
	require.JSONEq(t, `{"selectedItems":[{"id":"1","name":"Thaali 1","price":250,"quantity":2}]}`, string(raw))
	log, err := wire.DecodeSelectionLog(strings.NewReader(string(raw)))
	require.NoError(t, err)
	require.Len(t, log.SelectedItems, 1)
}

func TestPaymentAck(t *testing.T) {
	require.True(t, wire.PaymentAck{}.Accepted())
	require.False(t, wire.Ack(false, "declined").Accepted())
	require.True(t, wire.Ack(true, "").Accepted())
}

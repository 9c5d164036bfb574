package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dinein-kiosk/internal/cart"
	"github.com/noah-isme/dinein-kiosk/internal/checkout"
	"github.com/noah-isme/dinein-kiosk/internal/menu"
	"github.com/noah-isme/dinein-kiosk/internal/offer"
	"github.com/noah-isme/dinein-kiosk/internal/session"
)

type menuStub struct {
	items []menu.Item
	err   error
}

func (m *menuStub) FetchMenu(context.Context) ([]menu.Item, error) { return m.items, m.err }

type transportStub struct {
	mu       sync.Mutex
	payments []checkout.PaymentIntent
	orders   []checkout.OrderRequest
	logs     [][]cart.Entry
	result   checkout.PaymentResult
	err      error
}

func (t *transportStub) SubmitOrder(_ context.Context, req checkout.OrderRequest) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.orders = append(t.orders, req)
	return t.err
}

func (t *transportStub) SubmitPayment(_ context.Context, intent checkout.PaymentIntent) (checkout.PaymentResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.payments = append(t.payments, intent)
	return t.result, t.err
}

func (t *transportStub) LogSelection(_ context.Context, entries []cart.Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logs = append(t.logs, entries)
	return t.err
}

func venueMenu() []menu.Item {
	return []menu.Item{
		{ID: "1", Name: "Thaali 1", UnitPrice: decimal.NewFromInt(100), Category: "Main"},
		{ID: "2", Name: "Thaali 2", UnitPrice: decimal.NewFromInt(150), Category: "Main"},
		{ID: "5", Name: "Chocolate Cake", UnitPrice: decimal.NewFromInt(150), Category: "Dessert"},
		{ID: "6", Name: "Rasmalai", UnitPrice: decimal.NewFromInt(100), Category: "Dessert"},
	}
}

func newSession(t *testing.T, tr *transportStub) *session.Session {
	t.Helper()
	deps := session.Deps{Menu: &menuStub{items: venueMenu()}, Logger: zerolog.Nop()}
	if tr != nil {
		deps.Transport = tr
	}
	s := session.New(deps)
	notice, err := s.LoadMenu(context.Background())
	require.NoError(t, err)
	require.True(t, notice.OK())
	return s
}

func TestPayFlowWithPercentageOffer(t *testing.T) {
	tr := &transportStub{result: checkout.PaymentResult{Success: true}}
	s := newSession(t, tr)

	require.True(t, s.Add("1"))
	require.True(t, s.Add("1"))
	require.True(t, s.Add("2"))
	require.Equal(t, "350", s.CartTotal().String())

	require.True(t, s.BeginReview(context.Background()).OK())
	require.True(t, s.Reviewing())
	require.Empty(t, s.Selected())
	require.Len(t, tr.logs, 1)

	s.ToggleSelectAll()
	require.True(t, s.AllSelected())
	require.Equal(t, "315.00", s.Quote("1").FinalAmount.StringFixed(2))

	notice := s.Pay(context.Background(), "1")
	require.Equal(t, session.Notice{Level: session.LevelSuccess, Title: "Payment Successful", Message: "You paid 315.00"}, notice)
	require.Len(t, tr.payments, 1)
	require.Equal(t, "10% Off on Total", *tr.payments[0].AppliedOfferName)
	require.Empty(t, s.Cart())
	require.Empty(t, s.Selected())
	require.False(t, s.Reviewing())
}

func TestPayPartialSelectionWithBogo(t *testing.T) {
	tr := &transportStub{result: checkout.PaymentResult{Success: true}}
	s := newSession(t, tr)
	for range 3 {
		s.Add("5")
	}
	s.Add("6")
	s.Add("1")

	s.Toggle("5")
	s.Toggle("6")
	quote := s.Quote("3")
	require.Equal(t, "550", quote.Subtotal.String())
	require.Equal(t, "150", quote.Discount.String())
	require.Equal(t, "400", quote.FinalAmount.String())

	require.True(t, s.Pay(context.Background(), "3").OK())
	require.Len(t, tr.payments[0].Items, 2)
}

func TestPayEmptySelectionMakesNoCall(t *testing.T) {
	tr := &transportStub{result: checkout.PaymentResult{Success: true}}
	s := newSession(t, tr)
	s.Add("1")

	notice := s.Pay(context.Background(), "1")
	require.Equal(t, session.LevelWarning, notice.Level)
	require.Equal(t, "No items selected", notice.Title)
	require.Empty(t, tr.payments)
	require.Len(t, s.Cart(), 1)
}

func TestPayDeclinedKeepsState(t *testing.T) {
	tr := &transportStub{result: checkout.PaymentResult{Success: false, Message: "card declined"}}
	s := newSession(t, tr)
	s.Add("1")
	s.Toggle("1")

	notice := s.Pay(context.Background(), "")
	require.Equal(t, session.Notice{Level: session.LevelError, Title: "Payment Failed", Message: "card declined"}, notice)
	require.Len(t, s.Cart(), 1)
	require.Len(t, s.Selected(), 1)

	tr.result = checkout.PaymentResult{}
	require.Equal(t, "The payment was declined.", s.Pay(context.Background(), "").Message)

	tr.result = checkout.PaymentResult{Success: true}
	require.True(t, s.Pay(context.Background(), "").OK())
	require.Len(t, tr.payments, 3)
}

func TestPayTransportErrorKeepsState(t *testing.T) {
	tr := &transportStub{err: errors.New("dial tcp: connection refused")}
	s := newSession(t, tr)
	s.Add("2")
	s.Toggle("2")

	notice := s.Pay(context.Background(), "2")
	require.Equal(t, session.Notice{Level: session.LevelError, Title: "Error", Message: "Failed to connect to payment server."}, notice)
	require.Equal(t, 1, s.QuantityOf("2"))
	require.Len(t, s.Selected(), 1)
}

func TestUnknownOfferPricesWithoutDiscount(t *testing.T) {
	s := newSession(t, &transportStub{})
	s.Add("1")
	s.Toggle("1")
	quote := s.Quote("does-not-exist")
	require.True(t, quote.Discount.IsZero())
	require.True(t, quote.FinalAmount.Equal(quote.Subtotal))
}

func TestPreviewOffers(t *testing.T) {
	s := newSession(t, &transportStub{})
	s.Add("1")
	s.Add("1")
	s.Add("2")
	s.ToggleSelectAll()

	previews := s.PreviewOffers()
	require.Len(t, previews, 3)
	require.Equal(t, "315.00", previews[0].Quote.FinalAmount.StringFixed(2))
	require.Equal(t, "350.00", previews[1].Quote.FinalAmount.StringFixed(2))
}

func TestAddUnknownItem(t *testing.T) {
	s := newSession(t, nil)
	require.False(t, s.Add("404"))
	require.Empty(t, s.Cart())
}

func TestToggleItemNotInCartIsNoop(t *testing.T) {
	s := newSession(t, nil)
	s.Toggle("1")
	require.Empty(t, s.Selected())
	require.False(t, s.AllSelected())
}

func TestRemoveDropsLastUnitAndSelection(t *testing.T) {
	s := newSession(t, nil)
	s.Add("1")
	s.Toggle("1")
	s.Remove("1")
	require.Zero(t, s.QuantityOf("1"))
	require.Empty(t, s.Selected())
}

func TestBeginReviewEmptyCart(t *testing.T) {
	tr := &transportStub{}
	s := newSession(t, tr)
	notice := s.BeginReview(context.Background())
	require.Equal(t, session.Notice{Level: session.LevelWarning, Title: "No items selected", Message: "Please add at least one item."}, notice)
	require.Empty(t, tr.logs)
	require.False(t, s.Reviewing())
}

func TestBeginReviewFailure(t *testing.T) {
	tr := &transportStub{err: errors.New("offline")}
	s := newSession(t, tr)
	s.Add("1")
	notice := s.BeginReview(context.Background())
	require.Equal(t, "Failed to send items to backend.", notice.Message)
	require.False(t, s.Reviewing())
	require.Len(t, s.Cart(), 1)
}

func TestCheckoutWholeCart(t *testing.T) {
	tr := &transportStub{}
	s := newSession(t, tr)
	s.Add("1")
	s.Add("2")
	s.Add("2")

	notice := s.Checkout(context.Background())
	require.Equal(t, session.Notice{Level: session.LevelSuccess, Title: "Checkout", Message: "Order placed! Total: 400.00"}, notice)
	require.Len(t, tr.orders, 1)
	require.Equal(t, []checkout.OrderLine{{ItemID: "1", Quantity: 1}, {ItemID: "2", Quantity: 2}}, tr.orders[0].Items)
	require.Empty(t, s.Cart())
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	tr := &transportStub{err: errors.New("boom")}
	s := newSession(t, tr)
	s.Add("1")
	notice := s.Checkout(context.Background())
	require.Equal(t, "Checkout Error", notice.Title)
	require.Len(t, s.Cart(), 1)
}

func TestEndSession(t *testing.T) {
	s := newSession(t, nil)
	s.Add("1")
	s.Toggle("1")
	s.EndSession()
	require.Empty(t, s.Cart())
	require.Empty(t, s.Selected())
}

func TestWithoutTransport(t *testing.T) {
	s := newSession(t, nil)
	s.Add("1")
	s.Toggle("1")
	require.Equal(t, session.LevelError, s.Pay(context.Background(), "").Level)
	require.Equal(t, session.LevelError, s.Checkout(context.Background()).Level)
}

func TestLoadMenuFailureKeepsPreviousMenu(t *testing.T) {
	source := &menuStub{items: venueMenu()}
	s := session.New(session.Deps{Menu: source, Logger: zerolog.Nop()})
	_, err := s.LoadMenu(context.Background())
	require.NoError(t, err)

	source.err = errors.New("timeout")
	notice, err := s.LoadMenu(context.Background())
	require.Error(t, err)
	require.Equal(t, session.LevelError, notice.Level)
	require.Len(t, s.Menu(), 4)
}

type offerStub struct {
	offers []offer.Offer
	err    error
}

func (o offerStub) FetchOffers(context.Context) ([]offer.Offer, error) { return o.offers, o.err }

func TestLoadOffers(t *testing.T) {
	happyHour := offer.Percentage{Meta: offer.Meta{ID: "hh", Name: "Happy Hour"}, Percent: decimal.NewFromInt(20)}
	s := session.New(session.Deps{Offers: offerStub{offers: []offer.Offer{happyHour}}, Logger: zerolog.Nop()})
	require.Len(t, s.Offers(), 3)
	require.NoError(t, s.LoadOffers(context.Background()))
	require.Len(t, s.Offers(), 1)
	require.Equal(t, "hh", s.Offers()[0].Key())

	failing := session.New(session.Deps{Offers: offerStub{err: errors.New("404")}, Logger: zerolog.Nop()})
	require.Error(t, failing.LoadOffers(context.Background()))
	require.Len(t, failing.Offers(), 3)
}

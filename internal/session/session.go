// Package session drives the guest-facing flows: browsing, cart building,
// review selection and submission.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/dinein-kiosk/internal/cart"
	"github.com/noah-isme/dinein-kiosk/internal/checkout"
	"github.com/noah-isme/dinein-kiosk/internal/menu"
	"github.com/noah-isme/dinein-kiosk/internal/offer"
	"github.com/noah-isme/dinein-kiosk/internal/pricing"
	"github.com/noah-isme/dinein-kiosk/internal/selection"
)

// Deps are the collaborators of a Session. Any of them may be nil: a missing
// fetcher leaves the corresponding catalog as it is, a missing transport makes
// every submission fail with an error notice.
type Deps struct {
	Menu      menu.Fetcher
	Offers    offer.Fetcher
	Transport checkout.Transport
	Logger    zerolog.Logger
	Options   []checkout.Option
}

// Session is one guest's ordering session.
type Session struct {
	mu        sync.Mutex
	menu      *menu.Catalog
	offers    *offer.Catalog
	ledger    *cart.Ledger
	selection *selection.Set
	reviewing bool

	menuSource  menu.Fetcher
	offerSource offer.Fetcher
	submitter   *checkout.Submitter
	logger      zerolog.Logger
}

// New starts an empty session with the default offer catalog.
func New(d Deps) *Session {
	ledger := cart.NewLedger()
	var sub *checkout.Submitter
	if d.Transport != nil {
		sub = checkout.NewSubmitter(d.Transport, d.Logger, d.Options...)
	}
	return &Session{
		menu:        menu.NewCatalog(d.Logger),
		offers:      offer.Defaults(),
		ledger:      ledger,
		selection:   selection.New(ledger),
		menuSource:  d.Menu,
		offerSource: d.Offers,
		submitter:   sub,
		logger:      d.Logger,
	}
}

// LoadMenu refreshes the menu. On failure the previous menu stays and an error
// notice is returned.
func (s *Session) LoadMenu(ctx context.Context) (Notice, error) {
	if s.menuSource == nil {
		return noticeNoBackend, menu.ErrNoFetcher
	}
	if err := s.menu.Refresh(ctx, s.menuSource); err != nil {
		return failure("Error", "Failed to load the menu."), err
	}
	return success("Menu", fmt.Sprintf("%d items available.", s.menu.Len())), nil
}

// LoadOffers refreshes the offer catalog. Failures keep the current offers.
func (s *Session) LoadOffers(ctx context.Context) error {
	s.mu.Lock()
	current := s.offers
	s.mu.Unlock()
	next, err := current.Load(ctx, s.offerSource)
	s.mu.Lock()
	s.offers = next
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn().Err(err).Int("offers", next.Len()).Msg("offers_refresh_failed")
	}
	return err
}

// Menu returns the current menu.
func (s *Session) Menu() []menu.Item { return s.menu.Items() }

// Offers returns the current offers in publication order.
func (s *Session) Offers() []offer.Offer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offers.All()
}

// Add puts one more unit of the menu item id into the cart. Unknown ids are
// ignored and reported false.
func (s *Session) Add(id string) bool {
	item, ok := s.menu.Lookup(id)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.Increment(item)
	return true
}

// Remove takes one unit of id out of the cart.
func (s *Session) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.Decrement(id)
}

// QuantityOf returns the cart quantity of id.
func (s *Session) QuantityOf(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.QuantityOf(id)
}

// Cart returns the cart lines in insertion order.
func (s *Session) Cart() []cart.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Snapshot()
}

// CartTotal returns the undiscounted cart total.
func (s *Session) CartTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Subtotal()
}

// EndSession empties the cart and the review selection.
func (s *Session) EndSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Reviewing reports whether the review step is open.
func (s *Session) Reviewing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reviewing
}

// Toggle flips the review selection of id.
func (s *Session) Toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Toggle(id)
}

// ToggleSelectAll drives the select-all checkbox.
func (s *Session) ToggleSelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.ToggleAll(s.ledger.Snapshot())
}

// AllSelected reports the select-all checkbox state.
func (s *Session) AllSelected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.AllSelected(s.ledger.Snapshot())
}

// Selected returns the selected cart lines in cart order.
func (s *Session) Selected() []cart.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedLocked()
}

// Quote prices the selection under the offer with the given id. Unknown ids
// price without a discount.
func (s *Session) Quote(offerID string) pricing.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.Compute(s.selectedLocked(), s.offers.Lookup(offerID))
}

// PreviewOffers prices the selection under every offer.
func (s *Session) PreviewOffers() []pricing.Preview {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.PreviewAll(s.selectedLocked(), s.offers.All())
}

// BeginReview hands the cart to the backend's selection log and opens the
// review step with nothing selected.
func (s *Session) BeginReview(ctx context.Context) Notice {
	s.mu.Lock()
	entries := s.ledger.Snapshot()
	s.mu.Unlock()
	if len(entries) == 0 {
		return noticeEmptyCart
	}
	if s.submitter == nil {
		return noticeNoBackend
	}
	if err := s.submitter.LogSelection(ctx, entries); err != nil {
		if errors.Is(err, checkout.ErrEmptySelection) {
			return noticeEmptyCart
		}
		return failure("Error", "Failed to send items to backend.")
	}
	s.mu.Lock()
	s.selection.DeselectAll()
	s.reviewing = true
	s.mu.Unlock()
	return success("Items Sent", "Select the items you want to pay for.")
}

// Pay submits the selection priced under offerID. The cart and selection are
// cleared only when the backend accepts the payment.
func (s *Session) Pay(ctx context.Context, offerID string) Notice {
	s.mu.Lock()
	entries := s.selectedLocked()
	applied := s.offers.Lookup(offerID)
	s.mu.Unlock()
	if s.submitter == nil {
		if len(entries) == 0 {
			return noticeEmptySelection
		}
		return noticeNoBackend
	}

	intent, err := s.submitter.Pay(ctx, entries, applied)
	var declined *checkout.DeclinedError
	switch {
	case err == nil:
	case errors.Is(err, checkout.ErrEmptySelection):
		return noticeEmptySelection
	case errors.Is(err, checkout.ErrSubmissionInFlight):
		return noticeBusy
	case errors.As(err, &declined):
		msg := declined.Message
		if msg == "" {
			msg = "The payment was declined."
		}
		return failure("Payment Failed", msg)
	default:
		return failure("Error", "Failed to connect to payment server.")
	}

	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
	return success("Payment Successful", "You paid "+intent.FinalAmount.StringFixed(2))
}

// Checkout places the whole cart as an order without any offer.
func (s *Session) Checkout(ctx context.Context) Notice {
	s.mu.Lock()
	entries := s.ledger.Snapshot()
	s.mu.Unlock()
	if len(entries) == 0 {
		return noticeEmptyCart
	}
	if s.submitter == nil {
		return noticeNoBackend
	}
	req, err := s.submitter.PlaceOrder(ctx, entries)
	switch {
	case err == nil:
	case errors.Is(err, checkout.ErrSubmissionInFlight):
		return noticeBusy
	case errors.Is(err, checkout.ErrEmptySelection):
		return noticeEmptyCart
	default:
		return failure("Checkout Error", "There was a problem placing your order.")
	}
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
	return success("Checkout", "Order placed! Total: "+req.Total.StringFixed(2))
}

func (s *Session) selectedLocked() []cart.Entry {
	return s.selection.Materialize(s.ledger.Snapshot())
}

func (s *Session) resetLocked() {
	s.ledger.Clear()
	s.selection.DeselectAll()
	s.reviewing = false
}

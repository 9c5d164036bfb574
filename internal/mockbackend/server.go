// Package mockbackend is a development stand-in for the venue ordering backend.
// It serves the menu and offers and accepts orders, payments and selection logs,
// recording everything it receives.
package mockbackend

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/dinein-kiosk/internal/common"
	"github.com/noah-isme/dinein-kiosk/internal/menu"
	"github.com/noah-isme/dinein-kiosk/internal/obs"
	"github.com/noah-isme/dinein-kiosk/internal/offer"
	"github.com/noah-isme/dinein-kiosk/internal/wire"
)

// SeedMenu is the menu served when none is configured.
func SeedMenu() []menu.Item {
	return []menu.Item{
		{ID: "1", Name: "Normal Thali", UnitPrice: decimal.NewFromInt(129), Category: "Main", Image: "thaali1.jpg"},
		{ID: "2", Name: "Veg Thali", UnitPrice: decimal.NewFromInt(149), Category: "Main", Image: "thaali2.jpg"},
		{ID: "3", Name: "Special Thali", UnitPrice: decimal.NewFromInt(199), Category: "Main", Image: "thaali3.jpg"},
		{ID: "4", Name: "Special Desi Ghee Desi Thath", UnitPrice: decimal.NewFromInt(289), Category: "Main", Image: "thaali4.jpg"},
		{ID: "5", Name: "Chocolate Cake", UnitPrice: decimal.NewFromInt(90), Category: "Dessert", Image: "cake.jpg"},
		{ID: "6", Name: "Garden Salad", UnitPrice: decimal.NewFromInt(70), Category: "Sides", Image: "salad.jpg"},
	}
}

// Server holds the handlers of the development backend.
type Server struct {
	menu         []menu.Item
	offers       *offer.Catalog
	declineAbove *decimal.Decimal
	newID        func() uuid.UUID
	logger       zerolog.Logger

	mu         sync.Mutex
	orders     []wire.OrderRequest
	payments   []wire.PaymentIntent
	selections []wire.SelectionLog
}

// Options configures a Server. Zero values fall back to the seed menu and the
// default offers; a nil DeclineAbove accepts every payment.
type Options struct {
	Menu         []menu.Item
	Offers       *offer.Catalog
	DeclineAbove *decimal.Decimal
	NewID        func() uuid.UUID
	Logger       zerolog.Logger
}

// NewServer builds a Server from opts.
func NewServer(opts Options) *Server {
	items := opts.Menu
	if items == nil {
		items = SeedMenu()
	}
	offers := opts.Offers
	if offers == nil {
		offers = offer.Defaults()
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.New
	}
	return &Server{
		menu:         items,
		offers:       offers,
		declineAbove: opts.DeclineAbove,
		newID:        newID,
		logger:       obs.Component(opts.Logger, "mockbackend"),
	}
}

// Menu serves GET /menu.
func (s *Server) Menu(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, wire.FromMenu(s.menu))
}

// Offers serves GET /offers.
func (s *Server) Offers(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, wire.FromOffers(s.offers.All()))
}

// PlaceOrder serves POST /order.
func (s *Server) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	req, err := wire.DecodeOrderRequest(r.Body)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	s.mu.Lock()
	s.orders = append(s.orders, req)
	s.mu.Unlock()

	orderID := s.newID()
	s.logger.Info().
		Str("order_id", orderID.String()).
		Int("lines", len(req.Items)).
		Str("total", req.Total.StringFixed(2)).
		Msg("order_placed")
	common.JSON(w, http.StatusOK, map[string]any{
		"message":  "Order placed successfully",
		"order_id": orderID.String(),
		"order":    req,
	})
}

// ProcessPayment serves POST /process_payment/. Payments whose final amount
// exceeds the decline threshold are refused with 402.
func (s *Server) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	intent, err := wire.DecodePaymentIntent(r.Body)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	s.mu.Lock()
	s.payments = append(s.payments, intent)
	s.mu.Unlock()

	log := s.logger.With().Str("intent_id", intent.IntentID).Str("final_amount", intent.FinalAmount.StringFixed(2)).Logger()
	if s.declineAbove != nil && intent.FinalAmount.GreaterThan(*s.declineAbove) {
		recordPayment("declined")
		log.Warn().Msg("payment_declined")
		common.JSON(w, http.StatusPaymentRequired, wire.Ack(false, "Amount exceeds the card limit."))
		return
	}
	recordPayment("accepted")
	log.Info().Msg("payment_accepted")
	common.JSON(w, http.StatusOK, wire.Ack(true, "Payment processed"))
}

// LogSelection serves POST /log_selected_items/.
func (s *Server) LogSelection(w http.ResponseWriter, r *http.Request) {
	sel, err := wire.DecodeSelectionLog(r.Body)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	s.mu.Lock()
	s.selections = append(s.selections, sel)
	s.mu.Unlock()

	s.logger.Info().Int("items", len(sel.SelectedItems)).Msg("selection_logged")
	common.JSON(w, http.StatusOK, map[string]string{"message": "Items logged successfully"})
}

// Orders returns the orders received so far.
func (s *Server) Orders() []wire.OrderRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]wire.OrderRequest(nil), s.orders...)
}

// Payments returns the payment intents received so far.
func (s *Server) Payments() []wire.PaymentIntent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]wire.PaymentIntent(nil), s.payments...)
}

// Selections returns the selection logs received so far.
func (s *Server) Selections() []wire.SelectionLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]wire.SelectionLog(nil), s.selections...)
}

func recordPayment(result string) {
	if obs.MockPaymentTotal != nil {
		obs.MockPaymentTotal.WithLabelValues(result).Inc()
	}
}

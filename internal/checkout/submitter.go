package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/dinein-kiosk/internal/cart"
	"github.com/noah-isme/dinein-kiosk/internal/obs"
	"github.com/noah-isme/dinein-kiosk/internal/offer"
)

var (
	// ErrEmptySelection is returned when a submission carries no positive-quantity lines.
	ErrEmptySelection = errors.New("checkout: nothing selected")
	// ErrSubmissionInFlight is returned while another submission is awaiting the backend.
	ErrSubmissionInFlight = errors.New("checkout: submission already in flight")
	// ErrPaymentDeclined is the sentinel behind DeclinedError.
	ErrPaymentDeclined = errors.New("checkout: payment declined")
	// ErrNoTransport is returned by a Submitter built without a transport.
	ErrNoTransport = errors.New("checkout: transport not configured")
)

// DeclinedError reports a payment the backend refused.
type DeclinedError struct {
	IntentID uuid.UUID
	Message  string
}

func (e *DeclinedError) Error() string {
	if e.Message == "" {
		return ErrPaymentDeclined.Error()
	}
	return fmt.Sprintf("%s: %s", ErrPaymentDeclined, e.Message)
}

func (e *DeclinedError) Unwrap() error { return ErrPaymentDeclined }

// Transport is the outbound side of the ordering backend.
type Transport interface {
	SubmitOrder(ctx context.Context, req OrderRequest) error
	SubmitPayment(ctx context.Context, intent PaymentIntent) (PaymentResult, error)
	LogSelection(ctx context.Context, entries []cart.Entry) error
}

// Submitter builds payment intents and forwards them to the backend, allowing at
// most one submission in flight at a time.
type Submitter struct {
	transport Transport
	logger    zerolog.Logger
	newID     func() uuid.UUID
	now       func() time.Time
	inFlight  atomic.Bool
}

// Option customises a Submitter.
type Option func(*Submitter)

// WithIDSource overrides intent id generation.
func WithIDSource(fn func() uuid.UUID) Option {
	return func(s *Submitter) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithClock overrides the intent timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(s *Submitter) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewSubmitter wires a submitter over the given transport.
func NewSubmitter(transport Transport, logger zerolog.Logger, opts ...Option) *Submitter {
	s := &Submitter{
		transport: transport,
		logger:    logger,
		newID:     uuid.New,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InFlight reports whether a submission is awaiting the backend.
func (s *Submitter) InFlight() bool { return s.inFlight.Load() }

// BuildIntent prices the entries under the offer and freezes the result into a
// new intent. Entries with a non-positive quantity are dropped.
func (s *Submitter) BuildIntent(entries []cart.Entry, o offer.Offer) (PaymentIntent, error) {
	lines := positive(entries)
	if len(lines) == 0 {
		return PaymentIntent{}, ErrEmptySelection
	}
	return newIntent(s.newID(), s.now(), lines, o), nil
}

// Pay builds an intent and submits it. The returned intent is valid whenever the
// error is not ErrEmptySelection or ErrSubmissionInFlight.
func (s *Submitter) Pay(ctx context.Context, entries []cart.Entry, o offer.Offer) (PaymentIntent, error) {
	intent, err := s.BuildIntent(entries, o)
	if err != nil {
		record("payment", "rejected", 0)
		return PaymentIntent{}, err
	}
	if s.transport == nil {
		return PaymentIntent{}, ErrNoTransport
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		record("payment", "busy", 0)
		return PaymentIntent{}, ErrSubmissionInFlight
	}
	defer s.inFlight.Store(false)

	ctx, span := otel.Tracer("checkout.Submitter").Start(ctx, "Submitter.Pay")
	defer span.End()
	span.SetAttributes(
		attribute.String("payment.intent.id", intent.ID.String()),
		attribute.Int("payment.intent.lines", len(intent.Items)),
		attribute.String("payment.intent.final_amount", intent.FinalAmount.StringFixed(2)),
	)

	start := time.Now()
	result, err := s.transport.SubmitPayment(ctx, intent)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		record("payment", "error", elapsed)
		s.logger.Error().Err(err).Str("intent_id", intent.ID.String()).Msg("payment_submit_failed")
		return intent, fmt.Errorf("submit payment: %w", err)
	}
	if !result.Success {
		record("payment", "declined", elapsed)
		s.logger.Warn().Str("intent_id", intent.ID.String()).Str("reason", result.Message).Msg("payment_declined")
		return intent, &DeclinedError{IntentID: intent.ID, Message: result.Message}
	}
	record("payment", "success", elapsed)
	if o != nil && intent.Subtotal.GreaterThan(intent.FinalAmount) && obs.OfferAppliedTotal != nil {
		obs.OfferAppliedTotal.WithLabelValues(string(o.Kind())).Inc()
	}
	s.logger.Info().
		Str("intent_id", intent.ID.String()).
		Str("subtotal", intent.Subtotal.StringFixed(2)).
		Str("final_amount", intent.FinalAmount.StringFixed(2)).
		Msg("payment_accepted")
	return intent, nil
}

// PlaceOrder submits the entries as a plain order totalled without any offer.
func (s *Submitter) PlaceOrder(ctx context.Context, entries []cart.Entry) (OrderRequest, error) {
	lines := positive(entries)
	if len(lines) == 0 {
		record("order", "rejected", 0)
		return OrderRequest{}, ErrEmptySelection
	}
	if s.transport == nil {
		return OrderRequest{}, ErrNoTransport
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		record("order", "busy", 0)
		return OrderRequest{}, ErrSubmissionInFlight
	}
	defer s.inFlight.Store(false)

	ctx, span := otel.Tracer("checkout.Submitter").Start(ctx, "Submitter.PlaceOrder")
	defer span.End()

	req := newOrder(lines)
	start := time.Now()
	if err := s.transport.SubmitOrder(ctx, req); err != nil {
		span.RecordError(err)
		record("order", "error", time.Since(start))
		s.logger.Error().Err(err).Msg("order_submit_failed")
		return req, fmt.Errorf("submit order: %w", err)
	}
	record("order", "success", time.Since(start))
	s.logger.Info().Int("lines", len(req.Items)).Str("total", req.Total.StringFixed(2)).Msg("order_placed")
	return req, nil
}

// LogSelection forwards the reviewed selection for analytics. It does not take
// the in-flight slot and its failures never block the flow.
func (s *Submitter) LogSelection(ctx context.Context, entries []cart.Entry) error {
	lines := positive(entries)
	if len(lines) == 0 {
		return ErrEmptySelection
	}
	if s.transport == nil {
		return ErrNoTransport
	}
	start := time.Now()
	if err := s.transport.LogSelection(ctx, lines); err != nil {
		record("selection", "error", time.Since(start))
		s.logger.Warn().Err(err).Msg("selection_log_failed")
		return fmt.Errorf("log selection: %w", err)
	}
	record("selection", "success", time.Since(start))
	return nil
}

func record(kind, result string, elapsed time.Duration) {
	if obs.SubmissionTotal != nil {
		obs.SubmissionTotal.WithLabelValues(kind, result).Inc()
	}
	if elapsed > 0 && obs.SubmissionLatency != nil {
		obs.SubmissionLatency.WithLabelValues(kind).Observe(obs.DurationMillis(elapsed))
	}
}

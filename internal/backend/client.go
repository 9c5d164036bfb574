// Package backend talks to the remote ordering backend over HTTP.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/dinein-kiosk/internal/cart"
	"github.com/noah-isme/dinein-kiosk/internal/checkout"
	"github.com/noah-isme/dinein-kiosk/internal/common"
	"github.com/noah-isme/dinein-kiosk/internal/config"
	"github.com/noah-isme/dinein-kiosk/internal/menu"
	"github.com/noah-isme/dinein-kiosk/internal/obs"
	"github.com/noah-isme/dinein-kiosk/internal/offer"
	"github.com/noah-isme/dinein-kiosk/internal/resilience"
	"github.com/noah-isme/dinein-kiosk/internal/wire"
)

// Endpoint paths on the ordering backend.
const (
	PathMenu         = "/menu"
	PathOffers       = "/offers"
	PathOrder        = "/order"
	PathPayment      = "/process_payment/"
	PathSelectionLog = "/log_selected_items/"
)

// ErrUnexpectedStatus marks a backend answer outside the expected status range.
var ErrUnexpectedStatus = errors.New("backend: unexpected status")

const maxErrorBody = 64 << 10

// Config describes how to reach the backend.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Breaker    *resilience.Breaker
	HTTPClient *http.Client
	Metrics    *obs.ClientMetrics
	Logger     zerolog.Logger
}

// Client implements menu.Fetcher, offer.Fetcher and checkout.Transport. Requests
// are never retried.
type Client struct {
	base   *url.URL
	http   resilience.HTTPClient
	logger zerolog.Logger
}

var (
	_ menu.Fetcher       = (*Client)(nil)
	_ offer.Fetcher      = (*Client)(nil)
	_ checkout.Transport = (*Client)(nil)
)

// NewClient validates cfg and builds a client.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil || !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("backend: base url %q must be absolute", cfg.BaseURL)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	transport := hc.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	instrumented := *hc
	instrumented.Transport = otelhttp.NewTransport(obs.InstrumentedTransport{Base: transport, Metrics: cfg.Metrics})
	return &Client{
		base: base,
		http: resilience.HTTPClient{
			Client:      &instrumented,
			Breaker:     cfg.Breaker,
			MaxAttempts: 1,
			Timeout:     cfg.Timeout,
		},
		logger: cfg.Logger,
	}, nil
}

// NewClientFromConfig wires a client, its breaker and its metrics from application config.
func NewClientFromConfig(cfg *config.Config, logger zerolog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("backend: config is nil")
	}
	logger = obs.Component(logger, "backend")
	breaker := resilience.NewBreaker(cfg.BreakerMinRequests, cfg.BreakerFailureRatio, cfg.BreakerOpenFor).
		WithTarget("ordering_backend").
		WithLogger(logger)
	return NewClient(Config{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.RequestTimeout,
		Breaker: breaker,
		Metrics: obs.NewClientMetrics(cfg.MetricsNamespace, nil),
		Logger:  logger,
	})
}

// FetchMenu implements menu.Fetcher.
func (c *Client) FetchMenu(ctx context.Context) ([]menu.Item, error) {
	resp, err := c.do(ctx, http.MethodGet, PathMenu, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := expect2xx(resp); err != nil {
		return nil, err
	}
	items, err := wire.DecodeMenu(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode menu: %w", err)
	}
	return items, nil
}

// FetchOffers implements offer.Fetcher. Malformed offers are logged and skipped.
func (c *Client) FetchOffers(ctx context.Context) ([]offer.Offer, error) {
	resp, err := c.do(ctx, http.MethodGet, PathOffers, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := expect2xx(resp); err != nil {
		return nil, err
	}
	offers, err := wire.DecodeOffers(resp.Body)
	if err != nil {
		if len(offers) == 0 {
			return nil, fmt.Errorf("decode offers: %w", err)
		}
		c.logger.Warn().Err(err).Int("accepted", len(offers)).Msg("offers_partially_rejected")
	}
	return offers, nil
}

// SubmitOrder implements checkout.Transport.
func (c *Client) SubmitOrder(ctx context.Context, req checkout.OrderRequest) error {
	resp, err := c.do(ctx, http.MethodPost, PathOrder, wire.FromOrder(req), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expect2xx(resp)
}

// SubmitPayment implements checkout.Transport. A 4xx answer is a declined
// payment carrying the backend's message; 5xx answers are errors.
func (c *Client) SubmitPayment(ctx context.Context, intent checkout.PaymentIntent) (checkout.PaymentResult, error) {
	headers := http.Header{}
	headers.Set(common.IdempotencyHeader, intent.ID.String())
	resp, err := c.do(ctx, http.MethodPost, PathPayment, wire.FromIntent(intent), headers)
	if err != nil {
		return checkout.PaymentResult{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return checkout.PaymentResult{}, fmt.Errorf("read payment response: %w", err)
	}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var ack wire.PaymentAck
		if len(bytes.TrimSpace(body)) > 0 {
			if err := json.Unmarshal(body, &ack); err != nil {
				return checkout.PaymentResult{}, fmt.Errorf("decode payment response: %w", err)
			}
		}
		return checkout.PaymentResult{Success: ack.Accepted(), Message: ack.Message}, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return checkout.PaymentResult{Success: false, Message: declineMessage(body)}, nil
	default:
		return checkout.PaymentResult{}, statusError(resp.StatusCode, body)
	}
}

// LogSelection implements checkout.Transport.
func (c *Client) LogSelection(ctx context.Context, entries []cart.Entry) error {
	resp, err := c.do(ctx, http.MethodPost, PathSelectionLog, wire.FromSelection(entries), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expect2xx(resp)
}

func (c *Client) do(ctx context.Context, method, path string, payload any, headers http.Header) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", method).Str("path", path).Msg("backend_request_failed")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.logger.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("backend_request")
	return resp, nil
}

func expect2xx(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return statusError(resp.StatusCode, body)
}

// statusError turns an error answer into an AppError, keeping the backend's
// code and message when the body follows the error envelope.
func statusError(status int, body []byte) error {
	appErr := common.NewAppError(common.CodeUnavailable, http.StatusText(status), status,
		fmt.Errorf("%w %d", ErrUnexpectedStatus, status))
	var env common.ErrorEnvelope
	if json.Unmarshal(body, &env) == nil && env.Error.Code != "" {
		appErr.Code = env.Error.Code
		appErr.Message = env.Error.Message
		appErr.Details = env.Error.Details
	}
	return appErr
}

func declineMessage(body []byte) string {
	var payload struct {
		wire.PaymentAck
		Error *common.ErrorBody `json:"error,omitempty"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	if payload.Error != nil {
		return payload.Error.Message
	}
	return ""
}

package ratelimit

import (
	"context"
	"fmt"
	"time"

	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter counts an event for key and decides whether it is within budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Memory is an in-process fixed window limiter.
type Memory struct {
	inner *limiter.Limiter
}

// NewMemory builds a Memory limiter from a formatted rate such as "120-M".
func NewMemory(formatted string) (*Memory, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", formatted, err)
	}
	return &Memory{inner: limiter.New(memory.NewStore(), rate)}, nil
}

// Allow implements Limiter.
func (m *Memory) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := m.inner.Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   !res.Reached,
		Limit:     int(res.Limit),
		Remaining: int(res.Remaining),
		ResetAt:   time.Unix(res.Reset, 0),
	}, nil
}

// ParseRate exposes the window and budget encoded in a formatted rate.
func ParseRate(formatted string) (time.Duration, int, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return 0, 0, fmt.Errorf("parse rate %q: %w", formatted, err)
	}
	return rate.Period, int(rate.Limit), nil
}

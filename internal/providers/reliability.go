package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	defaultAttempts   = 4
	defaultRetryDelay = time.Second
	maxRetryDelay     = 16 * time.Second

	// Consecutive failed calls (after retries) before the breaker opens.
	breakerTrip = 3
)

// guard wraps every provider call with a client-side rate limit, a
// circuit breaker and retries on 429/5xx.
type guard struct {
	name     string
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	attempts uint
	delay    time.Duration
}

func newGuard(name string) *guard {
	return &guard{
		name:    name,
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 2),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    0,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerTrip
			},
		}),
		attempts: defaultAttempts,
		delay:    defaultRetryDelay,
	}
}

func (g *guard) do(ctx context.Context, fn func(context.Context) error) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	_, err := g.breaker.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(g.attempts),
			retry.LastErrorOnly(true),
			retry.RetryIf(isRetryable),
			retry.DelayType(func(n uint, err error, _ retry.DelayContext) time.Duration {
				var rl *rateLimitError
				if errors.As(err, &rl) && rl.retryAfter > 0 {
					return min(rl.retryAfter, maxRetryDelay)
				}
				return g.backoff(n)
			}),
		)
		return nil, r.Do(func() error { return fn(ctx) })
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &unavailableError{provider: g.name, err: err}
	}
	return err
}

// backoff doubles the base delay per attempt, capped at maxRetryDelay.
func (g *guard) backoff(n uint) time.Duration {
	if n > 10 {
		n = 10
	}
	d := g.delay << n
	if d > maxRetryDelay {
		d = maxRetryDelay
	}
	return d
}

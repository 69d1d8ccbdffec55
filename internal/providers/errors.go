package providers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type rateLimitError struct {
	body       string
	retryAfter time.Duration
}

func (e *rateLimitError) Error() string {
	if e.body == "" {
		return "rate limited"
	}
	return "rate limited: " + e.body
}

type authError struct {
	message string
}

func (e *authError) Error() string {
	return "authentication error: " + e.message
}

type serverError struct {
	statusCode int
	body       string
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.statusCode, e.body)
}

// unavailableError is returned while the circuit breaker is open.
type unavailableError struct {
	provider string
	err      error
}

func (e *unavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.provider, e.err)
}

func (e *unavailableError) Unwrap() error { return e.err }

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	var ae *authError
	return errors.As(err, &ae)
}

// IsUnavailable reports whether the provider was skipped because its
// circuit breaker is open.
func IsUnavailable(err error) bool {
	var ue *unavailableError
	return errors.As(err, &ue)
}

// isRetryable reports whether another attempt could succeed.
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var rl *rateLimitError
	var se *serverError
	return errors.As(err, &rl) || errors.As(err, &se)
}

// parseRetryAfter reads the delay-seconds form of Retry-After. Anything
// else yields 0.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

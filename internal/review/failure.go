package review

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/dshills/reviewgate/internal/providers"
)

// FailureKind classifies why a review produced no verdict.
type FailureKind string

const (
	FailureAuth      FailureKind = "auth"
	FailureTimeout   FailureKind = "timeout"
	FailureTransport FailureKind = "transport"
	FailureMalformed FailureKind = "malformed"
)

// Failure is returned by Engine.Review when no verdict could be produced.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("review failed (%s): %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Message is a one-line explanation suitable for a prompt or modal.
func (f *Failure) Message() string {
	switch f.Kind {
	case FailureAuth:
		return "The review provider rejected the credentials or none are configured."
	case FailureTimeout:
		return "The review did not finish in time."
	case FailureMalformed:
		return "The review provider returned a response that could not be understood."
	default:
		return fmt.Sprintf("The review provider could not be reached: %v", f.Err)
	}
}

// AsFailure extracts a *Failure from err's chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// classify wraps a provider error in a Failure of the matching kind.
func classify(err error) *Failure {
	if f, ok := AsFailure(err); ok {
		return f
	}
	switch {
	case providers.IsAuthError(err):
		return &Failure{Kind: FailureAuth, Err: err}
	case errors.Is(err, context.DeadlineExceeded), isNetTimeout(err):
		return &Failure{Kind: FailureTimeout, Err: err}
	default:
		return &Failure{Kind: FailureTransport, Err: err}
	}
}

func isNetTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

package presenter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dshills/reviewgate/internal/review"
)

// Choice is the human's answer to a notice.
type Choice int

const (
	ChoiceCancel Choice = iota
	ChoiceForce
)

func (c Choice) String() string {
	if c == ChoiceForce {
		return "force"
	}
	return "cancel"
}

// ErrTimeout is returned when nobody answers within the presenter timeout.
var ErrTimeout = errors.New("no answer before the presenter timeout")

// Notice is what a presenter shows. Exactly one of Verdict and Failure is
// set.
type Notice struct {
	Verdict        *review.Verdict
	Failure        *review.Failure
	Diff           string
	CommitMessage  string
	RepositoryPath string
}

// IsFailure reports whether the notice describes a review that did not
// produce a verdict.
func (n Notice) IsFailure() bool {
	return n.Verdict == nil
}

// FailureMessage returns the user-facing reason for a failure notice.
func (n Notice) FailureMessage() string {
	if n.Failure == nil {
		return "The review did not produce a result."
	}
	return n.Failure.Message()
}

// Presenter shows a notice to a human and returns their choice. An error
// means no choice was made and the commit must not proceed.
type Presenter interface {
	Present(ctx context.Context, n Notice) (Choice, error)
}

// Func adapts a function to the Presenter interface.
type Func func(ctx context.Context, n Notice) (Choice, error)

func (f Func) Present(ctx context.Context, n Notice) (Choice, error) {
	return f(ctx, n)
}

// Mode is a non-interactive policy for one kind of notice.
type Mode string

const (
	ModePrompt  Mode = "prompt"
	ModeCancel  Mode = "cancel"
	ModeProceed Mode = "proceed"
)

// ParseMode accepts prompt, cancel or proceed. Empty means prompt.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModePrompt, nil
	case ModePrompt, ModeCancel, ModeProceed:
		return m, nil
	default:
		return "", fmt.Errorf("invalid mode %q (want prompt, cancel or proceed)", s)
	}
}

// Policy answers notices according to fixed modes and hands ModePrompt
// notices to Next. When Out is set, notices Policy answers itself are
// rendered there first.
type Policy struct {
	OnIssues  Mode
	OnFailure Mode
	Next      Presenter
	Out       io.Writer
}

func (p *Policy) Present(ctx context.Context, n Notice) (Choice, error) {
	mode := p.OnIssues
	if n.IsFailure() {
		mode = p.OnFailure
	}
	if mode == ModePrompt && p.Next != nil {
		return p.Next.Present(ctx, n)
	}

	if p.Out != nil {
		if err := Render(p.Out, n, false); err != nil {
			return ChoiceCancel, err
		}
	}
	switch mode {
	case ModeProceed:
		return ChoiceForce, nil
	case ModeCancel:
		return ChoiceCancel, nil
	default:
		return ChoiceCancel, errors.New("no interactive presenter configured")
	}
}

package channel

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned by channel operations.
var (
	// ErrNoRequest means no request artifact is present (or another
	// responder claimed it first).
	ErrNoRequest = errors.New("no pending review request")

	// ErrNotOwner means a request is pending but belongs to another scope.
	ErrNotOwner = errors.New("review request belongs to another workspace")

	// ErrMalformed means an artifact exists but does not parse.
	ErrMalformed = errors.New("malformed channel artifact")

	// ErrClaimedMalformed means a request was claimed but its content could
	// not be parsed. The claimer still owns it and must resolve a decision.
	ErrClaimedMalformed = errors.New("claimed review request is malformed")
)

// Action is the wire value of a decision.
type Action string

const (
	ActionForceCommit Action = "forceCommit"
	ActionCancel      Action = "cancel"
)

// Normalize maps any value other than forceCommit to cancel.
func (a Action) Normalize() Action {
	if a == ActionForceCommit {
		return ActionForceCommit
	}
	return ActionCancel
}

// Outcome returns the requester-side outcome for a decision action.
func (a Action) Outcome() Outcome {
	if a == ActionForceCommit {
		return OutcomeProceed
	}
	return OutcomeAbort
}

// Outcome is the result of waiting for a decision.
type Outcome int

const (
	OutcomeAbort Outcome = iota
	OutcomeProceed
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeProceed:
		return "proceed"
	case OutcomeTimedOut:
		return "timedOut"
	default:
		return "abort"
	}
}

// Request is one pending review ask. RepositoryPath is the owner context a
// responder matches against its scope. Timestamp is Unix milliseconds and is
// only used for diagnostics.
type Request struct {
	Diff           string `json:"diff"`
	CommitMessage  string `json:"commitMessage"`
	RepositoryPath string `json:"repositoryPath"`
	Timestamp      int64  `json:"timestamp"`
}

// NewRequest stamps a request with the current time.
func NewRequest(diff, commitMessage, repositoryPath string) Request {
	return Request{
		Diff:           diff,
		CommitMessage:  commitMessage,
		RepositoryPath: repositoryPath,
		Timestamp:      time.Now().UnixMilli(),
	}
}

// CreatedAt returns the request timestamp as a time.Time.
func (r Request) CreatedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Decision is the resolved outcome of a request.
type Decision struct {
	Action    Action `json:"action"`
	Timestamp int64  `json:"timestamp"`
}

// NewDecision stamps a normalized decision with the current time.
func NewDecision(action Action) Decision {
	return Decision{
		Action:    action.Normalize(),
		Timestamp: time.Now().UnixMilli(),
	}
}

// decodeRequest parses a request artifact. The diff field must be present;
// everything else may be empty.
func decodeRequest(data []byte) (Request, error) {
	var raw struct {
		Diff           *string `json:"diff"`
		CommitMessage  string  `json:"commitMessage"`
		RepositoryPath string  `json:"repositoryPath"`
		Timestamp      int64   `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw.Diff == nil {
		return Request{}, fmt.Errorf("%w: request has no diff field", ErrMalformed)
	}
	return Request{
		Diff:           *raw.Diff,
		CommitMessage:  raw.CommitMessage,
		RepositoryPath: raw.RepositoryPath,
		Timestamp:      raw.Timestamp,
	}, nil
}

// decodeDecision parses a decision artifact. Unknown actions are normalized
// to cancel; an unparsable artifact returns ErrMalformed.
func decodeDecision(data []byte) (Decision, error) {
	var d Decision
	if err := json.Unmarshal(data, &d); err != nil {
		return Decision{Action: ActionCancel}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	d.Action = d.Action.Normalize()
	return d, nil
}

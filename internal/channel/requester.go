package channel

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reference timings for the requester side.
const (
	DefaultPollInterval   = 500 * time.Millisecond
	DefaultRequestTimeout = 5 * time.Minute
)

// RequestOptions controls how long and how often the requester waits.
type RequestOptions struct {
	PollInterval time.Duration
	Timeout      time.Duration
}

func (o RequestOptions) withDefaults() RequestOptions {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultRequestTimeout
	}
	return o
}

// RequestDecision publishes req and blocks until a responder resolves it or
// the timeout elapses. It returns OutcomeTimedOut (with ctx.Err()) if ctx is
// cancelled first. A non-nil error with OutcomeAbort means the request could
// not be published at all.
func (c *Channel) RequestDecision(ctx context.Context, req Request, opts RequestOptions) (Outcome, error) {
	opts = opts.withDefaults()

	// A decision left over from an earlier cycle must never be read as the
	// answer to this one.
	if err := c.RemoveDecision(); err != nil {
		return OutcomeAbort, err
	}

	// Watch before publishing so a fast responder cannot slip its decision
	// in between.
	w, err := c.WatchDecisions()
	if err != nil {
		c.log.Debug("file watch unavailable, polling only", zap.Error(err))
	}
	defer w.Close()

	if err := c.WriteRequest(req); err != nil {
		return OutcomeAbort, err
	}
	c.log.Info("review request published",
		zap.String("path", c.RequestPath()),
		zap.String("repositoryPath", req.RepositoryPath),
		zap.Duration("timeout", opts.Timeout))

	deadline := time.NewTimer(opts.Timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		if d, ok := c.takeDecision(); ok {
			outcome := d.Action.Outcome()
			c.log.Info("decision received", zap.String("action", string(d.Action)), zap.Stringer("outcome", outcome))
			return outcome, nil
		}

		select {
		case <-ticker.C:
		case <-w.C():
		case <-deadline.C:
			// One last look: the decision may have landed on the deadline.
			if d, ok := c.takeDecision(); ok {
				return d.Action.Outcome(), nil
			}
			c.abandon()
			c.log.Warn("timed out waiting for review decision", zap.Duration("timeout", opts.Timeout))
			return OutcomeTimedOut, nil
		case <-ctx.Done():
			c.abandon()
			c.log.Warn("stopped waiting for review decision", zap.Error(ctx.Err()))
			return OutcomeTimedOut, ctx.Err()
		}
	}
}

// abandon removes both artifacts after the requester gives up. An unclaimed
// request is safe to delete; a decision arriving later would otherwise be
// stale for the next cycle.
func (c *Channel) abandon() {
	if err := c.RemoveRequest(); err != nil {
		c.log.Warn("removing abandoned request failed", zap.Error(err))
	}
	if err := c.RemoveDecision(); err != nil {
		c.log.Warn("removing stale decision failed", zap.Error(err))
	}
}

package responder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/reviewgate/internal/channel"
	"github.com/dshills/reviewgate/internal/metrics"
	"github.com/dshills/reviewgate/internal/presenter"
	"github.com/dshills/reviewgate/internal/review"
)

// Reference timings for the responder side.
const (
	DefaultTick          = time.Second
	DefaultReviewTimeout = 90 * time.Second
)

// Reason labels why a decision was made. It is logged and used as a metric
// label.
type Reason string

const (
	ReasonAutoPass       Reason = "auto_pass"
	ReasonHuman          Reason = "human"
	ReasonReviewFailed   Reason = "review_failed"
	ReasonPresenterError Reason = "presenter_error"
	ReasonMalformed      Reason = "malformed"
	ReasonPanic          Reason = "panic"
)

// Engine reviews one diff. *review.Engine satisfies it.
type Engine interface {
	Review(ctx context.Context, diff string, g review.Guidelines) (*review.Verdict, error)
}

// Responder watches a channel for requests that belong to its scope,
// reviews them and writes a decision for every request it claims.
type Responder struct {
	Channel   *channel.Channel
	Scope     []string
	Engine    Engine
	Presenter presenter.Presenter

	// Tick is the polling period. Zero means DefaultTick.
	Tick time.Duration
	// ReviewTimeout bounds one engine call. Zero means DefaultReviewTimeout.
	ReviewTimeout time.Duration
	// RulesFile is an optional YAML rules file, relative to the repository.
	RulesFile string

	Logger  *zap.Logger
	Metrics *metrics.Metrics

	lastSkipped int64
}

// Run handles requests until ctx is cancelled. Requests are handled one at
// a time on the calling goroutine.
func (r *Responder) Run(ctx context.Context) error {
	log := r.logger()
	w, err := r.Channel.WatchRequests()
	if err != nil {
		log.Debug("file watch unavailable, polling only", zap.Error(err))
	}
	defer w.Close()

	tick := r.Tick
	if tick <= 0 {
		tick = DefaultTick
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	log.Info("responder started",
		zap.String("dir", r.Channel.Dir()),
		zap.Strings("scope", r.Scope),
		zap.Duration("tick", tick))

	for {
		if _, err := r.HandleOnce(ctx); err != nil {
			log.Error("handling review request", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			log.Info("responder stopped")
			return nil
		case <-ticker.C:
		case <-w.C():
		}
	}
}

// HandleOnce claims and resolves at most one request. handled is true when
// a request was claimed; in that case a decision has been written unless
// err reports that writing it failed.
func (r *Responder) HandleOnce(ctx context.Context) (handled bool, err error) {
	log := r.logger()

	req, err := r.Channel.Claim(r.Scope)
	switch {
	case errors.Is(err, channel.ErrNoRequest):
		return false, nil
	case errors.Is(err, channel.ErrNotOwner):
		r.noteSkipped(log)
		return false, nil
	case errors.Is(err, channel.ErrMalformed):
		log.Debug("ignoring malformed request", zap.Error(err))
		return false, nil
	case errors.Is(err, channel.ErrClaimedMalformed):
		log.Warn("claimed request is malformed, cancelling", zap.Error(err))
		return true, r.resolve(log, channel.ActionCancel, ReasonMalformed)
	case err != nil:
		return false, err
	}

	if r.Metrics != nil {
		r.Metrics.Claimed.Inc()
	}
	log = log.With(
		zap.String("requestId", uuid.NewString()),
		zap.String("repositoryPath", req.RepositoryPath))

	action, reason := r.decide(ctx, log, req)
	return true, r.resolve(log, action, reason)
}

// Decide reviews req and asks the presenter when needed. It never fails:
// anything that goes wrong is a cancel.
func (r *Responder) Decide(ctx context.Context, req channel.Request) (channel.Action, Reason) {
	return r.decide(ctx, r.logger(), req)
}

func (r *Responder) decide(ctx context.Context, log *zap.Logger, req channel.Request) (action channel.Action, reason Reason) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("panic while handling request", zap.Any("panic", p), zap.Stack("stack"))
			action, reason = channel.ActionCancel, ReasonPanic
		}
	}()

	v, err := r.review(ctx, log, req)
	notice := presenter.Notice{
		Verdict:        v,
		Diff:           req.Diff,
		CommitMessage:  req.CommitMessage,
		RepositoryPath: req.RepositoryPath,
	}
	reason = ReasonHuman
	if err != nil {
		f, ok := review.AsFailure(err)
		if !ok {
			f = &review.Failure{Kind: review.FailureTransport, Err: err}
		}
		log.Warn("review failed", zap.String("kind", string(f.Kind)), zap.Error(err))
		notice.Verdict = nil
		notice.Failure = f
		reason = ReasonReviewFailed
	} else if !v.NeedsDecision() {
		log.Info("review passed", zap.String("status", string(v.Status)))
		return channel.ActionForceCommit, ReasonAutoPass
	}

	if r.Presenter == nil {
		log.Warn("no presenter configured, cancelling")
		return channel.ActionCancel, ReasonPresenterError
	}
	choice, err := r.Presenter.Present(ctx, notice)
	if err != nil {
		log.Warn("presenter gave no answer, cancelling", zap.Error(err))
		return channel.ActionCancel, ReasonPresenterError
	}
	log.Info("human decision", zap.Stringer("choice", choice))
	if choice == presenter.ChoiceForce {
		return channel.ActionForceCommit, reason
	}
	return channel.ActionCancel, reason
}

func (r *Responder) review(ctx context.Context, log *zap.Logger, req channel.Request) (*review.Verdict, error) {
	if r.Engine == nil {
		return nil, &review.Failure{Kind: review.FailureTransport, Err: errors.New("no review engine configured")}
	}

	repo := req.RepositoryPath
	if repo == "" && len(r.Scope) > 0 {
		repo = r.Scope[0]
	}
	g, err := review.LoadGuidelines(repo, r.RulesFile)
	if err != nil {
		log.Warn("rules file ignored", zap.String("rulesFile", r.RulesFile), zap.Error(err))
	}

	timeout := r.ReviewTimeout
	if timeout <= 0 {
		timeout = DefaultReviewTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	v, err := r.Engine.Review(ctx, req.Diff, g)
	result := "ok"
	if err != nil {
		result = "error"
		if ctx.Err() == context.DeadlineExceeded {
			if _, ok := review.AsFailure(err); !ok {
				err = &review.Failure{Kind: review.FailureTimeout, Err: err}
			}
		}
	} else if v == nil {
		result = "error"
		err = &review.Failure{Kind: review.FailureMalformed, Err: errors.New("engine returned no verdict")}
	}
	if r.Metrics != nil {
		r.Metrics.ReviewDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	}
	return v, err
}

func (r *Responder) resolve(log *zap.Logger, action channel.Action, reason Reason) error {
	if err := r.Channel.Resolve(action); err != nil {
		return fmt.Errorf("resolving request: %w", err)
	}
	if r.Metrics != nil {
		r.Metrics.Decisions.WithLabelValues(string(action.Normalize()), string(reason)).Inc()
	}
	log.Info("request resolved", zap.String("action", string(action)), zap.String("reason", string(reason)))
	return nil
}

// noteSkipped counts a foreign request once, however many ticks it stays
// pending.
func (r *Responder) noteSkipped(log *zap.Logger) {
	req, err := r.Channel.ReadRequest()
	if err != nil || req.Timestamp == r.lastSkipped {
		return
	}
	r.lastSkipped = req.Timestamp
	log.Debug("request belongs to another workspace", zap.String("repositoryPath", req.RepositoryPath))
	if r.Metrics != nil {
		r.Metrics.Skipped.Inc()
	}
}

func (r *Responder) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger.Named("responder")
}

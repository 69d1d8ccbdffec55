package review

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/reviewgate/internal/cache"
	"github.com/dshills/reviewgate/internal/providers"
	"github.com/dshills/reviewgate/internal/redact"
)

// Options configures an Engine.
type Options struct {
	Model         string
	Temperature   float64
	MaxTokens     int
	RedactSecrets bool
	RedactPaths   []string
	// Timeout bounds one Review call. Zero leaves it to the caller's context.
	Timeout time.Duration
	Cache   *cache.Cache
	Logger  *zap.Logger
}

// Engine turns a diff into a Verdict with one provider call.
type Engine struct {
	provider providers.Reviewer
	setupErr error
	opts     Options
	log      *zap.Logger
}

// NewEngine returns an engine backed by provider.
func NewEngine(provider providers.Reviewer, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{provider: provider, opts: opts, log: log.Named("review")}
}

// Unavailable returns an engine whose every review fails with err. It lets
// a responder start without credentials and report the problem per request.
func Unavailable(err error, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{setupErr: err, log: log.Named("review")}
}

// Review redacts the diff, consults the cache, calls the provider once and
// parses the answer. Any error returned is a *Failure.
func (e *Engine) Review(ctx context.Context, diff string, g Guidelines) (*Verdict, error) {
	if e.setupErr != nil {
		return nil, classify(e.setupErr)
	}

	redacted := diff
	if e.opts.RedactSecrets {
		res := redact.Diff(diff, e.opts.RedactPaths)
		if res.Total() > 0 || len(res.Withheld) > 0 {
			e.log.Info("redacted diff before review",
				zap.Int("secrets", res.Total()),
				zap.Strings("rules", res.Rules()),
				zap.Strings("withheld", res.Withheld))
		}
		redacted = res.Diff
	}
	if strings.TrimSpace(redacted) == "" {
		return &Verdict{Status: StatusSuccess, Summary: "No changes to review.", Issues: []Issue{}}, nil
	}

	userPrompt := BuildUserPrompt(redacted, g)
	key := cache.BuildCacheKey(e.provider.Name(), e.opts.Model, userPrompt)
	if data, ok := e.opts.Cache.Get(key); ok {
		if v, err := ParseVerdict(string(data)); err == nil {
			e.log.Debug("verdict served from cache", zap.String("status", string(v.Status)))
			ApplySeverityOverrides(v, g.Rules)
			return v, nil
		}
	}

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := e.provider.Review(ctx, providers.ReviewRequest{
		SystemPrompt: SystemPrompt(),
		UserPrompt:   userPrompt,
		MaxTokens:    e.opts.MaxTokens,
		Temperature:  e.opts.Temperature,
		JSONMode:     true,
	})
	if err != nil {
		f := classify(err)
		e.log.Warn("provider call failed",
			zap.String("provider", e.provider.Name()),
			zap.String("kind", string(f.Kind)),
			zap.Error(err))
		return nil, f
	}

	v, err := ParseVerdict(resp.Content)
	if err != nil {
		e.log.Warn("unparseable review response", zap.Error(err), zap.Int("bytes", len(resp.Content)))
		return nil, err
	}
	e.log.Debug("review complete",
		zap.String("status", string(v.Status)),
		zap.Int("issues", len(v.Issues)),
		zap.Int("tokens", resp.TokensUsed),
		zap.Duration("elapsed", time.Since(start)))

	if data, err := json.Marshal(v); err == nil {
		if err := e.opts.Cache.Put(key, data); err != nil {
			e.log.Debug("cache write failed", zap.Error(err))
		}
	}

	ApplySeverityOverrides(v, g.Rules)
	return v, nil
}

// Provider returns the underlying provider name, or "" for an unavailable
// engine.
func (e *Engine) Provider() string {
	if e.provider == nil {
		return ""
	}
	return e.provider.Name()
}

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/dshills/reviewgate/internal/cache"
	"github.com/dshills/reviewgate/internal/config"
	"github.com/dshills/reviewgate/internal/gitctx"
	"github.com/dshills/reviewgate/internal/logging"
	"github.com/dshills/reviewgate/internal/presenter"
	"github.com/dshills/reviewgate/internal/providers"
	"github.com/dshills/reviewgate/internal/review"
	"github.com/spf13/cobra"
)

// Shared flags
var (
	flagLogLevel     string
	flagLogFormat    string
	flagProvider     string
	flagModel        string
	flagBaseURL      string
	flagRules        string
	flagNoRedact     bool
	flagExclude      string
	flagContextLines int
	flagMaxDiffBytes int
	flagChannelDir   string
	flagOnIssues     string
	flagOnFailure    string
)

func addProviderFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider (openai, ollama, lmstudio)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	cmd.Flags().StringVar(&flagBaseURL, "base-url", "", "OpenAI-compatible server URL")
	cmd.Flags().StringVar(&flagRules, "rules", "", "Rules file path")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
}

func addDiffFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	cmd.Flags().IntVar(&flagContextLines, "context-lines", 0, "Number of context lines in diff")
	cmd.Flags().IntVar(&flagMaxDiffBytes, "max-diff-bytes", 0, "Skip review above this diff size")
}

func addChannelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagChannelDir, "channel-dir", "", "Directory holding the request and decision files")
}

func addDecisionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagOnIssues, "on-issues", "", "When the review finds issues: prompt, cancel or proceed")
	cmd.Flags().StringVar(&flagOnFailure, "on-failure", "", "When the review fails: prompt, cancel or proceed")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	set := func(key, v string) {
		if v != "" {
			m[key] = v
		}
	}
	set("provider", flagProvider)
	set("model", flagModel)
	set("baseURL", flagBaseURL)
	set("rulesFile", flagRules)
	set("channelDir", flagChannelDir)
	set("onIssues", flagOnIssues)
	set("onFailure", flagOnFailure)
	set("logLevel", flagLogLevel)
	set("logFormat", flagLogFormat)
	if flagContextLines > 0 {
		m["contextLines"] = fmt.Sprintf("%d", flagContextLines)
	}
	if flagMaxDiffBytes > 0 {
		m["maxDiffBytes"] = fmt.Sprintf("%d", flagMaxDiffBytes)
	}
	return m
}

func buildDiffOpts(cfg config.Config, dir string) gitctx.DiffOptions {
	opts := gitctx.DiffOptions{
		Dir:          dir,
		ContextLines: cfg.ContextLines,
		Exclude:      cfg.Exclude,
	}
	if flagExclude != "" {
		opts.Exclude = append(append([]string(nil), opts.Exclude...), splitComma(flagExclude)...)
	}
	return opts
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	return logging.New(cfg.LogLevel, cfg.LogFormat)
}

// newEngine builds the review engine for cfg. A provider that cannot be
// constructed yields an engine that reports the problem on every review.
func newEngine(cfg config.Config, log *zap.Logger) *review.Engine {
	if flagNoRedact {
		cfg.Privacy.RedactSecrets = false
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}

	p, err := providers.New(cfg.Provider, cfg.Model, providers.WithBaseURL(cfg.BaseURL))
	if err != nil {
		log.Warn("review provider unavailable", zap.String("provider", cfg.Provider), zap.Error(err))
		return review.Unavailable(err, log)
	}

	c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		log.Warn("cache disabled", zap.Error(err))
		c = nil
	}

	return review.NewEngine(p, review.Options{
		Model:         cfg.Model,
		Temperature:   cfg.Temperature,
		MaxTokens:     cfg.MaxTokens,
		RedactSecrets: cfg.Privacy.RedactSecrets,
		RedactPaths:   cfg.Privacy.RedactPaths,
		Timeout:       cfg.ReviewTimeout(),
		Cache:         c,
		Logger:        log,
	})
}

// newPresenter wraps an interactive terminal in the configured policy.
func newPresenter(cfg config.Config, in io.Reader, out io.Writer) (presenter.Presenter, error) {
	onIssues, err := presenter.ParseMode(cfg.OnIssues)
	if err != nil {
		return nil, err
	}
	onFailure, err := presenter.ParseMode(cfg.OnFailure)
	if err != nil {
		return nil, err
	}
	term := presenter.NewTerminal(in, out, cfg.PresenterTimeout())
	if f, ok := out.(*os.File); ok {
		term.Styled = isatty.IsTerminal(f.Fd())
	}
	return &presenter.Policy{OnIssues: onIssues, OnFailure: onFailure, Next: term}, nil
}

// exitForFailure maps a review failure to an exit code.
func exitForFailure(err error) int {
	if f, ok := review.AsFailure(err); ok && f.Kind == review.FailureAuth {
		return ExitAuthError
	}
	return ExitRuntimeError
}

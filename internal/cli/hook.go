package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dshills/reviewgate/internal/channel"
	"github.com/dshills/reviewgate/internal/config"
	"github.com/dshills/reviewgate/internal/gitctx"
	"github.com/dshills/reviewgate/internal/presenter"
	"github.com/dshills/reviewgate/internal/providers"
	"github.com/dshills/reviewgate/internal/responder"
	"github.com/spf13/cobra"
)

const (
	hookMarkerStart = "# >>> reviewgate pre-commit hook >>>"
	hookMarkerEnd   = "# <<< reviewgate pre-commit hook <<<"
)

// allowSkipEnv lets a commit through when no provider credentials are
// configured for an inline review.
const allowSkipEnv = "REVIEWGATE_ALLOW_SKIP"

// commitMessageEnv supplies the commit message when -m is not given.
const commitMessageEnv = "REVIEWGATE_COMMIT_MESSAGE"

var (
	flagMessage       string
	flagInline        bool
	flagInstallInline bool
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Run or manage the git pre-commit hook",
}

var hookRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Review the staged changes and exit 0 (allow) or 1 (block)",
	Long: "run is what the pre-commit hook executes. By default it hands the staged diff to a running " +
		"'reviewgate serve' and waits for the decision. With --inline it reviews in this process instead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		exitCode = runHook(ctx, "", os.Stdout)
		return nil
	},
}

// runHook performs one pre-commit check in dir and returns the hook exit
// code. Anything that prevents a decision blocks the commit.
func runHook(ctx context.Context, dir string, out io.Writer) int {
	root, err := gitctx.RepoRoot(ctx, dir)
	if err != nil {
		fmt.Fprintf(out, "reviewgate: %v\n", err)
		return ExitBlocked
	}
	if err := loadDotEnv(root); err != nil {
		fmt.Fprintf(out, "reviewgate: ignoring .env.local: %v\n", err)
	}

	overrides := buildOverrides()
	if _, ok := overrides["logLevel"]; !ok && os.Getenv(config.EnvName("logLevel")) == "" {
		overrides["logLevel"] = "warn"
	}
	cfg, err := config.Load(overrides)
	if err != nil {
		fmt.Fprintf(out, "reviewgate: %v\n", err)
		return ExitBlocked
	}
	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(out, "reviewgate: %v\n", err)
		return ExitBlocked
	}
	defer log.Sync()

	if flagInline && !providers.HasCredentials(cfg.Provider) {
		if os.Getenv(allowSkipEnv) == "true" {
			fmt.Fprintf(out, "reviewgate: no credentials for %s, skipping review (%s=true)\n", cfg.Provider, allowSkipEnv)
			return ExitSuccess
		}
		fmt.Fprintf(out, "reviewgate: no credentials for %s; set REVIEWGATE_OPENAI_API_KEY or %s=true in .env.local\n", cfg.Provider, allowSkipEnv)
		fmt.Fprintln(out, "reviewgate: commit blocked. Use git commit --no-verify to skip the review.")
		return ExitBlocked
	}

	diff, err := gitctx.Staged(ctx, buildDiffOpts(cfg, root))
	if err != nil {
		fmt.Fprintf(out, "reviewgate: %v\n", err)
		return ExitBlocked
	}
	switch {
	case diff.Empty():
		fmt.Fprintln(out, "reviewgate: no staged changes to review")
		return ExitSuccess
	case len(diff.Diff) > cfg.MaxDiffBytes:
		fmt.Fprintf(out, "reviewgate: staged diff is %d bytes (limit %d), skipping review\n", len(diff.Diff), cfg.MaxDiffBytes)
		return ExitSuccess
	case diff.DeletionOnly():
		fmt.Fprintln(out, "reviewgate: only deletions staged, skipping review")
		return ExitSuccess
	}
	fmt.Fprintf(out, "reviewgate: %d lines added, %d removed in %d files\n", diff.Added, diff.Deleted, len(diff.Files))

	msg := flagMessage
	if msg == "" {
		msg = os.Getenv(commitMessageEnv)
	}
	req := channel.NewRequest(diff.Diff, msg, root)

	if flagInline {
		return runInline(ctx, cfg, log, req, out)
	}
	return requestDecision(ctx, cfg, log, req, out)
}

func requestDecision(ctx context.Context, cfg config.Config, log *zap.Logger, req channel.Request, out io.Writer) int {
	ch := channel.New(cfg.ChannelDir, log)
	fmt.Fprintln(out, "reviewgate: waiting for the review decision from 'reviewgate serve'...")

	outcome, err := ch.RequestDecision(ctx, req, channel.RequestOptions{
		PollInterval: cfg.PollInterval(),
		Timeout:      cfg.RequestTimeout(),
	})
	switch {
	case outcome == channel.OutcomeProceed:
		fmt.Fprintln(out, "reviewgate: commit allowed")
		return ExitSuccess
	case outcome == channel.OutcomeTimedOut:
		fmt.Fprintf(out, "reviewgate: no decision within %s, commit blocked. Is 'reviewgate serve' running?\n", cfg.RequestTimeout())
	case err != nil:
		fmt.Fprintf(out, "reviewgate: %v\n", err)
	default:
		fmt.Fprintln(out, "reviewgate: commit cancelled")
	}
	fmt.Fprintln(out, "reviewgate: use git commit --no-verify to skip the review.")
	return ExitBlocked
}

func runInline(ctx context.Context, cfg config.Config, log *zap.Logger, req channel.Request, out io.Writer) int {
	pres, closeTTY, err := inlinePresenter(cfg, out)
	if err != nil {
		fmt.Fprintf(out, "reviewgate: %v\n", err)
		return ExitBlocked
	}
	defer closeTTY()

	r := &responder.Responder{
		Scope:         []string{req.RepositoryPath},
		Engine:        newEngine(cfg, log),
		Presenter:     pres,
		ReviewTimeout: cfg.ReviewTimeout(),
		RulesFile:     cfg.RulesFile,
		Logger:        log,
	}
	fmt.Fprintln(out, "reviewgate: reviewing staged changes...")
	action, reason := r.Decide(ctx, req)
	if action == channel.ActionForceCommit {
		if reason == responder.ReasonAutoPass {
			fmt.Fprintln(out, "reviewgate: review passed")
		} else {
			fmt.Fprintln(out, "reviewgate: committing despite the review")
		}
		return ExitSuccess
	}
	fmt.Fprintln(out, "reviewgate: commit blocked. Fix the issues above or use git commit --no-verify.")
	return ExitBlocked
}

// inlinePresenter prompts on the controlling terminal when there is one.
// Git hooks usually run without a usable stdin, so /dev/tty is opened
// directly; without it ModePrompt cancels.
func inlinePresenter(cfg config.Config, out io.Writer) (presenter.Presenter, func(), error) {
	onIssues, err := presenter.ParseMode(cfg.OnIssues)
	if err != nil {
		return nil, nil, err
	}
	onFailure, err := presenter.ParseMode(cfg.OnFailure)
	if err != nil {
		return nil, nil, err
	}
	p := &presenter.Policy{OnIssues: onIssues, OnFailure: onFailure, Out: out}
	if onIssues != presenter.ModePrompt && onFailure != presenter.ModePrompt {
		return p, func() {}, nil
	}
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return p, func() {}, nil
	}
	p.Next = presenter.NewTerminal(tty, tty, cfg.PresenterTimeout())
	return p, func() { tty.Close() }, nil
}

// loadDotEnv reads KEY=value pairs from .env.local in the repository root.
// Variables already set in the environment win.
func loadDotEnv(root string) error {
	err := godotenv.Load(filepath.Join(root, ".env.local"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install reviewgate as a git pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := gitctx.HookPath(context.Background(), "", "pre-commit")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if err := installHook(hookPath, flagInstallInline); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		fmt.Fprintf(os.Stdout, "Installed reviewgate pre-commit hook at %s\n", hookPath)
		if flagInstallInline {
			fmt.Fprintln(os.Stdout, "Mode: inline. Each commit is reviewed in the hook and prompts on this terminal.")
		} else {
			fmt.Fprintln(os.Stdout, "Mode: channel. Keep 'reviewgate serve' running in this repository; commits wait for its decision.")
		}
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the reviewgate pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := gitctx.HookPath(context.Background(), "", "pre-commit")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		res, err := uninstallHook(hookPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		switch res {
		case hookAbsent:
			fmt.Fprintln(os.Stdout, "No reviewgate section in the pre-commit hook; nothing to remove.")
		case hookDeleted:
			fmt.Fprintf(os.Stdout, "Removed %s (it only ran reviewgate)\n", hookPath)
		default:
			fmt.Fprintf(os.Stdout, "Removed the reviewgate section from %s; other hook commands kept\n", hookPath)
		}
		return nil
	},
}

// installHook writes the reviewgate section into the hook at path, keeping
// any other commands already there.
func installHook(path string, inline bool) error {
	section := generateHookScript(inline)
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	content := "#!/bin/sh\n" + section
	if len(existing) > 0 {
		content = replaceHookSection(string(existing), section)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating hooks directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

type uninstallResult int

const (
	hookAbsent uninstallResult = iota
	hookTrimmed
	hookDeleted
)

// uninstallHook removes the reviewgate section. A hook left with nothing
// but a shebang is deleted.
func uninstallHook(path string) (uninstallResult, error) {
	existing, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return hookAbsent, nil
	}
	if err != nil {
		return hookAbsent, fmt.Errorf("reading %s: %w", path, err)
	}
	if !strings.Contains(string(existing), hookMarkerStart) {
		return hookAbsent, nil
	}

	content := removeHookSection(string(existing))
	switch strings.TrimSpace(content) {
	case "", "#!/bin/sh", "#!/bin/bash":
		if err := os.Remove(path); err != nil {
			return hookAbsent, fmt.Errorf("removing %s: %w", path, err)
		}
		return hookDeleted, nil
	}
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		return hookAbsent, fmt.Errorf("writing %s: %w", path, err)
	}
	return hookTrimmed, nil
}

func generateHookScript(inline bool) string {
	run := "reviewgate hook run"
	if inline {
		run += " --inline"
	}
	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	b.WriteString(run + "\n")
	b.WriteString("REVIEWGATE_EXIT=$?\n")
	b.WriteString("if [ $REVIEWGATE_EXIT -ne 0 ]; then\n")
	b.WriteString("  exit 1\n")
	b.WriteString("fi\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

func replaceHookSection(existing, section string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}

	before := existing[:startIdx]
	after := existing[endIdx+len(hookMarkerEnd):]
	after = strings.TrimPrefix(after, "\n")
	return before + section + after
}

func removeHookSection(existing string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		return existing
	}

	before := existing[:startIdx]
	after := existing[endIdx+len(hookMarkerEnd):]
	after = strings.TrimPrefix(after, "\n")

	return before + after
}

func init() {
	hookCmd.AddCommand(hookRunCmd)
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)

	hookRunCmd.Flags().StringVarP(&flagMessage, "message", "m", "", "Commit message shown with the review (default $"+commitMessageEnv+")")
	hookRunCmd.Flags().BoolVar(&flagInline, "inline", false, "Review in this process instead of waiting for 'reviewgate serve'")
	addProviderFlags(hookRunCmd)
	addDiffFlags(hookRunCmd)
	addChannelFlags(hookRunCmd)
	addDecisionFlags(hookRunCmd)

	hookInstallCmd.Flags().BoolVar(&flagInstallInline, "inline", false, "Install a hook that reviews inline")
}

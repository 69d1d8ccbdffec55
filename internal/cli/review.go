package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dshills/reviewgate/internal/config"
	"github.com/dshills/reviewgate/internal/gitctx"
	"github.com/dshills/reviewgate/internal/output"
	"github.com/dshills/reviewgate/internal/review"
	"github.com/spf13/cobra"
)

var (
	flagFormat string
	flagOut    string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review the staged changes once and print the verdict",
	Long: "review runs the same review the hook would, without the decision channel. " +
		"It exits 1 when the verdict would need a human decision.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		if _, err := output.GetWriter(flagFormat); err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx := context.Background()
		diff, err := gitctx.Staged(ctx, buildDiffOpts(cfg, ""))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if len(diff.Diff) > cfg.MaxDiffBytes {
			fmt.Fprintf(os.Stderr, "Error: staged diff is %d bytes, above maxDiffBytes %d\n", len(diff.Diff), cfg.MaxDiffBytes)
			exitCode = ExitRuntimeError
			return nil
		}

		g, err := review.LoadGuidelines(diff.Root, cfg.RulesFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading rules: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		v, err := newEngine(cfg, log).Review(ctx, diff.Diff, g)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = exitForFailure(err)
			return nil
		}

		if err := output.WriteVerdict(v, flagFormat, flagOut); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if v.NeedsDecision() {
			exitCode = ExitBlocked
		}
		return nil
	},
}

func init() {
	addProviderFlags(reviewCmd)
	addDiffFlags(reviewCmd)
	reviewCmd.Flags().StringVar(&flagFormat, "format", "text", "Output format (text, json, markdown)")
	reviewCmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
}

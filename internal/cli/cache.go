package cli

import (
	"fmt"
	"os"

	"github.com/dshills/reviewgate/internal/cache"
	"github.com/dshills/reviewgate/internal/config"
	"github.com/spf13/cobra"
)

var flagExpiredOnly bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or empty the verdict cache",
	Long: "Verdicts are cached by provider, model and redacted prompt, so re-running a cancelled " +
		"commit with the same staged diff does not call the model again.",
}

// openCache opens the configured cache directory even when caching is
// switched off, so stale verdicts can still be cleared.
func openCache() (*cache.Cache, config.Config, error) {
	cfg, err := config.Load(nil)
	if err != nil {
		return nil, cfg, err
	}
	c, err := cache.New(true, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		return nil, cfg, fmt.Errorf("opening verdict cache: %w", err)
	}
	return c, cfg, nil
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached verdicts",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := openCache()
		if err != nil {
			return err
		}
		remove, what := c.Clear, "cached verdicts"
		if flagExpiredOnly {
			remove, what = c.Prune, "expired or unreadable verdicts"
		}
		n, err := remove()
		if err != nil {
			return fmt.Errorf("clearing %s: %w", c.Dir(), err)
		}
		fmt.Fprintf(os.Stdout, "Removed %d %s from %s\n", n, what, c.Dir())
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show where verdicts are cached and how many are live",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cfg, err := openCache()
		if err != nil {
			return err
		}
		stats, err := c.GetStats()
		if err != nil {
			return fmt.Errorf("reading %s: %w", c.Dir(), err)
		}

		state := "enabled"
		if !cfg.Cache.Enabled {
			state = "disabled (reviews always call the model)"
		}
		fmt.Fprintf(os.Stdout, "Verdict cache: %s\n", state)
		fmt.Fprintf(os.Stdout, "  directory  %s\n", stats.Dir)
		fmt.Fprintf(os.Stdout, "  verdicts   %d (%d expired)\n", stats.Entries, stats.Expired)
		fmt.Fprintf(os.Stdout, "  size       %.1f KiB\n", float64(stats.TotalBytes)/1024)
		fmt.Fprintf(os.Stdout, "  ttl        %ds\n", cfg.Cache.TTLSeconds)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	cacheClearCmd.Flags().BoolVar(&flagExpiredOnly, "expired", false, "Only remove expired or unreadable verdicts")
}

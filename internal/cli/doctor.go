package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dshills/reviewgate/internal/channel"
	"github.com/dshills/reviewgate/internal/config"
	"github.com/dshills/reviewgate/internal/providers"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check provider credentials and the decision channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		ch := channel.New(cfg.ChannelDir, nil)
		if info, err := os.Stat(ch.Dir()); err != nil || !info.IsDir() {
			fmt.Fprintf(os.Stderr, "FAIL: channel directory %s is not usable\n", ch.Dir())
			exitCode = ExitRuntimeError
			return nil
		}
		fmt.Fprintf(os.Stdout, "Channel: %s\n", ch.RequestPath())
		if req, err := ch.ReadRequest(); err == nil {
			fmt.Fprintf(os.Stdout, "  pending request for %q since %s\n",
				req.RepositoryPath, req.CreatedAt().Format(time.RFC3339))
		}

		fmt.Fprintf(os.Stdout, "Checking %s (%s)...\n", cfg.Provider, cfg.Model)

		p, err := providers.New(cfg.Provider, cfg.Model, providers.WithBaseURL(cfg.BaseURL))
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			exitCode = ExitAuthError
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		_, err = p.Review(ctx, providers.ReviewRequest{
			SystemPrompt: "Respond with exactly: ok",
			UserPrompt:   "ping",
			MaxTokens:    10,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			if providers.IsAuthError(err) {
				exitCode = ExitAuthError
			} else {
				exitCode = ExitRuntimeError
			}
			return nil
		}

		fmt.Fprintf(os.Stdout, "OK: %s is configured and responding\n", cfg.Provider)
		return nil
	},
}

func init() {
	addProviderFlags(doctorCmd)
	addChannelFlags(doctorCmd)
}

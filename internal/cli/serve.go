package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/reviewgate/internal/channel"
	"github.com/dshills/reviewgate/internal/config"
	"github.com/dshills/reviewgate/internal/gitctx"
	"github.com/dshills/reviewgate/internal/metrics"
	"github.com/dshills/reviewgate/internal/responder"
	"github.com/spf13/cobra"
)

var (
	flagScope       []string
	flagMetricsAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the responder that reviews commits for this workspace",
	Long: "serve watches the decision channel for review requests from the pre-commit hook. " +
		"Requests whose repository lies inside (or contains) one of the --scope folders are reviewed; " +
		"the verdict is shown here and the answer is sent back to the waiting hook.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		scope := flagScope
		if len(scope) == 0 {
			scope = []string{defaultScope(ctx)}
		}

		pres, err := newPresenter(cfg, os.Stdin, os.Stdout)
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		r := &responder.Responder{
			Channel:       channel.New(cfg.ChannelDir, log),
			Scope:         scope,
			Engine:        newEngine(cfg, log),
			Presenter:     pres,
			Tick:          cfg.Tick(),
			ReviewTimeout: cfg.ReviewTimeout(),
			RulesFile:     cfg.RulesFile,
			Logger:        log,
			Metrics:       metrics.New(reg),
		}

		fmt.Fprintf(os.Stdout, "reviewgate: waiting for commits in %v (Ctrl-C to stop)\n", scope)
		if err := serve(ctx, r, flagMetricsAddr, log); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
		}
		return nil
	},
}

// serve runs the responder and, when addr is set, a /metrics listener until
// ctx is done or either fails.
func serve(ctx context.Context, r *responder.Responder, addr string, log *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.Run(gctx) })

	if addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", r.Metrics.Handler())
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			log.Info("metrics listener started", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listener: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// defaultScope is the repository containing the working directory, or the
// working directory itself outside a repository.
func defaultScope(ctx context.Context) string {
	if root, err := gitctx.RepoRoot(ctx, ""); err == nil {
		return root
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func init() {
	serveCmd.Flags().StringSliceVar(&flagScope, "scope", nil, "Workspace folders this responder owns (default: current repository)")
	serveCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9464")
	addProviderFlags(serveCmd)
	addChannelFlags(serveCmd)
	addDecisionFlags(serveCmd)
}

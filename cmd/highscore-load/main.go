// Command highscore-load submits concurrent scores to a highscore service
// and verifies the resulting ranking.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/highscore/internal/loadgen"
	"github.com/okian/highscore/pkg/logger"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var (
		cfg      loadgen.Config
		logLevel string
	)
	cmd := &cobra.Command{
		Use:   "highscore-load",
		Short: "Load-test a highscore service and verify its ranking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			if err := logger.InitWithOptions(logger.WithLevel(logLevel), logger.WithWriter(os.Stderr)); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stats, err := loadgen.Run(ctx, cfg, logger.Named("loadgen"))
			if stats != nil {
				fmt.Fprintf(cmd.OutOrStdout(),
					"table=%s submitted=%d accepted=%d evicted=%d failed=%d entries=%d duration=%s\n",
					stats.Table, stats.Submitted, stats.Accepted, stats.Evicted, stats.Failed, stats.Entries, stats.Duration)
			}
			return err
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&cfg.BaseURL, "url", "http://localhost:8080", "base URL of the highscore service")
	fs.StringVar(&cfg.Table, "table", "", "table to submit to (default: a fresh load-* table)")
	fs.IntVar(&cfg.Count, "count", 1000, "number of submissions")
	fs.IntVar(&cfg.Workers, "workers", 8, "number of concurrent workers")
	fs.IntVar(&cfg.Size, "size", 0, "expected table capacity; 0 skips the length check")
	fs.StringVar(&cfg.Salt, "salt", "", "salt for computing secrets; empty sends none")
	fs.DurationVar(&cfg.Timeout, "timeout", 10*time.Second, "HTTP request timeout")
	fs.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	return cmd
}

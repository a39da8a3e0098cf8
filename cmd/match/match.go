// Package match implements the "match" subcommand: one end-to-end backlog
// pass over the external store's unmatched candidates.
package match

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kuben-developer/fpmatch/internal/conf"
	"github.com/kuben-developer/fpmatch/internal/logging"
	"github.com/kuben-developer/fpmatch/internal/pipeline"
	"github.com/kuben-developer/fpmatch/internal/store"
)

// Command builds the "match" subcommand.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Run one backlog pass, matching unmatched candidates against the reference catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, ok := conf.FromContext(cmd.Context())
			if !ok {
				return fmt.Errorf("configuration not loaded")
			}

			if err := logging.Init(filepath.Join(settings.OutputDir, "matcher.log")); err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			defer func() { _ = logging.Close() }()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
			go func() {
				sig := <-sigChan
				logging.Info("received shutdown signal, finishing in-flight work", "signal", sig.String())
				cancel()
			}()

			client := store.New(store.Config{
				BaseURL:       settings.Store.BaseURL,
				DeployKey:     settings.Store.DeployKey,
				HTTPTimeout:   settings.HTTPTimeout,
				RetryAttempts: settings.RetryAttempts,
			})
			defer client.Close()

			driver := pipeline.New(settings, client)

			err := driver.Run(ctx)
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	return cmd
}

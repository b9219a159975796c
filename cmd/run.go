// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/intake-cli/internal/config"
	"github.com/xkilldash9x/intake-cli/internal/observability"
	"github.com/xkilldash9x/intake-cli/internal/runner"
	"github.com/xkilldash9x/intake-cli/internal/service"
)

// looper is the part of runner.Runner the run command drives.
type looper interface {
	Loop(ctx context.Context) (runner.Summary, error)
}

// newLooper is swapped in tests.
var newLooper = func(cfg *config.Config, deps runner.Deps, logger *zap.Logger) looper {
	return runner.New(cfg, deps, logger)
}

// newRunCmd creates and configures the `run` command.
func newRunCmd(factory service.ComponentFactory) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Generates profiles and fills the intake form with them",
		Long: `Generates a synthetic applicant, appends it to the workbook, then opens a
browser and walks the intake form page by page. With --count the sequence
repeats, paced by run.interval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runIntake(ctx, cfg, factory, observability.GetLogger(), cmd.OutOrStdout())
		},
	}

	runCmd.Flags().StringP("browser", "b", "", "Browser to drive: chrome, chromium, firefox, edge or safari. (Overrides config/env)")
	runCmd.Flags().String("driver", "", "Force a backend: cdp, rod or webdriver. (Overrides config/env)")
	runCmd.Flags().Bool("headless", false, "Run the browser without a window. (Overrides config/env)")
	runCmd.Flags().IntP("count", "n", 0, "Number of runs. (Overrides config/env)")
	runCmd.Flags().Duration("interval", 0, "Minimum time between run starts. (Overrides config/env)")
	runCmd.Flags().Bool("submit", false, "Click the final submit button. (Overrides config/env)")
	runCmd.Flags().String("url", "", "Start page of the form. (Overrides config/env)")
	return runCmd
}

func runIntake(ctx context.Context, cfg *config.Config, factory service.ComponentFactory, logger *zap.Logger, out io.Writer) error {
	logger.Info("Starting intake runs",
		zap.String("url", cfg.Form.URL),
		zap.String("browser", cfg.Browser.Name),
		zap.Int("count", cfg.Run.Count),
		zap.Duration("interval", cfg.Run.Interval),
		zap.Bool("submit", cfg.Form.Submit),
	)

	components, err := factory.Create(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize run components: %w", err)
	}
	defer components.Shutdown()

	summary, err := newLooper(cfg, components.Deps(), logger).Loop(ctx)
	fmt.Fprintf(out, "\nRuns: %d  Succeeded: %d  Failed: %d\n", summary.Runs, summary.Succeeded, summary.Failed)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("Runs aborted by user signal", zap.Int("completed", summary.Runs))
		}
		return err
	}
	if summary.Succeeded == 0 {
		return fmt.Errorf("all %d runs failed", summary.Runs)
	}
	return nil
}

package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/shaiso/gapfill/internal/telemetry"
)

// NewRunCmd создаёт команду разового прохода.
func NewRunCmd(g *Globals) *cobra.Command {
	var opts appOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Detect missing days and backfill them once",
		Long: `Checks the trailing 7-day window of every configured process,
calls the backfill procedure for each missing day and sends one final
notification. Exits non-zero only when the configuration is invalid or
defines no processes; failed procedures are reported, not fatal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, g, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.rec.Run(ctx, a.cfg.Processes(), a.today())
			if err != nil {
				return err
			}

			if err := telemetry.PushMetrics(ctx, a.cfg.Metrics.PushgatewayURL, prometheus.DefaultGatherer); err != nil {
				a.logger.Warn("failed to push metrics", "error", err)
			}

			if g.JSON {
				g.output().JSON(report)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.console, "console", false, "Also print the final notification to stdout")
	cmd.Flags().BoolVar(&opts.notifyStart, "notify-start", false, "Send a notification before the run starts")

	return cmd
}

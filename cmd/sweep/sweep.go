// Package sweep implements the notification sweep subcommand.
package sweep

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dinewatch/dinewatch-go/internal/conf"
	"github.com/dinewatch/dinewatch-go/internal/datastore"
	"github.com/dinewatch/dinewatch-go/internal/notify"
	"github.com/dinewatch/dinewatch-go/internal/observability"
)

// Command creates the sweep subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Check followed restaurants for changes and generate notifications",
		Long: "Compare each followed restaurant's latest inspection against its " +
			"stored snapshot, create notifications for grade changes, new inspections " +
			"and violations, and expire old notifications.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, settings, days)
		},
	}

	cmd.Flags().IntVar(&days, "days", settings.Notify.LookbackDays, "Number of days to look back for new inspections")

	return cmd
}

func runSweep(cmd *cobra.Command, settings *conf.Settings, days int) error {
	ds, err := datastore.New(settings)
	if err != nil {
		return err
	}
	if err := ds.Open(); err != nil {
		return err
	}
	defer func() { _ = ds.Close() }()

	metrics, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	pusher, err := notify.NewPusher(settings)
	if err != nil {
		return fmt.Errorf("failed to set up push notifications: %w", err)
	}

	generator := notify.New(ds, settings, pusher, metrics)
	report, err := generator.Sweep(cmd.Context(), days)
	if err != nil {
		return err
	}

	cmd.Println(report.String())
	return nil
}

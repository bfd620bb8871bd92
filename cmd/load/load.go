// Package load implements the CSV import subcommand.
package load

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dinewatch/dinewatch-go/internal/conf"
	"github.com/dinewatch/dinewatch-go/internal/datastore"
	"github.com/dinewatch/dinewatch-go/internal/importer"
)

// Command creates the load subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	var truncate bool

	cmd := &cobra.Command{
		Use:   "load [csv file]",
		Short: "Load NYC restaurant inspection CSV data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, settings, args[0], truncate)
		},
	}

	cmd.Flags().BoolVar(&truncate, "truncate", false, "Delete all existing records before loading")

	return cmd
}

func runLoad(cmd *cobra.Command, settings *conf.Settings, path string, truncate bool) error {
	ds, err := datastore.New(settings)
	if err != nil {
		return err
	}
	if err := ds.Open(); err != nil {
		return err
	}
	defer func() { _ = ds.Close() }()

	loader := importer.New(ds, settings)
	stats, err := loader.Load(cmd.Context(), path, truncate)
	if err != nil {
		return err
	}

	cmd.Printf("Loaded %d rows (%d read, %d skipped) in %s\n",
		stats.RowsInserted, stats.RowsRead, stats.RowsSkipped, stats.Duration.Round(time.Millisecond))
	return nil
}

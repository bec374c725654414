package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/troubleshoot/internal/adapters/driving/watch"
)

var (
	watchScan   bool
	watchSettle = watch.DefaultSettle
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest files as they appear in a directory",
	Long: `Watches a directory and ingests supported files when they are created
or modified. Deleting a file removes its document. Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchScan, "scan", true, "ingest existing files before watching")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", watch.DefaultSettle, "quiet period before a changed file is ingested")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	svc, err := requireIngest()
	if err != nil {
		return err
	}

	w := watch.New(args[0], svc,
		watch.WithSettle(watchSettle),
		watch.WithFilter(supportsFile),
		watch.WithInitialScan(watchScan),
		watch.WithResults(func(r watch.Result) {
			switch {
			case r.Err != nil:
				cmd.PrintErrf("%s: %v\n", r.Action.Path, r.Err)
			case r.Action.Kind == watch.ActionRemove:
				cmd.Printf("removed %s\n", r.Action.Path)
			case r.Report != nil:
				printReport(cmd, r.Report)
			}
		}),
	)

	cmd.Printf("Watching %s\n", args[0])
	err = w.Run(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

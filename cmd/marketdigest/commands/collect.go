package commands

import (
	"os"

	"marketdigest/internal/collect"

	"github.com/spf13/cobra"
)

var collectDir string

func init() {
	collectCmd.Flags().StringVar(&collectDir, "dir", "data", "The directory to write the datasets to, it is kept after the run.")
	rootCmd.AddCommand(collectCmd)
}

var collectCmd = &cobra.Command{
	Use:   "collect [--dir <path/to/dir>]",
	Short: "Runs every source and keeps the resulting CSV files.",
	Run: func(cmd *cobra.Command, args []string) {
		err := os.MkdirAll(collectDir, 0755)
		if err != nil {
			fatal("failed to create output directory", err)
		}

		sources, err := collect.NewSources(settings.HttpTimeout(), newClock(), tel)
		if err != nil {
			fatal("failed to create source clients", err)
		}
		outcomes := collect.NewRunner(collect.DefaultAdapters(sources), tel).Run(cmd.Context(), collectDir)
		renderOutcomes(os.Stdout, outcomes)
	},
}

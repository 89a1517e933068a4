package commands

import (
	"fmt"

	"marketdigest/internal/report"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report <path/to/dir>",
	Short: "Prints the report of a directory written by collect.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(report.NewAssembler(args[0], newClock()).Assemble())
	},
}

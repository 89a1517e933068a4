package commands

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"marketdigest/internal/merge"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	mergeWorkbook string
	mergeCsv      string
)

func init() {
	mergeCmd.Flags().StringVar(&mergeWorkbook, "workbook", merge.DefaultWorkbookName, "The name of the workbook written inside the directory.")
	mergeCmd.Flags().StringVar(&mergeCsv, "csv", merge.DefaultFlatName, "The name of the merged CSV written inside the directory.")
	rootCmd.AddCommand(mergeCmd)
}

var mergeCmd = &cobra.Command{
	Use:   "merge <path/to/dir> [--workbook <name>] [--csv <name>]",
	Short: "Merges every CSV file of a directory into a workbook and a single CSV file.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := args[0]
		merger := merge.NewMerger(tel)

		t := newTable(os.Stdout)
		t.AppendHeader(table.Row{"Output", "Included", "Skipped", "Status"})

		failed := 0
		appendResult := func(out string, result merge.Result, err error) {
			status := "ok"
			if errors.Is(err, merge.ErrNoDatasets) {
				status = "nothing to merge"
				failed++
			} else if err != nil {
				slog.Error("merge failed", "output", out, "err", err)
				status = "failed"
				failed++
			}
			t.AppendRow(table.Row{
				out,
				strings.Join(result.Included, "\n"),
				strings.Join(result.Skipped, "\n"),
				status,
			})
		}

		workbook := filepath.Join(dir, mergeWorkbook)
		flat := filepath.Join(dir, mergeCsv)

		result, err := merger.Workbook(dir, workbook, flat)
		appendResult(workbook, result, err)

		result, err = merger.Flat(dir, flat, workbook)
		appendResult(flat, result, err)

		t.Render()
		if failed == 2 {
			exit(1)
		}
	},
}

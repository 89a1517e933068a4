package commands

import (
	"fmt"
	"os"

	"marketdigest/internal/collect"
	"marketdigest/internal/pipeline"
	"marketdigest/internal/report"
	"marketdigest/internal/sinks"
	"marketdigest/internal/sinks/notion"
	"marketdigest/internal/sinks/telegram"

	"github.com/spf13/cobra"
)

var (
	runExportDir string
	runDryRun    bool
)

func init() {
	runCmd.Flags().StringVar(&runExportDir, "export", "", "Also write the merged workbook and CSV to this directory.")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Print the report instead of pushing it.")
	rootCmd.AddCommand(runCmd)
}

func newSinks() []sinks.Sink {
	return []sinks.Sink{
		notion.NewClient(notion.Options{
			Token:   settings.Notion.Token,
			PageId:  settings.Notion.PageId,
			Title:   settings.Report.Title,
			Timeout: settings.HttpTimeout(),
		}, tel),
		telegram.NewClient(telegram.Options{
			BotToken: settings.Telegram.BotToken,
			ChatId:   settings.Telegram.ChatId,
			Timeout:  settings.HttpTimeout(),
		}, tel),
	}
}

var runCmd = &cobra.Command{
	Use:   "run [--export <dir>] [--dry-run]",
	Short: "Collects every source, builds the report and pushes it to every sink.",
	Run: func(cmd *cobra.Command, args []string) {
		clock := newClock()
		sources, err := collect.NewSources(settings.HttpTimeout(), clock, tel)
		if err != nil {
			fatal("failed to create source clients", err)
		}

		summary := pipeline.Run(cmd.Context(), pipeline.Options{
			Adapters:  collect.DefaultAdapters(sources),
			Sections:  report.DefaultSections,
			Sinks:     newSinks(),
			Clock:     clock,
			ExportDir: runExportDir,
			DryRun:    runDryRun,
		}, tel)

		renderOutcomes(os.Stderr, summary.Outcomes)
		if runDryRun {
			fmt.Println(summary.Report)
		}
		fmt.Println(summary.StatusLine())

		if summary.Err != nil || summary.AllSinksFailed() {
			exit(1)
		}
	},
}

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"marketdigest/internal/components/chrono"
	"marketdigest/internal/components/telemetry"
	"marketdigest/internal/config"
	"marketdigest/internal/scrapers/scraperutil"
	"marketdigest/lib/restyutil"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	dumpHttp   string

	settings config.Settings
	tracing  telemetry.Tracing
	tel      telemetry.API = telemetry.SlogAPI{}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "The settings file, a .local variant next to it overrides it.")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log every request made.")
	rootCmd.PersistentFlags().StringVar(&dumpHttp, "dump-http", "", "Write every scraper request and response to this directory.")
}

var rootCmd = &cobra.Command{
	Use:   "marketdigest",
	Short: "marketdigest collects daily market snapshots and pushes a digest to Notion and Telegram.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(os.Stderr, verbose)

		var err error
		settings, err = config.Load(configPath)
		if err != nil {
			fatal("failed to load settings", err)
		}

		if dumpHttp != "" {
			output, err := restyutil.NewFilesystemOutput(dumpHttp)
			if err != nil {
				fatal("failed to prepare http dump directory", err)
			}
			scraperutil.SetDumpOutput(output)
		}

		tracing, err = telemetry.SetupTracing(cmd.Context(), "marketdigest", settings.Otlp)
		if err != nil {
			slog.Warn("tracing disabled", "err", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		shutdownTracing()
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func shutdownTracing() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := tracing.Shutdown(ctx)
	if err != nil {
		slog.Warn("failed to flush traces", "err", err)
	}
}

// exit flushes traces before leaving with `code`, os.Exit skips deferred calls and
// PersistentPostRun.
func exit(code int) {
	shutdownTracing()
	os.Exit(code)
}

func fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	exit(1)
}

func newClock() chrono.API {
	clock, err := chrono.NewStandardImpl()
	if err != nil {
		fatal("failed to load exchange timezone", err)
	}
	return clock
}

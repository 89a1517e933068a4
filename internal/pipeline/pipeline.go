// Package pipeline runs one complete collection: scratch directory, sources, report,
// optional export and sinks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"marketdigest/internal/collect"
	"marketdigest/internal/components/chrono"
	"marketdigest/internal/components/telemetry"
	"marketdigest/internal/merge"
	"marketdigest/internal/report"
	"marketdigest/internal/scratch"
	"marketdigest/internal/sinks"
)

const (
	report_pipeline_run    = "pipeline.run"
	report_pipeline_export = "pipeline.export"
	report_pipeline_push   = "pipeline.push"
)

const scratchPrefix = "marketdigest_"

type Options struct {
	Adapters []collect.Adapter
	Sections []report.Section
	Sinks    []sinks.Sink
	Clock    chrono.API
	// ExportDir receives the merged workbook and flat CSV, nothing is exported when empty.
	ExportDir string
	// DryRun builds the report without pushing it anywhere.
	DryRun bool
}

type SinkResult struct {
	Name string
	Err  error
}

type ExportResult struct {
	Workbook string
	Flat     string
	Err      error
}

type Summary struct {
	Report string
	// ScratchDir is where the datasets were written, it no longer exists once Run returns.
	ScratchDir string
	Outcomes   []collect.Outcome
	Export     *ExportResult
	Sinks      []SinkResult
	// Err is set when the run could not even start (no scratch directory).
	Err error
}

// AllSinksFailed is true when at least one sink was attempted and none succeeded.
func (s Summary) AllSinksFailed() bool {
	if len(s.Sinks) == 0 {
		return false
	}
	for _, r := range s.Sinks {
		if r.Err == nil {
			return false
		}
	}
	return true
}

func (s Summary) Collected() int {
	count := 0
	for _, o := range s.Outcomes {
		if o.OK() {
			count++
		}
	}
	return count
}

// StatusLine is the one line printed at the end of every run.
func (s Summary) StatusLine() string {
	if s.Err != nil {
		return fmt.Sprintf("run aborted: %v", s.Err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "report generated: %d/%d sources collected", s.Collected(), len(s.Outcomes))
	if s.Export != nil {
		if s.Export.Err != nil {
			sb.WriteString(", export failed")
		} else {
			sb.WriteString(", exported")
		}
	}
	if len(s.Sinks) == 0 {
		sb.WriteString(", no sinks pushed")
		return sb.String()
	}
	for _, r := range s.Sinks {
		if r.Err != nil {
			fmt.Fprintf(&sb, ", %s skipped", r.Name)
		} else {
			fmt.Fprintf(&sb, ", %s ok", r.Name)
		}
	}
	return sb.String()
}

// Run executes the pipeline. It never fails half-way: every source, the export and every
// sink are attempted and their failures are collected in the summary.
func Run(ctx context.Context, opts Options, tel telemetry.API) Summary {
	tel = telemetry.NewScopedAPI("pipeline", tel)

	dir, err := scratch.Acquire(scratchPrefix)
	if err != nil {
		tel.ReportBroken(report_pipeline_run, fmt.Errorf("acquire scratch directory: %w", err))
		return Summary{Err: err}
	}
	defer func() {
		err := dir.Release()
		if err != nil {
			tel.ReportWarning(report_pipeline_run, fmt.Errorf("release scratch directory: %w", err))
		}
	}()

	summary := Summary{ScratchDir: dir.Path()}
	summary.Outcomes = collect.NewRunner(opts.Adapters, tel).Run(ctx, dir.Path())

	sections := opts.Sections
	if sections == nil {
		sections = report.DefaultSections
	}
	summary.Report = report.Assembler{
		Dir:      dir.Path(),
		Sections: sections,
		Clock:    opts.Clock,
	}.Assemble()

	if opts.ExportDir != "" {
		export := Export(dir.Path(), opts.ExportDir, tel)
		summary.Export = &export
	}

	if opts.DryRun {
		return summary
	}
	for _, sink := range opts.Sinks {
		err := sink.Push(ctx, summary.Report)
		if err != nil {
			tel.ReportBroken(report_pipeline_push, sink.Name(), err)
		}
		summary.Sinks = append(summary.Sinks, SinkResult{Name: sink.Name(), Err: err})
	}
	return summary
}

// Export merges the datasets in `dir` into a workbook and a flat CSV inside `outDir`.
// Failures are reported and returned, they never abort the run.
func Export(dir, outDir string, tel telemetry.API) ExportResult {
	merger := merge.NewMerger(tel)
	result := ExportResult{
		Workbook: filepath.Join(outDir, merge.DefaultWorkbookName),
		Flat:     filepath.Join(outDir, merge.DefaultFlatName),
	}

	err := os.MkdirAll(outDir, 0755)
	if err != nil {
		tel.ReportBroken(report_pipeline_export, outDir, err)
		result.Err = err
		return result
	}

	var errs []error
	_, err = merger.Workbook(dir, result.Workbook, result.Flat)
	if err != nil {
		tel.ReportWarning(report_pipeline_export, result.Workbook, err)
		errs = append(errs, fmt.Errorf("workbook: %w", err))
	}
	_, err = merger.Flat(dir, result.Flat, result.Workbook)
	if err != nil {
		tel.ReportWarning(report_pipeline_export, result.Flat, err)
		errs = append(errs, fmt.Errorf("flat: %w", err))
	}
	result.Err = errors.Join(errs...)
	return result
}

package collect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"marketdigest/internal/components/telemetry"
	"marketdigest/internal/dataset"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_runner_collect = "runner.collect"
)

// Outcome is the result of running one adapter.
type Outcome struct {
	Name string
	File string
	Rows int
	Err  error
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

// Runner executes a fixed list of adapters sequentially, in order. A failing adapter is
// reported and skipped, it never prevents the following adapters from running.
type Runner struct {
	adapters []Adapter
	tel      telemetry.API
	tracer   trace.Tracer
}

func NewRunner(adapters []Adapter, tel telemetry.API) Runner {
	return Runner{
		adapters: adapters,
		tel:      telemetry.NewScopedAPI("collect", tel),
		tracer:   otel.Tracer("marketdigest/collect"),
	}
}

func (r Runner) Adapters() []Adapter {
	return r.adapters
}

// Run writes the dataset of every successful adapter to `dir` and returns one outcome per
// adapter in the order the adapters were given.
func (r Runner) Run(ctx context.Context, dir string) []Outcome {
	outcomes := make([]Outcome, 0, len(r.adapters))
	for _, adapter := range r.adapters {
		outcome := r.runOne(ctx, dir, adapter)
		if outcome.OK() {
			r.tel.ReportCount(adapter.Filename(), int64(outcome.Rows))
		} else if errors.Is(outcome.Err, ErrNoData) {
			r.tel.ReportWarning(report_runner_collect, adapter.Name(), outcome.Err)
		} else {
			r.tel.ReportBroken(report_runner_collect, adapter.Name(), outcome.Err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (r Runner) runOne(ctx context.Context, dir string, adapter Adapter) (outcome Outcome) {
	outcome = Outcome{Name: adapter.Name(), File: adapter.Filename()}

	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("collect %s", adapter.Filename()))
	defer span.End()
	span.SetAttributes(attribute.String("source", adapter.Name()))

	defer func() {
		if recovered := recover(); recovered != nil {
			outcome.Rows = 0
			outcome.Err = fmt.Errorf("panic: %v", recovered)
		}
		if outcome.Err != nil {
			span.RecordError(outcome.Err)
			span.SetStatus(codes.Error, outcome.Err.Error())
		}
	}()

	ds, err := adapter.Fetch(ctx)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	if !ds.Valid() {
		outcome.Err = ErrNoData
		return outcome
	}

	opts := dataset.WriteOptions{}
	if wo, ok := adapter.(writeOptioner); ok {
		opts = wo.WriteOptions()
	}
	path := filepath.Join(dir, adapter.Filename())
	err = dataset.WriteCSV(path, ds, opts)
	if err != nil {
		os.Remove(path)
		outcome.Err = err
		return outcome
	}

	outcome.Rows = len(ds.Rows)
	span.SetAttributes(attribute.Int("rows", outcome.Rows))
	return outcome
}

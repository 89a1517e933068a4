package collect

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"marketdigest/internal/components/telemetry"
	"marketdigest/internal/dataset"

	"github.com/stretchr/testify/require"
)

func staticAdapter(name, file string, rows ...[]string) Adapter {
	return New(name, file, func(ctx context.Context) (dataset.Dataset, error) {
		ds := dataset.New(file, "a", "b")
		for _, row := range rows {
			ds.Append(row...)
		}
		return ds, nil
	})
}

func TestRunnerIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	rec := &telemetry.Recorder{}

	adapters := []Adapter{
		staticAdapter("first", "first.csv", []string{"1", "2"}),
		New("broken", "broken.csv", func(ctx context.Context) (dataset.Dataset, error) {
			return dataset.Dataset{}, errors.New("upstream timed out")
		}),
		New("panics", "panics.csv", func(ctx context.Context) (dataset.Dataset, error) {
			panic("unexpected payload")
		}),
		staticAdapter("empty", "empty.csv"),
		staticAdapter("last", "last.csv", []string{"3", "4"}, []string{"5", "6"}),
	}

	outcomes := NewRunner(adapters, rec).Run(context.Background(), dir)
	require.Len(t, outcomes, 5)

	names := make([]string, len(outcomes))
	for i, o := range outcomes {
		names[i] = o.Name
	}
	require.Equal(t, []string{"first", "broken", "panics", "empty", "last"}, names)

	require.True(t, outcomes[0].OK())
	require.Equal(t, 1, outcomes[0].Rows)
	require.ErrorContains(t, outcomes[1].Err, "upstream timed out")
	require.ErrorContains(t, outcomes[2].Err, "unexpected payload")
	require.ErrorIs(t, outcomes[3].Err, ErrNoData)
	require.True(t, outcomes[4].OK())
	require.Equal(t, 2, outcomes[4].Rows)

	for _, name := range []string{"broken.csv", "panics.csv", "empty.csv"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.ErrorIs(t, err, os.ErrNotExist, name)
	}

	last, err := dataset.ReadCSV(filepath.Join(dir, "last.csv"))
	require.NoError(t, err)
	require.Equal(t, [][]string{{"3", "4"}, {"5", "6"}}, last.Rows)

	require.Len(t, rec.Reports(telemetry.LevelBroken), 2)
	require.Len(t, rec.Reports(telemetry.LevelWarning), 1)
	require.True(t, rec.HasReport(telemetry.LevelCount, "last.csv"))
}

func TestRunnerWritesBOM(t *testing.T) {
	dir := t.TempDir()
	adapter := NewWithBOM("bom", "bom.csv", func(ctx context.Context) (dataset.Dataset, error) {
		ds := dataset.New("bom", "指数")
		ds.Append("上证指数")
		return ds, nil
	})

	outcomes := NewRunner([]Adapter{adapter}, &telemetry.Recorder{}).Run(context.Background(), dir)
	require.True(t, outcomes[0].OK())

	contents, err := os.ReadFile(filepath.Join(dir, "bom.csv"))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(contents, []byte("\ufeff指数\n")))
}

func TestRunnerWriteFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	outcomes := NewRunner(
		[]Adapter{staticAdapter("first", "first.csv", []string{"1", "2"})},
		&telemetry.Recorder{},
	).Run(context.Background(), dir)

	require.Error(t, outcomes[0].Err)
	require.Zero(t, outcomes[0].Rows)
}

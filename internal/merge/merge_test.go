package merge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"marketdigest/internal/components/telemetry"
	"marketdigest/internal/dataset"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeCSV(t *testing.T, path string, columns []string, rows ...[]string) {
	t.Helper()
	ds := dataset.New(filepath.Base(path), columns...)
	for _, row := range rows {
		ds.Append(row...)
	}
	require.NoError(t, dataset.WriteCSV(path, ds, dataset.WriteOptions{}))
}

func TestFlat(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, "a.csv"), []string{"x", "y"}, []string{"1", "2"})
	writeCSV(t, filepath.Join(dir, "b.csv"), []string{"x", "z"}, []string{"3", "4"})
	writeCSV(t, filepath.Join(dir, "c.csv"), []string{"y"}, []string{"5"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.csv"), nil, 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0600))

	rec := &telemetry.Recorder{}
	out := filepath.Join(dir, DefaultFlatName)
	result, err := NewMerger(rec).Flat(dir, out)
	require.NoError(t, err)
	require.Equal(t, []string{"a.csv", "b.csv", "c.csv"}, result.Included)
	require.Equal(t, []string{"empty.csv"}, result.Skipped)
	require.True(t, rec.HasReport(telemetry.LevelWarning, report_merger_skip))

	merged, err := dataset.ReadCSV(out)
	require.NoError(t, err)
	require.Equal(t, []string{"x", "y", ProvenanceColumn, "z"}, merged.Columns)
	expected := [][]string{
		{"1", "2", "a", ""},
		{"3", "", "b", "4"},
		{"", "5", "c", ""},
	}
	if diff := cmp.Diff(expected, merged.Rows); diff != "" {
		t.Fatalf("merged rows (-want +got):\n%s", diff)
	}

	// merging again must not pick up the previous output
	result, err = NewMerger(rec).Flat(dir, out)
	require.NoError(t, err)
	require.Len(t, result.Included, 3)
}

func TestNoDatasets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.csv"), nil, 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "header.csv"), []byte("a,b\n"), 0600))

	merger := NewMerger(&telemetry.Recorder{})

	flat := filepath.Join(dir, DefaultFlatName)
	result, err := merger.Flat(dir, flat)
	require.ErrorIs(t, err, ErrNoDatasets)
	require.Len(t, result.Skipped, 2)
	_, err = os.Stat(flat)
	require.ErrorIs(t, err, os.ErrNotExist)

	workbook := filepath.Join(dir, DefaultWorkbookName)
	_, err = merger.Workbook(dir, workbook)
	require.ErrorIs(t, err, ErrNoDatasets)
	_, err = os.Stat(workbook)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestWorkbook(t *testing.T) {
	dir := t.TempDir()
	longStem := strings.Repeat("数", 40)
	writeCSV(t, filepath.Join(dir, "indices.csv"),
		[]string{"指数", "代码", "收盘点位"},
		[]string{"上证指数", "000001", "3154.3"},
	)
	writeCSV(t, filepath.Join(dir, longStem+".csv"), []string{"a"}, []string{"b"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.csv"), nil, 0600))

	out := filepath.Join(t.TempDir(), DefaultWorkbookName)
	result, err := NewMerger(&telemetry.Recorder{}).Workbook(dir, out)
	require.NoError(t, err)
	require.Len(t, result.Included, 2)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	require.ElementsMatch(t, []string{"indices", strings.Repeat("数", 31)}, f.GetSheetList())

	rows, err := f.GetRows("indices")
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"指数", "代码", "收盘点位"},
		{"上证指数", "000001", "3154.3"},
	}, rows)
}

func TestWorkbookReplacesForbiddenCharacters(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, "good.csv"), []string{"a"}, []string{"1"})
	writeCSV(t, filepath.Join(dir, "us[pre]market.csv"), []string{"代码"}, []string{"NVDA"})

	out := filepath.Join(t.TempDir(), DefaultWorkbookName)
	result, err := NewMerger(&telemetry.Recorder{}).Workbook(dir, out)
	require.NoError(t, err)
	require.Equal(t, []string{"good.csv", "us[pre]market.csv"}, result.Included)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	require.ElementsMatch(t, []string{"good", "us_pre_market"}, f.GetSheetList())

	rows, err := f.GetRows("us_pre_market")
	require.NoError(t, err)
	require.Equal(t, [][]string{{"代码"}, {"NVDA"}}, rows)
}

func TestWorkbookSkipsUnwritableSheet(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, "good.csv"), []string{"a"}, []string{"1"})
	writeCSV(t, filepath.Join(dir, "'quoted'.csv"), []string{"a"}, []string{"2"})

	rec := &telemetry.Recorder{}
	out := filepath.Join(t.TempDir(), DefaultWorkbookName)
	result, err := NewMerger(rec).Workbook(dir, out)
	require.NoError(t, err)
	require.Equal(t, []string{"good.csv"}, result.Included)
	require.Equal(t, []string{"'quoted'.csv"}, result.Skipped)
	require.True(t, rec.HasReport(telemetry.LevelWarning, report_merger_skip))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, []string{"good"}, f.GetSheetList())

	// nothing writable left
	require.NoError(t, os.Remove(filepath.Join(dir, "good.csv")))
	out = filepath.Join(t.TempDir(), DefaultWorkbookName)
	_, err = NewMerger(rec).Workbook(dir, out)
	require.ErrorIs(t, err, ErrNoDatasets)
	_, err = os.Stat(out)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestWorkbookCollisionLaterFileWins(t *testing.T) {
	dir := t.TempDir()
	prefix := strings.Repeat("数", 31)
	writeCSV(t, filepath.Join(dir, prefix+"a.csv"), []string{"x", "y"},
		[]string{"1", "2"},
		[]string{"3", "4"},
		[]string{"5", "6"},
	)
	writeCSV(t, filepath.Join(dir, prefix+"b.csv"), []string{"z"}, []string{"7"})

	out := filepath.Join(t.TempDir(), DefaultWorkbookName)
	result, err := NewMerger(&telemetry.Recorder{}).Workbook(dir, out)
	require.NoError(t, err)
	require.Equal(t, []string{prefix + "b.csv"}, result.Included)
	require.Equal(t, []string{prefix + "a.csv"}, result.Skipped)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(prefix)
	require.NoError(t, err)
	require.Equal(t, [][]string{{"z"}, {"7"}}, rows)
}

func TestMergeExcludesOtherArtifact(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, "indices.csv"), []string{"a"}, []string{"1"})

	merger := NewMerger(&telemetry.Recorder{})
	workbook := filepath.Join(dir, DefaultWorkbookName)
	flat := filepath.Join(dir, DefaultFlatName)

	for i := 0; i < 2; i++ {
		result, err := merger.Workbook(dir, workbook, flat)
		require.NoError(t, err)
		require.Equal(t, []string{"indices.csv"}, result.Included)

		result, err = merger.Flat(dir, flat, workbook)
		require.NoError(t, err)
		require.Equal(t, []string{"indices.csv"}, result.Included)
	}

	f, err := excelize.OpenFile(workbook)
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, []string{"indices"}, f.GetSheetList())
}

func TestCellValue(t *testing.T) {
	require.Equal(t, 3154.3, cellValue("3154.3"))
	require.Equal(t, -12.0, cellValue("-12"))
	require.Equal(t, "000001", cellValue("000001"))
	require.Equal(t, 0.5, cellValue("0.5"))
	require.Equal(t, "0.12%", cellValue("0.12%"))
	require.Equal(t, "NaN", cellValue("NaN"))
	require.Equal(t, "", cellValue(""))
}

// Package merge combines every dataset of a directory into a single artifact.
package merge

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"marketdigest/internal/components/telemetry"
	"marketdigest/internal/dataset"
)

const (
	DefaultWorkbookName = "全市场数据总览.xlsx"
	DefaultFlatName     = "all_data_merged.csv"
	// ProvenanceColumn holds the name of the file each merged row came from.
	ProvenanceColumn = "__来源表__"
)

const (
	report_merger_skip = "merger.skip"
)

// ErrNoDatasets is returned when no file in the directory qualifies, no artifact is
// written in that case.
var ErrNoDatasets = errors.New("no datasets to merge")

var errNoRows = errors.New("no rows")

// Result lists the files that made it into the artifact and the ones that were skipped.
type Result struct {
	Included []string
	Skipped  []string
}

type Merger struct {
	tel telemetry.API
}

func NewMerger(tel telemetry.API) Merger {
	return Merger{tel: telemetry.NewScopedAPI("merge", tel)}
}

type entry struct {
	file string
	stem string
	ds   dataset.Dataset
}

// collect reads every CSV file in `dir` (except the `exclude` paths) in directory order.
// Empty and unreadable files are skipped.
func (m Merger) collect(dir string, exclude ...string) ([]entry, Result, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, Result{}, err
	}
	excluded := map[string]bool{}
	for _, path := range exclude {
		abs, err := filepath.Abs(path)
		if err == nil {
			excluded[abs] = true
		}
	}

	var entries []entry
	var result Result
	for _, f := range files {
		if f.IsDir() || !strings.EqualFold(filepath.Ext(f.Name()), ".csv") {
			continue
		}
		path := filepath.Join(dir, f.Name())
		if abs, _ := filepath.Abs(path); excluded[abs] {
			continue
		}

		ds, err := readDataset(path)
		if err != nil {
			m.tel.ReportWarning(report_merger_skip, f.Name(), err)
			result.Skipped = append(result.Skipped, f.Name())
			continue
		}

		stem := strings.TrimSuffix(f.Name(), filepath.Ext(f.Name()))
		ds.Name = stem
		entries = append(entries, entry{file: f.Name(), stem: stem, ds: ds})
		result.Included = append(result.Included, f.Name())
	}
	if len(entries) == 0 {
		return nil, result, ErrNoDatasets
	}
	return entries, result, nil
}

func readDataset(path string) (dataset.Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return dataset.Dataset{}, err
	}
	if info.Size() == 0 {
		return dataset.Dataset{}, dataset.ErrEmpty
	}
	ds, err := dataset.ReadCSV(path)
	if err != nil {
		return dataset.Dataset{}, err
	}
	if !ds.Valid() {
		return dataset.Dataset{}, errNoRows
	}
	return ds, nil
}

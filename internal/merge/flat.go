package merge

import (
	"marketdigest/internal/dataset"
)

// Flat concatenates every dataset in `dir` into the CSV file `out`. Columns are the union
// of all datasets in order of first appearance, each row is tagged with ProvenanceColumn.
// Row order follows directory order. Files listed in `exclude` (usually the other merge
// artifact) are left out.
func (m Merger) Flat(dir, out string, exclude ...string) (Result, error) {
	entries, result, err := m.collect(dir, append([]string{out}, exclude...)...)
	if err != nil {
		return result, err
	}

	var columns []string
	position := map[string]int{}
	addColumn := func(c string) {
		if _, ok := position[c]; ok {
			return
		}
		position[c] = len(columns)
		columns = append(columns, c)
	}
	for _, e := range entries {
		for _, c := range e.ds.Columns {
			addColumn(c)
		}
		addColumn(ProvenanceColumn)
	}

	merged := dataset.New("merged", columns...)
	for _, e := range entries {
		for _, row := range e.ds.Rows {
			values := make([]string, len(columns))
			for i, c := range e.ds.Columns {
				values[position[c]] = row[i]
			}
			values[position[ProvenanceColumn]] = e.stem
			merged.Append(values...)
		}
	}

	err = dataset.WriteCSV(out, merged, dataset.WriteOptions{})
	if err != nil {
		return result, err
	}
	return result, nil
}

package merge

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

const defaultSheet = "Sheet1"

// characters excel does not allow in a sheet name
var sheetNameReplacer = strings.NewReplacer(
	":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

// Workbook writes one sheet per dataset in `dir` to the xlsx file `out`. Sheet names are
// the file names without extension, truncated to 31 characters. When names collide
// after truncation the later file replaces the earlier one. A file whose sheet cannot be
// written is skipped. Files listed in `exclude` are left out.
func (m Merger) Workbook(dir, out string, exclude ...string) (Result, error) {
	entries, result, err := m.collect(dir, append([]string{out}, exclude...)...)
	if err != nil {
		return result, err
	}
	entries = m.dedupSheets(entries, &result)

	f := excelize.NewFile()
	defer f.Close()

	result.Included = nil
	usedDefault := false
	for _, e := range entries {
		sheet := sheetName(e.stem)
		err := writeSheet(f, sheet, e)
		if err != nil {
			m.tel.ReportWarning(report_merger_skip, e.file, err)
			result.Skipped = append(result.Skipped, e.file)
			_ = f.DeleteSheet(sheet)
			continue
		}
		if strings.EqualFold(sheet, defaultSheet) {
			usedDefault = true
		}
		result.Included = append(result.Included, e.file)
	}
	if len(result.Included) == 0 {
		return result, ErrNoDatasets
	}

	if !usedDefault {
		err = f.DeleteSheet(defaultSheet)
		if err != nil {
			return result, err
		}
	}
	f.SetActiveSheet(0)

	err = f.SaveAs(out)
	if err != nil {
		return result, err
	}
	return result, nil
}

// dedupSheets drops every entry whose sheet name is taken again by a later entry. Sheet
// names compare case-insensitively.
func (m Merger) dedupSheets(entries []entry, result *Result) []entry {
	last := map[string]int{}
	for i, e := range entries {
		last[strings.ToLower(sheetName(e.stem))] = i
	}

	var kept []entry
	for i, e := range entries {
		winner := last[strings.ToLower(sheetName(e.stem))]
		if winner != i {
			m.tel.ReportWarning(report_merger_skip, e.file, fmt.Sprintf("sheet name taken by %s", entries[winner].file))
			result.Skipped = append(result.Skipped, e.file)
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

func writeSheet(f *excelize.File, sheet string, e entry) error {
	_, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	err = writeRow(f, sheet, 1, e.ds.Columns)
	if err != nil {
		return err
	}
	for i, row := range e.ds.Rows {
		err = writeRow(f, sheet, i+2, row)
		if err != nil {
			return err
		}
	}
	return nil
}

func sheetName(stem string) string {
	runes := []rune(sheetNameReplacer.Replace(stem))
	if len(runes) > maxSheetName {
		runes = runes[:maxSheetName]
	}
	return string(runes)
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = cellValue(v)
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

// cellValue stores plain decimal numbers as numbers. Values with a leading zero are codes
// (stock or exchange codes) and stay text.
func cellValue(v string) interface{} {
	if v == "" {
		return v
	}
	if len(v) > 1 && v[0] == '0' && v[1] != '.' {
		return v
	}
	for _, r := range v {
		if (r < '0' || r > '9') && r != '.' && r != '-' && r != '+' && r != 'e' && r != 'E' {
			return v
		}
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return v
	}
	return n
}

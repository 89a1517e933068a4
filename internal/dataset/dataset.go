// Package dataset holds the rectangular tables every source produces and their CSV encoding.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Dataset is a named table whose rows always have len(Columns) fields.
type Dataset struct {
	Name    string
	Columns []string
	Rows    [][]string
}

func New(name string, columns ...string) Dataset {
	return Dataset{Name: name, Columns: columns}
}

// Append adds a row, padding or truncating it to the width of the schema.
func (d *Dataset) Append(values ...string) {
	row := make([]string, len(d.Columns))
	copy(row, values)
	d.Rows = append(d.Rows, row)
}

// Valid reports whether the dataset has both columns and rows.
func (d Dataset) Valid() bool {
	return len(d.Columns) > 0 && len(d.Rows) > 0
}

// Head returns a copy of the dataset limited to its first n rows.
func (d Dataset) Head(n int) Dataset {
	if n < 0 || n >= len(d.Rows) {
		return d
	}
	out := d
	out.Rows = d.Rows[:n]
	return out
}

// Project returns a dataset with only the given columns in the given order.
func (d Dataset) Project(columns []string) (Dataset, error) {
	index := make(map[string]int, len(d.Columns))
	for i, c := range d.Columns {
		if _, ok := index[c]; !ok {
			index[c] = i
		}
	}

	positions := make([]int, len(columns))
	for i, c := range columns {
		pos, ok := index[c]
		if !ok {
			return Dataset{}, fmt.Errorf("column %q not in dataset %q", c, d.Name)
		}
		positions[i] = pos
	}

	out := Dataset{Name: d.Name, Columns: columns}
	for _, row := range d.Rows {
		projected := make([]string, len(positions))
		for i, pos := range positions {
			projected[i] = row[pos]
		}
		out.Rows = append(out.Rows, projected)
	}
	return out, nil
}

type WriteOptions struct {
	// BOM prefixes the file with a UTF-8 byte order mark so spreadsheet software detects the encoding.
	BOM bool
}

// WriteCSV writes the header row followed by every row to `path`, replacing any existing file.
func WriteCSV(path string, d Dataset, opts WriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if opts.BOM {
		w.Write(utf8BOM)
	}
	err = Encode(w, d)
	if err == nil {
		err = w.Flush()
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Encode writes `d` as CSV to `w`.
func Encode(w io.Writer, d Dataset) error {
	cw := csv.NewWriter(w)
	err := cw.Write(d.Columns)
	if err != nil {
		return err
	}
	err = cw.WriteAll(d.Rows)
	if err != nil {
		return err
	}
	return cw.Error()
}

// ErrEmpty is returned by ReadCSV when the file holds no header row.
var ErrEmpty = errors.New("dataset: empty file")

// ReadCSV reads a CSV file written by WriteCSV (or any header-first CSV).
// A leading BOM is stripped and short rows are padded to the header width.
func ReadCSV(path string) (Dataset, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, err
	}
	return Decode(bytes.NewReader(contents))
}

// Decode parses header-first CSV from `r`.
func Decode(r io.Reader) (Dataset, error) {
	br := bufio.NewReader(r)
	prefix, err := br.Peek(len(utf8BOM))
	if err == nil && bytes.Equal(prefix, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Dataset{}, ErrEmpty
	}
	if err != nil {
		return Dataset{}, err
	}

	d := Dataset{Columns: header}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Dataset{}, err
		}
		d.Append(record...)
	}
	return d, nil
}

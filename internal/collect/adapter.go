// Package collect turns scraper output into datasets and runs every source against one
// scratch directory.
package collect

import (
	"context"
	"errors"

	"marketdigest/internal/dataset"
)

// ErrNoData is returned by adapters whose upstream answered but yielded no rows.
var ErrNoData = errors.New("no data")

// Adapter is one data source. Fetch returns the dataset to be written to Filename, the
// runner owns the write so a failing adapter never leaves a partial file behind.
type Adapter interface {
	Name() string
	Filename() string
	Fetch(ctx context.Context) (dataset.Dataset, error)
}

// FetchFunc produces the dataset of one source.
type FetchFunc func(ctx context.Context) (dataset.Dataset, error)

type source struct {
	name  string
	file  string
	bom   bool
	fetch FetchFunc
}

func (s source) Name() string {
	return s.name
}

func (s source) Filename() string {
	return s.file
}

func (s source) Fetch(ctx context.Context) (dataset.Dataset, error) {
	return s.fetch(ctx)
}

func (s source) WriteOptions() dataset.WriteOptions {
	return dataset.WriteOptions{BOM: s.bom}
}

// New wraps `fetch` into an Adapter.
func New(name, file string, fetch FetchFunc) Adapter {
	return source{name: name, file: file, fetch: fetch}
}

// NewWithBOM is New for files that must carry a byte order mark.
func NewWithBOM(name, file string, fetch FetchFunc) Adapter {
	return source{name: name, file: file, bom: true, fetch: fetch}
}

// adapters may implement writeOptioner to control how their file is encoded.
type writeOptioner interface {
	WriteOptions() dataset.WriteOptions
}

// Package scratch manages the run-scoped directory every dataset of a run is written to.
package scratch

import (
	"os"
	"path/filepath"
	"sync"
)

// Dir is an ephemeral directory owned by exactly one run.
type Dir struct {
	path string
	once sync.Once
	err  error
}

// Acquire creates a new, empty scratch directory. Callers must defer Release.
func Acquire(prefix string) (*Dir, error) {
	path, err := os.MkdirTemp("", prefix)
	if err != nil {
		return nil, err
	}
	return &Dir{path: path}, nil
}

func (d *Dir) Path() string {
	return d.path
}

// File returns the path of `name` inside the directory.
func (d *Dir) File(name string) string {
	return filepath.Join(d.path, name)
}

// Release removes the directory and everything in it, calling it more than once is safe.
func (d *Dir) Release() error {
	d.once.Do(func() {
		d.err = os.RemoveAll(d.path)
	})
	return d.err
}

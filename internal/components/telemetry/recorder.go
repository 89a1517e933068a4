package telemetry

import (
	"strings"
	"sync"
)

type Level int

const (
	LevelDebug Level = iota
	LevelWarning
	LevelBroken
	LevelCount
)

// Report is a single call recorded by Recorder.
type Report struct {
	Level  Level
	ID     string
	Params []any
}

// Recorder implements API by keeping every report in memory, it is meant for tests
// that need to assert that a failure was reported.
type Recorder struct {
	mutex   sync.Mutex
	reports []Report
}

func (r *Recorder) add(level Level, id string, params []any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, Report{Level: level, ID: id, Params: params})
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.add(LevelBroken, id, params)
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.add(LevelWarning, id, params)
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.add(LevelDebug, msg, params)
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.add(LevelCount, id, []any{count})
}

// Reports returns a copy of all reports made at the given level.
func (r *Recorder) Reports(level Level) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var out []Report
	for _, rep := range r.reports {
		if rep.Level == level {
			out = append(out, rep)
		}
	}
	return out
}

// HasReport returns true if a report at `level` has an id containing `substr`.
func (r *Recorder) HasReport(level Level, substr string) bool {
	for _, rep := range r.Reports(level) {
		if strings.Contains(rep.ID, substr) {
			return true
		}
	}
	return false
}

package report

import (
	"bytes"
	"os"
	"sync"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"qpsdriver/internal/collector"
	"qpsdriver/internal/core"
)

// JSONReporter accumulates one record per reported result and writes them
// all to a file on Close. Every record of a run shares one run id.
type JSONReporter struct {
	path  string
	runID string

	mu      sync.Mutex
	records []collector.Record
	index   map[*core.RunResult]int
}

var _ core.Reporter = (*JSONReporter)(nil)

func NewJSONReporter(path string) *JSONReporter {
	return &JSONReporter{
		path:  path,
		runID: uuid.NewString(),
		index: make(map[*core.RunResult]int),
	}
}

// RunID identifies this driver invocation in the report.
func (j *JSONReporter) RunID() string { return j.runID }

// observe stores the record for r. Repeated calls for the same result
// replace its record, so every projection is idempotent.
func (j *JSONReporter) observe(r *core.RunResult) {
	rec := collector.NewRecord(r)
	rec.RunID = j.runID

	j.mu.Lock()
	defer j.mu.Unlock()
	if i, ok := j.index[r]; ok {
		j.records[i] = rec
		return
	}
	j.index[r] = len(j.records)
	j.records = append(j.records, rec)
}

func (j *JSONReporter) ReportQPS(r *core.RunResult)        { j.observe(r) }
func (j *JSONReporter) ReportQPSPerCore(r *core.RunResult) { j.observe(r) }
func (j *JSONReporter) ReportLatency(r *core.RunResult)    { j.observe(r) }
func (j *JSONReporter) ReportTimes(r *core.RunResult)      { j.observe(r) }

// Records returns a copy of the accumulated records.
func (j *JSONReporter) Records() []collector.Record {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]collector.Record(nil), j.records...)
}

// Close writes the report file.
func (j *JSONReporter) Close() error {
	var buf bytes.Buffer
	if err := collector.FormatJSON(&buf, j.Records()); err != nil {
		return errors.Wrap(err, "encode json report")
	}
	if err := os.WriteFile(j.path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "write json report %s", j.path)
	}
	return nil
}

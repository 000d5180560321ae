// Package report projects scenario results onto the driver's outputs: the
// diagnostic log, a JSON report file and a Prometheus textfile.
package report

import (
	"io"

	"github.com/sirupsen/logrus"

	"qpsdriver/internal/collector"
	"qpsdriver/internal/core"
)

// Composite fans every call out to each reporter in order.
type Composite []core.Reporter

var _ core.Reporter = Composite(nil)

func (c Composite) ReportQPS(r *core.RunResult) {
	for _, rep := range c {
		rep.ReportQPS(r)
	}
}

func (c Composite) ReportQPSPerCore(r *core.RunResult) {
	for _, rep := range c {
		rep.ReportQPSPerCore(r)
	}
}

func (c Composite) ReportLatency(r *core.RunResult) {
	for _, rep := range c {
		rep.ReportLatency(r)
	}
}

func (c Composite) ReportTimes(r *core.RunResult) {
	for _, rep := range c {
		rep.ReportTimes(r)
	}
}

// Close closes every reporter that holds output, returning the first error.
// All reporters are closed even if one fails.
func (c Composite) Close() error {
	var first error
	for _, rep := range c {
		closer, ok := rep.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// LogReporter writes each projection as an Info line.
type LogReporter struct {
	log logrus.FieldLogger
}

var _ core.Reporter = (*LogReporter)(nil)

func NewLogReporter(log logrus.FieldLogger) *LogReporter {
	return &LogReporter{log: log}
}

func (l *LogReporter) entry(r *core.RunResult) logrus.FieldLogger {
	return l.log.WithField("scenario", r.ScenarioName)
}

func (l *LogReporter) ReportQPS(r *core.RunResult) {
	l.entry(r).Info(collector.FormatQPS(r.Summary))
}

func (l *LogReporter) ReportQPSPerCore(r *core.RunResult) {
	l.entry(r).Info(collector.FormatQPSPerCore(r.Summary))
}

func (l *LogReporter) ReportLatency(r *core.RunResult) {
	l.entry(r).Info(collector.FormatLatency(r.Summary))
}

func (l *LogReporter) ReportTimes(r *core.RunResult) {
	e := l.entry(r)
	for _, line := range collector.FormatTimes(r.Summary) {
		e.Info(line)
	}
}

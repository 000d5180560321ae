// Package collector records RPC latencies into HDR histograms and turns
// per-worker statistics into scenario summaries.
package collector

import (
	"math"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"qpsdriver/internal/core"
	"qpsdriver/internal/scenario"
)

// Histogram bounds used when a client config carries no histogram params.
const (
	DefaultMaxLatency        = 60 * time.Second
	DefaultSignificantFigure = 3
)

// NewHistogram returns an empty latency histogram in nanoseconds sized
// from the given params. A resolution of 0.01 keeps two significant
// figures; the figure count is clamped to what hdrhistogram supports and
// the range to scenario.MaxPossibleLimit.
func NewHistogram(params *scenario.HistogramParams) *hdrhistogram.Histogram {
	highest := int64(DefaultMaxLatency)
	sigfigs := int64(DefaultSignificantFigure)
	if params != nil {
		if params.MaxPossible >= 2 {
			highest = int64(min(params.MaxPossible, scenario.MaxPossibleLimit))
		}
		if params.Resolution > 0 {
			sigfigs = int64(math.Ceil(-math.Log10(params.Resolution) - 1e-9))
		}
	}
	sigfigs = min(max(sigfigs, 1), 5)
	return hdrhistogram.New(1, highest, int(sigfigs))
}

// Collector aggregates events from client slots. It is safe for concurrent
// use.
type Collector struct {
	mu        sync.Mutex
	params    *scenario.HistogramParams
	hist      *hdrhistogram.Histogram
	requests  int64
	errors    int64
	stopwatch *core.Stopwatch
	cores     int
}

// NewCollector creates a Collector whose interval starts now.
func NewCollector(params *scenario.HistogramParams, cores int, clock core.Clock, cpu core.CPUSource) *Collector {
	return &Collector{
		params:    params,
		hist:      NewHistogram(params),
		stopwatch: core.NewStopwatch(clock, cpu),
		cores:     cores,
	}
}

// Record adds one RPC measurement. Failed calls count as errors and are
// kept out of the latency histogram. Latencies beyond the histogram's range
// land in its top bucket.
func (c *Collector) Record(e core.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests++
	if !e.Success {
		c.errors++
		return
	}
	v := min(max(int64(e.Duration), 1), c.hist.HighestTrackableValue())
	// In range after clamping, so RecordValue cannot fail.
	_ = c.hist.RecordValue(v)
}

// Mark snapshots the statistics gathered since the last reset. With reset
// set, counters, histogram and interval start over.
func (c *Collector) Mark(reset bool) core.WorkerStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	iv := c.stopwatch.Mark(reset)
	stats := core.WorkerStats{
		TimeElapsed:  iv.Wall.Seconds(),
		TimeUser:     iv.User.Seconds(),
		TimeSystem:   iv.System.Seconds(),
		Cores:        c.cores,
		RequestCount: c.requests,
		ErrorCount:   c.errors,
		Latencies:    c.hist.Export(),
	}
	if reset {
		c.hist = NewHistogram(c.params)
		c.requests = 0
		c.errors = 0
	}
	return stats
}

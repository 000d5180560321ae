package collector

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"qpsdriver/internal/core"
)

// MergeLatencies combines every client's histogram into one. Clients with
// no snapshot are skipped. The result is nil if none carry one.
func MergeLatencies(stats []core.WorkerStats) *hdrhistogram.Histogram {
	var merged *hdrhistogram.Histogram
	for _, s := range stats {
		if s.Latencies == nil {
			continue
		}
		h := hdrhistogram.Import(s.Latencies)
		if merged == nil {
			merged = h
			continue
		}
		merged.Merge(h)
	}
	return merged
}

// Percentiles projects the reported quantiles out of a histogram. A nil or
// empty histogram yields zeros.
func Percentiles(h *hdrhistogram.Histogram) core.LatencyPercentiles {
	if h == nil || h.TotalCount() == 0 {
		return core.LatencyPercentiles{}
	}
	at := func(q float64) time.Duration { return time.Duration(h.ValueAtQuantile(q)) }
	return core.LatencyPercentiles{
		P50:  at(50),
		P90:  at(90),
		P95:  at(95),
		P99:  at(99),
		P999: at(99.9),
	}
}

// Summarize derives the reported values from a run's raw stats. Pure
// function; it does not modify the result.
//
// QPS sums each client's request rate over its own elapsed time. CPU times
// are percentages of wall time, summed across workers of a side.
func Summarize(r *core.RunResult) core.Summary {
	s := core.Summary{
		Latency: Percentiles(r.Latencies),
	}

	for _, c := range r.ClientStats {
		s.RequestCount += c.RequestCount
		s.ErrorCount += c.ErrorCount
		if c.TimeElapsed > 0 {
			s.QPS += float64(c.RequestCount) / c.TimeElapsed
		}
	}

	for _, n := range r.ServerCores {
		s.ServerCores += n
	}
	if s.ServerCores > 0 {
		s.QPSPerServerCore = s.QPS / float64(s.ServerCores)
	}

	s.ServerSystemTime, s.ServerUserTime = cpuPercent(r.ServerStats)
	s.ClientSystemTime, s.ClientUserTime = cpuPercent(r.ClientStats)
	return s
}

func cpuPercent(stats []core.WorkerStats) (system, user float64) {
	var elapsed, sys, usr float64
	for _, s := range stats {
		elapsed += s.TimeElapsed
		sys += s.TimeSystem
		usr += s.TimeUser
	}
	if elapsed == 0 {
		return 0, 0
	}
	return 100 * sys / elapsed, 100 * usr / elapsed
}

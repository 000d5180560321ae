package core

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// ServerStatus describes a benchmark server started by a worker.
type ServerStatus struct {
	Port  int32
	Cores int
}

// WorkerStats is a snapshot of one worker since its last reset.
type WorkerStats struct {
	TimeElapsed  float64 // wall seconds
	TimeUser     float64 // user CPU seconds
	TimeSystem   float64 // system CPU seconds
	Cores        int
	RequestCount int64
	ErrorCount   int64
	// Latencies is nil for servers.
	Latencies *hdrhistogram.Snapshot
}

// LatencyPercentiles are the latency projections reported per scenario.
type LatencyPercentiles struct {
	P50  time.Duration `json:"p50"`
	P90  time.Duration `json:"p90"`
	P95  time.Duration `json:"p95"`
	P99  time.Duration `json:"p99"`
	P999 time.Duration `json:"p999"`
}

// Summary holds the values derived from a RunResult's raw stats.
type Summary struct {
	QPS              float64
	QPSPerServerCore float64
	ServerCores      int
	RequestCount     int64
	ErrorCount       int64
	Latency          LatencyPercentiles
	// CPU times as a percentage of wall time.
	ServerSystemTime float64
	ServerUserTime   float64
	ClientSystemTime float64
	ClientUserTime   float64
}

// RunResult is the aggregate produced by running one scenario.
type RunResult struct {
	ScenarioName string
	Warmup       time.Duration
	Benchmark    time.Duration
	// Latencies merges every client's benchmark-window histogram.
	Latencies   *hdrhistogram.Histogram
	ClientStats []WorkerStats
	ServerStats []WorkerStats
	ServerCores []int
	Summary     Summary
}

package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"qpsdriver/internal/core"
)

// FormatQPS renders the throughput line.
func FormatQPS(s core.Summary) string {
	return fmt.Sprintf("QPS: %.1f", s.QPS)
}

// FormatQPSPerCore renders throughput normalised by server cores.
func FormatQPSPerCore(s core.Summary) string {
	return fmt.Sprintf("QPS: %.1f (%.1f/server core)", s.QPS, s.QPSPerServerCore)
}

// FormatLatency renders the percentile line in microseconds.
func FormatLatency(s core.Summary) string {
	l := s.Latency
	return fmt.Sprintf("Latencies (50/90/95/99/99.9%%-ile): %.1f/%.1f/%.1f/%.1f/%.1f us",
		Micros(l.P50), Micros(l.P90), Micros(l.P95), Micros(l.P99), Micros(l.P999))
}

// FormatTimes renders the CPU time breakdown, one line per entry.
func FormatTimes(s core.Summary) []string {
	return []string{
		fmt.Sprintf("Server system time: %.2f%%", s.ServerSystemTime),
		fmt.Sprintf("Server user time: %.2f%%", s.ServerUserTime),
		fmt.Sprintf("Client system time: %.2f%%", s.ClientSystemTime),
		fmt.Sprintf("Client user time: %.2f%%", s.ClientUserTime),
	}
}

// Micros converts a duration to fractional microseconds.
func Micros(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}

// Record is the JSON form of one scenario's result.
type Record struct {
	RunID            string    `json:"runId,omitempty"`
	Scenario         string    `json:"scenario"`
	Warmup           string    `json:"warmup"`
	Benchmark        string    `json:"benchmark"`
	RequestCount     int64     `json:"requestCount"`
	ErrorCount       int64     `json:"errorCount"`
	QPS              float64   `json:"qps"`
	QPSPerServerCore float64   `json:"qpsPerServerCore"`
	ServerCores      int       `json:"serverCores"`
	LatencyMicros    Latencies `json:"latencyUs"`
	ServerSystemTime float64   `json:"serverSystemTime"`
	ServerUserTime   float64   `json:"serverUserTime"`
	ClientSystemTime float64   `json:"clientSystemTime"`
	ClientUserTime   float64   `json:"clientUserTime"`
}

// Latencies are percentiles in microseconds.
type Latencies struct {
	P50  float64 `json:"p50"`
	P90  float64 `json:"p90"`
	P95  float64 `json:"p95"`
	P99  float64 `json:"p99"`
	P999 float64 `json:"p999"`
}

// NewRecord projects a result onto its JSON form.
func NewRecord(r *core.RunResult) Record {
	s := r.Summary
	return Record{
		Scenario:         r.ScenarioName,
		Warmup:           r.Warmup.String(),
		Benchmark:        r.Benchmark.String(),
		RequestCount:     s.RequestCount,
		ErrorCount:       s.ErrorCount,
		QPS:              s.QPS,
		QPSPerServerCore: s.QPSPerServerCore,
		ServerCores:      s.ServerCores,
		LatencyMicros: Latencies{
			P50:  Micros(s.Latency.P50),
			P90:  Micros(s.Latency.P90),
			P95:  Micros(s.Latency.P95),
			P99:  Micros(s.Latency.P99),
			P999: Micros(s.Latency.P999),
		},
		ServerSystemTime: s.ServerSystemTime,
		ServerUserTime:   s.ServerUserTime,
		ClientSystemTime: s.ClientSystemTime,
		ClientUserTime:   s.ClientUserTime,
	}
}

// FormatJSON writes records as an indented JSON array.
func FormatJSON(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}

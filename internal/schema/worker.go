package schema

import (
	"github.com/HdrHistogram/hdrhistogram-go"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"qpsdriver/internal/core"
)

// EncodeServerStatus converts a server status to its wire message.
func (p *Pool) EncodeServerStatus(s core.ServerStatus) *dynamicpb.Message {
	m := p.MustNew(ServerStatusMessage)
	w := writer{m}
	w.i32("port", s.Port)
	w.i32("cores", int32(s.Cores))
	return m
}

// DecodeServerStatus converts a wire message to a server status.
func DecodeServerStatus(m protoreflect.Message) core.ServerStatus {
	r := reader{m}
	return core.ServerStatus{Port: r.i32("port"), Cores: int(r.i32("cores"))}
}

// EncodeMark builds a Mark request.
func (p *Pool) EncodeMark(reset bool) *dynamicpb.Message {
	m := p.MustNew(MarkMessage)
	writer{m}.boolean("reset", reset)
	return m
}

// DecodeMark reads the reset flag of a Mark request.
func DecodeMark(m protoreflect.Message) bool {
	return reader{m}.boolean("reset")
}

// EncodeWorkerStats converts worker stats to their wire message.
func (p *Pool) EncodeWorkerStats(s core.WorkerStats) *dynamicpb.Message {
	m := p.MustNew(WorkerStatsMessage)
	w := writer{m}
	w.f64("time_elapsed", s.TimeElapsed)
	w.f64("time_user", s.TimeUser)
	w.f64("time_system", s.TimeSystem)
	w.i32("cores", int32(s.Cores))
	w.i64("request_count", s.RequestCount)
	w.i64("error_count", s.ErrorCount)
	if s.Latencies != nil {
		h := w.sub("latencies")
		h.i64("lowest_trackable", s.Latencies.LowestTrackableValue)
		h.i64("highest_trackable", s.Latencies.HighestTrackableValue)
		h.i64("significant_figures", s.Latencies.SignificantFigures)
		h.i64s("counts", s.Latencies.Counts)
	}
	return m
}

// DecodeWorkerStats converts a wire message to worker stats.
func DecodeWorkerStats(m protoreflect.Message) core.WorkerStats {
	r := reader{m}
	s := core.WorkerStats{
		TimeElapsed:  r.f64("time_elapsed"),
		TimeUser:     r.f64("time_user"),
		TimeSystem:   r.f64("time_system"),
		Cores:        int(r.i32("cores")),
		RequestCount: r.i64("request_count"),
		ErrorCount:   r.i64("error_count"),
	}
	if r.has("latencies") {
		h := r.sub("latencies")
		s.Latencies = &hdrhistogram.Snapshot{
			LowestTrackableValue:  h.i64("lowest_trackable"),
			HighestTrackableValue: h.i64("highest_trackable"),
			SignificantFigures:    h.i64("significant_figures"),
			Counts:                h.i64s("counts"),
		}
	}
	return s
}

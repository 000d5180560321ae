// Package core defines the fundamental interfaces and types shared by the
// driver, the scenario runner and the workers.
package core

import (
	"context"
	"time"

	"qpsdriver/internal/scenario"
)

// Event is a single RPC measurement taken by a benchmark client.
type Event struct {
	Duration time.Duration
	Success  bool
}

// Recorder receives events from client goroutines. Implementations must be
// safe for concurrent use.
type Recorder interface {
	Record(Event)
}

// Runner executes one scenario to completion. RunScenario blocks until the
// warmup and benchmark windows have elapsed and every worker it started has
// been stopped.
type Runner interface {
	RunScenario(ctx context.Context,
		clientConfig scenario.ClientConfig, numClients int32,
		serverConfig scenario.ServerConfig, numServers int32,
		warmupSeconds, benchmarkSeconds, spawnLocalWorkerCount int32,
	) (*RunResult, error)
}

// Reporter projects a RunResult onto one output dimension per call.
// Calls are independent and idempotent and never modify the result.
type Reporter interface {
	ReportQPS(*RunResult)
	ReportQPSPerCore(*RunResult)
	ReportLatency(*RunResult)
	ReportTimes(*RunResult)
}

// NullRecorder discards all events.
var NullRecorder Recorder = nullRecorder{}

type nullRecorder struct{}

func (nullRecorder) Record(Event) {}

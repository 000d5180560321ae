package core

import (
	"context"
)

// Pacer decides when the next RPC of an outstanding slot may start.
type Pacer interface {
	Wait(ctx context.Context) error
}

// CallFunc issues one RPC.
type CallFunc func(ctx context.Context) error

// Loop drives one outstanding RPC slot: wait for the pacer, issue the call,
// record its latency. A Loop is NOT safe for concurrent use; each slot
// goroutine must have its own Loop.
type Loop struct {
	call     CallFunc
	pacer    Pacer
	recorder Recorder
	clock    Clock
}

// NewLoop creates a Loop for a single slot. A nil pacer means closed loop.
func NewLoop(call CallFunc, pacer Pacer, recorder Recorder, clock Clock) *Loop {
	if clock == nil {
		clock = RealClock{}
	}
	return &Loop{
		call:     call,
		pacer:    pacer,
		recorder: recorder,
		clock:    clock,
	}
}

// RunIteration issues one RPC.
// Returns nil on success, the pacer's error when the context ends while
// waiting, or the call error.
func (l *Loop) RunIteration(ctx context.Context) error {
	if l.pacer != nil {
		if err := l.pacer.Wait(ctx); err != nil {
			return err
		}
	}

	start := l.clock.Now()
	err := l.call(ctx)
	// RPCs cut off by the end of the run are not measurements.
	if err == nil || ctx.Err() == nil {
		l.recorder.Record(Event{Duration: l.clock.Since(start), Success: err == nil})
	}
	return err
}

// Run issues RPCs until the context ends. Call errors are recorded and do
// not stop the loop.
func (l *Loop) Run(ctx context.Context) {
	for ctx.Err() == nil {
		_ = l.RunIteration(ctx)
	}
}

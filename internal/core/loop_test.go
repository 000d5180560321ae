package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// mockRecorder collects events for testing
type mockRecorder struct {
	events []Event
}

func (m *mockRecorder) Record(e Event) {
	m.events = append(m.events, e)
}

type countingPacer struct {
	waits int
	err   error
	// cancel, when set, is called on wait number cancelAt.
	cancel   context.CancelFunc
	cancelAt int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.waits++
	if p.cancel != nil && p.waits == p.cancelAt {
		p.cancel()
	}
	return p.err
}

func TestLoop_EachIterationIssuesOneCall(t *testing.T) {
	var callCount int
	call := func(ctx context.Context) error {
		callCount++
		return nil
	}

	recorder := &mockRecorder{}
	loop := NewLoop(call, nil, recorder, nil)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := loop.RunIteration(ctx); err != nil {
			t.Fatal(err)
		}
	}

	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
	if len(recorder.events) != 3 {
		t.Errorf("expected 3 events, got %d", len(recorder.events))
	}
}

func TestLoop_RecordsLatencyFromClock(t *testing.T) {
	clock := NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	call := func(ctx context.Context) error {
		clock.Advance(250 * time.Microsecond)
		return nil
	}

	recorder := &mockRecorder{}
	loop := NewLoop(call, nil, recorder, clock)
	if err := loop.RunIteration(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(recorder.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(recorder.events))
	}
	if recorder.events[0].Duration != 250*time.Microsecond {
		t.Errorf("expected 250µs, got %v", recorder.events[0].Duration)
	}
	if !recorder.events[0].Success {
		t.Error("expected success")
	}
}

func TestLoop_CallErrorRecordedAsFailure(t *testing.T) {
	expectedErr := errors.New("rpc failed")
	call := func(ctx context.Context) error { return expectedErr }

	recorder := &mockRecorder{}
	loop := NewLoop(call, nil, recorder, nil)

	err := loop.RunIteration(context.Background())
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected call error, got %v", err)
	}
	if len(recorder.events) != 1 || recorder.events[0].Success {
		t.Errorf("expected one failed event, got %+v", recorder.events)
	}
	// Errors do not stop the slot.
	if err := loop.RunIteration(context.Background()); !errors.Is(err, expectedErr) {
		t.Errorf("expected call error on retry, got %v", err)
	}
	if len(recorder.events) != 2 {
		t.Errorf("expected two events, got %d", len(recorder.events))
	}
}

func TestLoop_PacerConsultedEveryIteration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pacer := &countingPacer{cancel: cancel, cancelAt: 4}
	var calls int
	loop := NewLoop(func(ctx context.Context) error {
		calls++
		return nil
	}, pacer, NullRecorder, nil)

	loop.Run(ctx)

	if pacer.waits != 4 {
		t.Errorf("expected 4 pacer waits, got %d", pacer.waits)
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
}

func TestLoop_PacerErrorSkipsCall(t *testing.T) {
	pacer := &countingPacer{err: context.DeadlineExceeded}
	var called bool
	loop := NewLoop(func(ctx context.Context) error {
		called = true
		return nil
	}, pacer, NullRecorder, nil)

	err := loop.RunIteration(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected pacer error, got %v", err)
	}
	if called {
		t.Error("call must not run when the pacer fails")
	}
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	call := func(ctx context.Context) error {
		if calls.Add(1) == 10 {
			cancel()
			return ctx.Err()
		}
		return nil
	}

	recorder := &mockRecorder{}
	loop := NewLoop(call, nil, recorder, nil)
	loop.Run(ctx)

	if calls.Load() != 10 {
		t.Errorf("expected 10 calls, got %d", calls.Load())
	}
	// The call interrupted by cancellation is not a measurement.
	if len(recorder.events) != 9 {
		t.Errorf("expected 9 events, got %d", len(recorder.events))
	}
}

func TestNullRecorder(t *testing.T) {
	// NullRecorder should not panic when Record is called
	NullRecorder.Record(Event{Success: true})
}

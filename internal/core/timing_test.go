package core

import (
	"testing"
	"time"
)

func TestRealClock_Since(t *testing.T) {
	clock := RealClock{}
	start := time.Now()
	time.Sleep(10 * time.Millisecond)
	elapsed := clock.Since(start)

	if elapsed < 10*time.Millisecond {
		t.Errorf("RealClock.Since() returned %v, expected >= 10ms", elapsed)
	}
}

func TestFakeClock_Advance(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	clock.Advance(10 * time.Second)
	clock.Advance(20 * time.Second)

	if clock.Since(start) != 30*time.Second {
		t.Errorf("after Advance, Since(start) = %v, expected 30s", clock.Since(start))
	}
}

type fakeCPU struct {
	times CPUTimes
}

func (f *fakeCPU) read() CPUTimes { return f.times }

func TestStopwatch_MarkWithoutReset(t *testing.T) {
	clock := NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	cpu := &fakeCPU{times: CPUTimes{User: time.Second, System: time.Second}}
	sw := NewStopwatch(clock, cpu.read)

	clock.Advance(4 * time.Second)
	cpu.times = CPUTimes{User: 3 * time.Second, System: 2 * time.Second}

	first := sw.Mark(false)
	second := sw.Mark(false)

	want := Interval{Wall: 4 * time.Second, User: 2 * time.Second, System: time.Second}
	if first != want {
		t.Errorf("first mark = %+v, want %+v", first, want)
	}
	if second != want {
		t.Errorf("mark without reset must not move the origin, got %+v", second)
	}
}

func TestStopwatch_MarkWithReset(t *testing.T) {
	clock := NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	cpu := &fakeCPU{}
	sw := NewStopwatch(clock, cpu.read)

	clock.Advance(5 * time.Second)
	sw.Mark(true)

	clock.Advance(2 * time.Second)
	cpu.times = CPUTimes{User: 500 * time.Millisecond}
	got := sw.Mark(true)

	want := Interval{Wall: 2 * time.Second, User: 500 * time.Millisecond}
	if got != want {
		t.Errorf("mark after reset = %+v, want %+v", got, want)
	}
}

func TestProcessCPU_Monotonic(t *testing.T) {
	before := ProcessCPU()
	x := 0
	for i := 0; i < 1_000_000; i++ {
		x += i
	}
	_ = x
	after := ProcessCPU()

	if after.User < before.User || after.System < before.System {
		t.Errorf("CPU times went backwards: %+v -> %+v", before, after)
	}
}

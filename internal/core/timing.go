package core

import (
	"sync"
	"syscall"
	"time"
)

// Clock provides time operations that can be mocked for testing.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// RealClock uses the standard time package.
type RealClock struct{}

func (RealClock) Now() time.Time                   { return time.Now() }
func (RealClock) Since(t time.Time) time.Duration { return time.Since(t) }

// FakeClock is a test clock that can be manually advanced.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{current: start}
}

func (f *FakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *FakeClock) Since(t time.Time) time.Duration { return f.Now().Sub(t) }

func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.current = f.current.Add(d)
	f.mu.Unlock()
}

// CPUTimes is cumulative process CPU usage.
type CPUTimes struct {
	User   time.Duration
	System time.Duration
}

// CPUSource reports cumulative CPU usage.
type CPUSource func() CPUTimes

// ProcessCPU reads the CPU usage of the current process. It returns zero
// times when getrusage fails.
func ProcessCPU() CPUTimes {
	var ru syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &ru); err != nil {
		return CPUTimes{}
	}
	return CPUTimes{
		User:   time.Duration(ru.Utime.Nano()),
		System: time.Duration(ru.Stime.Nano()),
	}
}

// Interval is the wall and CPU time elapsed between two marks.
type Interval struct {
	Wall   time.Duration
	User   time.Duration
	System time.Duration
}

// Stopwatch measures wall and CPU time since its last reset.
type Stopwatch struct {
	clock Clock
	cpu   CPUSource
	mu    sync.Mutex
	wall  time.Time
	times CPUTimes
}

// NewStopwatch starts a stopwatch. Nil arguments select the real clock and
// process CPU usage.
func NewStopwatch(clock Clock, cpu CPUSource) *Stopwatch {
	if clock == nil {
		clock = RealClock{}
	}
	if cpu == nil {
		cpu = ProcessCPU
	}
	s := &Stopwatch{clock: clock, cpu: cpu}
	s.wall = clock.Now()
	s.times = cpu()
	return s
}

// Mark returns the interval since the last reset and, if reset is set,
// starts a new interval.
func (s *Stopwatch) Mark(reset bool) Interval {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	times := s.cpu()
	iv := Interval{
		Wall:   now.Sub(s.wall),
		User:   times.User - s.times.User,
		System: times.System - s.times.System,
	}
	if reset {
		s.wall = now
		s.times = times
	}
	return iv
}

package ratelimit

import (
	"time"

	"qpsdriver/internal/core"
)

// Window is one timed stage of a scenario run.
type Window struct {
	Name     string
	Duration time.Duration
}

// Window names used by the scenario runner.
const (
	WarmupWindow    = "warmup"
	BenchmarkWindow = "benchmark"
)

// Schedule tracks which window of a run is active.
type Schedule struct {
	windows   []Window
	startTime time.Time
	clock     core.Clock
}

// NewSchedule returns the warmup then benchmark schedule, starting now.
// Zero-length windows are kept so indexes stay stable.
func NewSchedule(warmup, benchmark time.Duration, clock core.Clock) *Schedule {
	return NewScheduleWithWindows([]Window{
		{Name: WarmupWindow, Duration: warmup},
		{Name: BenchmarkWindow, Duration: benchmark},
	}, clock)
}

// NewScheduleWithWindows builds a schedule from arbitrary windows.
func NewScheduleWithWindows(windows []Window, clock core.Clock) *Schedule {
	if clock == nil {
		clock = core.RealClock{}
	}
	return &Schedule{
		windows:   windows,
		startTime: clock.Now(),
		clock:     clock,
	}
}

func (s *Schedule) Elapsed() time.Duration {
	return s.clock.Since(s.startTime)
}

// Total is the sum of every window.
func (s *Schedule) Total() time.Duration {
	var total time.Duration
	for _, w := range s.windows {
		total += w.Duration
	}
	return total
}

func (s *Schedule) CurrentIndex() int {
	elapsed := s.Elapsed()
	var cumulative time.Duration
	for i, w := range s.windows {
		cumulative += w.Duration
		if elapsed < cumulative {
			return i
		}
	}
	return len(s.windows)
}

// Current returns the active window, or nil once the schedule is done.
func (s *Schedule) Current() *Window {
	idx := s.CurrentIndex()
	if idx >= len(s.windows) {
		return nil
	}
	return &s.windows[idx]
}

// Remaining is the time left in the active window.
func (s *Schedule) Remaining() time.Duration {
	idx := s.CurrentIndex()
	if idx >= len(s.windows) {
		return 0
	}
	var end time.Duration
	for i := 0; i <= idx; i++ {
		end += s.windows[i].Duration
	}
	return end - s.Elapsed()
}

// Progress is the completed fraction of the whole schedule in [0, 1].
func (s *Schedule) Progress() float64 {
	total := s.Total()
	if total <= 0 {
		return 1
	}
	p := float64(s.Elapsed()) / float64(total)
	if p > 1 {
		p = 1
	}
	return p
}

func (s *Schedule) IsComplete() bool {
	return s.CurrentIndex() >= len(s.windows)
}

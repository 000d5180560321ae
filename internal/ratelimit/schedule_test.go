package ratelimit

import (
	"testing"
	"time"

	"qpsdriver/internal/core"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSchedule_WarmupThenBenchmark(t *testing.T) {
	clock := core.NewFakeClock(epoch)
	s := NewSchedule(2*time.Second, 5*time.Second, clock)

	if w := s.Current(); w == nil || w.Name != WarmupWindow {
		t.Fatalf("expected warmup window, got %v", w)
	}
	if s.Remaining() != 2*time.Second {
		t.Errorf("expected 2s remaining, got %v", s.Remaining())
	}

	clock.Advance(3 * time.Second)
	if w := s.Current(); w == nil || w.Name != BenchmarkWindow {
		t.Fatalf("expected benchmark window, got %v", w)
	}
	if s.Remaining() != 4*time.Second {
		t.Errorf("expected 4s remaining, got %v", s.Remaining())
	}

	clock.Advance(4 * time.Second)
	if !s.IsComplete() {
		t.Error("expected schedule to be complete")
	}
	if s.Current() != nil {
		t.Error("expected no current window once complete")
	}
	if s.Remaining() != 0 {
		t.Errorf("expected 0 remaining, got %v", s.Remaining())
	}
}

func TestSchedule_ZeroWarmupSkipsToBenchmark(t *testing.T) {
	clock := core.NewFakeClock(epoch)
	s := NewSchedule(0, time.Second, clock)

	if s.CurrentIndex() != 1 {
		t.Errorf("expected index 1, got %d", s.CurrentIndex())
	}
}

func TestSchedule_Progress(t *testing.T) {
	clock := core.NewFakeClock(epoch)
	s := NewSchedule(time.Second, 3*time.Second, clock)

	if s.Total() != 4*time.Second {
		t.Errorf("expected total 4s, got %v", s.Total())
	}

	clock.Advance(time.Second)
	if p := s.Progress(); p != 0.25 {
		t.Errorf("expected progress 0.25, got %v", p)
	}

	clock.Advance(10 * time.Second)
	if p := s.Progress(); p != 1 {
		t.Errorf("progress must clamp to 1, got %v", p)
	}
}

func TestSchedule_EmptyIsComplete(t *testing.T) {
	s := NewScheduleWithWindows(nil, core.NewFakeClock(epoch))

	if !s.IsComplete() {
		t.Error("expected empty schedule to be complete")
	}
	if s.Progress() != 1 {
		t.Errorf("expected progress 1, got %v", s.Progress())
	}
}

package collector

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qpsdriver/internal/core"
	"qpsdriver/internal/scenario"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestCollector() (*Collector, *core.FakeClock, *core.CPUTimes) {
	clock := core.NewFakeClock(epoch)
	cpu := &core.CPUTimes{}
	c := NewCollector(nil, 4, clock, func() core.CPUTimes { return *cpu })
	return c, clock, cpu
}

func TestCollector_CountsRequestsAndErrors(t *testing.T) {
	c, clock, _ := newTestCollector()

	c.Record(core.Event{Success: true, Duration: time.Millisecond})
	c.Record(core.Event{Success: true, Duration: 2 * time.Millisecond})
	c.Record(core.Event{Success: false, Duration: 3 * time.Millisecond})
	clock.Advance(2 * time.Second)

	stats := c.Mark(false)
	assert.Equal(t, int64(3), stats.RequestCount)
	assert.Equal(t, int64(1), stats.ErrorCount)
	assert.Equal(t, 2.0, stats.TimeElapsed)
	assert.Equal(t, 4, stats.Cores)
	require.NotNil(t, stats.Latencies)
}

func TestCollector_MarkResetStartsOver(t *testing.T) {
	c, clock, cpu := newTestCollector()

	c.Record(core.Event{Success: true, Duration: time.Millisecond})
	clock.Advance(time.Second)
	first := c.Mark(true)
	assert.Equal(t, int64(1), first.RequestCount)

	clock.Advance(3 * time.Second)
	cpu.User = 1500 * time.Millisecond
	c.Record(core.Event{Success: true, Duration: time.Millisecond})
	c.Record(core.Event{Success: true, Duration: time.Millisecond})

	second := c.Mark(true)
	assert.Equal(t, int64(2), second.RequestCount)
	assert.Equal(t, 3.0, second.TimeElapsed)
	assert.Equal(t, 1.5, second.TimeUser)
	assert.Equal(t, int64(2), MergeLatencies([]core.WorkerStats{second}).TotalCount())
}

func TestCollector_MarkWithoutResetKeepsCounting(t *testing.T) {
	c, _, _ := newTestCollector()

	c.Record(core.Event{Success: true, Duration: time.Millisecond})
	c.Mark(false)
	c.Record(core.Event{Success: true, Duration: time.Millisecond})

	assert.Equal(t, int64(2), c.Mark(false).RequestCount)
}

func TestCollector_ClampsOutOfRangeLatencies(t *testing.T) {
	c := NewCollector(&scenario.HistogramParams{Resolution: 0.01, MaxPossible: 1e6}, 1, nil, nil)

	c.Record(core.Event{Success: true, Duration: 100 * time.Microsecond})
	for i := 0; i < 99; i++ {
		c.Record(core.Event{Success: true, Duration: 5 * time.Millisecond})
	}

	stats := c.Mark(false)
	assert.Equal(t, int64(100), stats.RequestCount)

	h := MergeLatencies([]core.WorkerStats{stats})
	require.NotNil(t, h)
	assert.Equal(t, int64(100), h.TotalCount(), "every successful call is in the histogram")

	p := Percentiles(h)
	assert.GreaterOrEqual(t, p.P50, 990*time.Microsecond, "slow calls sit at the top of the range")
	assert.GreaterOrEqual(t, p.P99, 990*time.Microsecond)
}

func TestCollector_OversizedRangeIsCapped(t *testing.T) {
	c := NewCollector(&scenario.HistogramParams{Resolution: 0.01, MaxPossible: 1e20}, 1, nil, nil)

	c.Record(core.Event{Success: true, Duration: 2 * time.Millisecond})

	h := MergeLatencies([]core.WorkerStats{c.Mark(false)})
	require.NotNil(t, h)
	assert.Equal(t, int64(1), h.TotalCount())
	assert.InDelta(t, float64(2*time.Millisecond), float64(Percentiles(h).P50), float64(50*time.Microsecond))
}

func TestCollector_ThreadSafety(t *testing.T) {
	c, _, _ := newTestCollector()
	var wg sync.WaitGroup
	numGoroutines := 50
	eventsPerGoroutine := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				c.Record(core.Event{Success: true, Duration: time.Duration(j+1) * time.Microsecond})
			}
		}()
	}
	wg.Wait()

	stats := c.Mark(false)
	assert.Equal(t, int64(numGoroutines*eventsPerGoroutine), stats.RequestCount)
}

func TestNewHistogram_Params(t *testing.T) {
	tests := []struct {
		name    string
		params  *scenario.HistogramParams
		highest int64
		sigfigs int64
	}{
		{"defaults", nil, int64(DefaultMaxLatency), 3},
		{"one percent", &scenario.HistogramParams{Resolution: 0.01, MaxPossible: 60e9}, 60e9, 2},
		{"too fine", &scenario.HistogramParams{Resolution: 1e-9}, int64(DefaultMaxLatency), 5},
		{"too coarse", &scenario.HistogramParams{Resolution: 10}, int64(DefaultMaxLatency), 1},
		{"too wide", &scenario.HistogramParams{Resolution: 0.01, MaxPossible: 1e20}, int64(scenario.MaxPossibleLimit), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistogram(tt.params)
			assert.Equal(t, tt.highest, h.HighestTrackableValue())
			assert.Equal(t, tt.sigfigs, h.SignificantFigures())
		})
	}
}

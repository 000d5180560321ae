// Package ratelimit paces benchmark RPCs according to a scenario's load
// parameters and tracks the warmup and benchmark windows.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"qpsdriver/internal/core"
	"qpsdriver/internal/scenario"
)

// RateLimiter spaces calls evenly at a fixed rate. One limiter is shared by
// every slot of a client, so the offered load is client-wide.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter returns a limiter for qps calls per second. Burst is one so
// calls are not bunched at the start of the window.
func NewRateLimiter(qps float64) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(qps), 1),
	}
}

func (r *RateLimiter) Wait(ctx context.Context) error {
	// A zero rate disables pacing.
	if r.limiter.Limit() == 0 {
		return ctx.Err()
	}
	return r.limiter.Wait(ctx)
}

// closedLoop issues the next call as soon as the previous one completes.
type closedLoop struct{}

func (closedLoop) Wait(ctx context.Context) error { return ctx.Err() }

// PoissonPacer schedules calls with exponentially distributed gaps. Each
// slot owns one pacer; it is not safe for concurrent use.
type PoissonPacer struct {
	rng   *rand.Rand
	rate  float64
	clock core.Clock
	next  time.Time
}

// NewPoissonPacer returns a pacer averaging qps calls per second.
func NewPoissonPacer(qps float64, seed int64, clock core.Clock) *PoissonPacer {
	if clock == nil {
		clock = core.RealClock{}
	}
	return &PoissonPacer{
		rng:   rand.New(rand.NewSource(seed)),
		rate:  qps,
		clock: clock,
		next:  clock.Now(),
	}
}

// Gap draws the delay before the next call.
func (p *PoissonPacer) Gap() time.Duration {
	return time.Duration(p.rng.ExpFloat64() / p.rate * float64(time.Second))
}

// Wait blocks until the next scheduled arrival. Arrivals are scheduled from
// the previous arrival, not from when Wait is called, so slow calls do not
// lower the offered load.
func (p *PoissonPacer) Wait(ctx context.Context) error {
	if p.rate <= 0 {
		return ctx.Err()
	}
	p.next = p.next.Add(p.Gap())

	d := p.next.Sub(p.clock.Now())
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Factory hands out one pacer per outstanding slot.
type Factory struct {
	kind   scenario.LoadKind
	load   float64
	slots  int
	seed   int64
	shared *RateLimiter
	mu     sync.Mutex
	handed int
}

// NewFactory builds pacers for a client with the given number of slots.
// Nil load params mean closed loop.
func NewFactory(load *scenario.LoadParams, slots int, seed int64) *Factory {
	f := &Factory{kind: scenario.ClosedLoop, slots: max(slots, 1), seed: seed}
	if load != nil {
		f.kind = load.Kind
		f.load = load.OfferedLoad
	}
	if f.kind == scenario.Deterministic {
		f.shared = NewRateLimiter(f.load)
	}
	return f
}

// Kind returns the load kind pacers are built for.
func (f *Factory) Kind() scenario.LoadKind { return f.kind }

// Next returns the pacer for the next slot. Poisson slots each get an equal
// share of the offered load.
func (f *Factory) Next() core.Pacer {
	switch f.kind {
	case scenario.Deterministic:
		return f.shared
	case scenario.Poisson:
		f.mu.Lock()
		n := f.handed
		f.handed++
		f.mu.Unlock()
		return NewPoissonPacer(f.load/float64(f.slots), f.seed+int64(n), nil)
	default:
		return closedLoop{}
	}
}

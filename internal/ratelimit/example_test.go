package ratelimit_test

import (
	"context"
	"fmt"
	"time"

	"qpsdriver/internal/ratelimit"
	"qpsdriver/internal/scenario"
)

func ExampleNewRateLimiter() {
	// 1000 calls per second, shared by every slot of a client
	limiter := ratelimit.NewRateLimiter(1000)

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := limiter.Wait(ctx); err != nil {
			fmt.Println("Context cancelled")
			return
		}
	}
	elapsed := time.Since(start)

	fmt.Printf("5 calls completed in under 100ms: %v\n", elapsed < 100*time.Millisecond)
	// Output: 5 calls completed in under 100ms: true
}

func ExampleNewFactory() {
	load := &scenario.LoadParams{Kind: scenario.Poisson, OfferedLoad: 500}
	f := ratelimit.NewFactory(load, 10, 1)

	fmt.Println(f.Kind())
	// Output: poisson
}

func ExampleNewSchedule() {
	s := ratelimit.NewSchedule(5*time.Second, 30*time.Second, nil)

	fmt.Printf("Window: %s, total: %v\n", s.Current().Name, s.Total())
	// Output: Window: warmup, total: 35s
}

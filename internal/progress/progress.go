// Package progress writes per-scenario notices and window progress lines to
// the diagnostic stream.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"qpsdriver/internal/ratelimit"
)

const defaultInterval = time.Second

type Progress struct {
	schedule *ratelimit.Schedule
	interval time.Duration
	stopCh   chan struct{}
	done     chan struct{}
	quiet    bool
	output   io.Writer
	mu       sync.Mutex
}

func NewProgress(quiet bool) *Progress {
	return &Progress{
		quiet:    quiet,
		interval: defaultInterval,
		output:   os.Stderr,
	}
}

func (p *Progress) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = w
}

// SetInterval sets the progress line refresh period. Non-positive values
// keep the current one.
func (p *Progress) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interval = d
}

// Scenario announces the scenario about to run. It is written even in
// quiet mode.
func (p *Progress) Scenario(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.output, "RUNNING SCENARIO: %s\n", name)
}

// Start prints the active window of s every interval until Stop.
func (p *Progress) Start(s *ratelimit.Schedule) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopCh != nil {
		return
	}
	p.schedule = s
	p.stopCh = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(p.stopCh, p.done, p.interval)
}

func (p *Progress) run(stop, done chan struct{}, interval time.Duration) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.printProgress()
		}
	}
}

func (p *Progress) printProgress() {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.schedule
	w := s.Current()
	if w == nil {
		return
	}
	remaining := s.Remaining().Round(time.Second)
	mins := int(remaining.Minutes())
	secs := int(remaining.Seconds()) % 60
	fmt.Fprintf(p.output, "\033[K[%s %02d:%02d left] %.0f%% complete\r", w.Name, mins, secs, 100*s.Progress())
}

// Stop ends the progress line. Safe to call without Start and more than
// once.
func (p *Progress) Stop() {
	p.mu.Lock()
	stop, done := p.stopCh, p.done
	p.stopCh, p.done = nil, nil
	p.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done

	p.mu.Lock()
	fmt.Fprintf(p.output, "\033[K")
	p.mu.Unlock()
}

// Printf writes one notice line, clearing any progress line first.
func (p *Progress) Printf(format string, args ...any) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\033[K"+format+"\n", args...)
	p.mu.Unlock()
}

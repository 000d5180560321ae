// Package coordinator runs a single scenario: it assigns workers, starts
// servers then clients, times the warmup and benchmark windows and
// gathers every worker's statistics into a RunResult.
package coordinator

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"qpsdriver/internal/collector"
	"qpsdriver/internal/core"
	"qpsdriver/internal/progress"
	"qpsdriver/internal/ratelimit"
	"qpsdriver/internal/scenario"
	"qpsdriver/internal/worker"
)

// teardownTimeout bounds how long stopping workers may take once a
// scenario ends, including after cancellation.
const teardownTimeout = 10 * time.Second

// Options wires a Runner to its workers. Zero values select in-process
// workers, gRPC remote workers and real sleeps.
type Options struct {
	// Remotes are qps_worker addresses, used by every scenario.
	Remotes  []string
	NewLocal func() worker.Worker
	Dial     func(addr string) (worker.Worker, error)
	Progress *progress.Progress
	Clock    core.Clock
	// Sleep waits out a window. It must return early with the context's
	// error when ctx ends.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Runner implements core.Runner.
type Runner struct {
	opts Options
	log  logrus.FieldLogger
}

var _ core.Runner = (*Runner)(nil)

func NewRunner(log logrus.FieldLogger, opts Options) *Runner {
	if opts.NewLocal == nil {
		opts.NewLocal = func() worker.Worker { return worker.NewLocal(log) }
	}
	if opts.Dial == nil {
		opts.Dial = func(addr string) (worker.Worker, error) { return worker.Dial(addr, nil) }
	}
	if opts.Clock == nil {
		opts.Clock = core.RealClock{}
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	return &Runner{opts: opts, log: log.WithField("component", "runner")}
}

func sleep(ctx context.Context, d time.Duration) error {
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

// RunScenario runs one scenario to completion. Every worker started for it
// is stopped before it returns, also on error or cancellation.
func (r *Runner) RunScenario(ctx context.Context,
	clientConfig scenario.ClientConfig, numClients int32,
	serverConfig scenario.ServerConfig, numServers int32,
	warmupSeconds, benchmarkSeconds, spawnLocalWorkerCount int32,
) (result *core.RunResult, err error) {
	defer r.recoverPanic(&err)

	sc := scenario.Scenario{
		ClientConfig:          clientConfig,
		NumClients:            numClients,
		ServerConfig:          serverConfig,
		NumServers:            numServers,
		WarmupSeconds:         warmupSeconds,
		BenchmarkSeconds:      benchmarkSeconds,
		SpawnLocalWorkerCount: spawnLocalWorkerCount,
	}
	if err := sc.Runnable(); err != nil {
		return nil, err
	}

	set, err := worker.Assemble(r.opts.Remotes, spawnLocalWorkerCount, r.opts.NewLocal, r.opts.Dial)
	if err != nil {
		return nil, errors.Wrap(err, "assemble workers")
	}
	defer func() {
		if cerr := set.Close(); cerr != nil {
			r.log.WithError(cerr).Warn("Closing workers")
		}
	}()

	servers, clients, err := set.Split(int(numServers), int(numClients))
	if err != nil {
		return nil, err
	}
	r.log.WithFields(logrus.Fields{
		"workers": set.Len(),
		"servers": len(servers),
		"clients": len(clients),
	}).Info("Workers assigned")
	if p := r.opts.Progress; p != nil {
		p.Printf("Workers: %d servers, %d clients", len(servers), len(clients))
	}

	var startedServers, startedClients []worker.Worker
	defer func() { r.teardown(startedClients, startedServers) }()

	serverCores := make([]int, 0, len(servers))
	targets := make([]string, 0, len(servers))
	for _, w := range servers {
		st, err := w.StartServer(ctx, serverConfig)
		if err != nil {
			return nil, errors.Wrapf(err, "start server on %s", w.Address())
		}
		startedServers = append(startedServers, w)
		serverCores = append(serverCores, st.Cores)
		targets = append(targets, net.JoinHostPort(w.Host(), strconv.Itoa(int(st.Port))))
	}
	if len(servers) > 0 {
		clientConfig.ServerTargets = targets
	}

	for _, w := range clients {
		if err := w.StartClient(ctx, clientConfig); err != nil {
			return nil, errors.Wrapf(err, "start client on %s", w.Address())
		}
		startedClients = append(startedClients, w)
	}

	warmup, benchmark := sc.WarmupDuration(), sc.BenchmarkDuration()

	if p := r.opts.Progress; p != nil {
		p.Start(ratelimit.NewSchedule(warmup, benchmark, r.opts.Clock))
		defer p.Stop()
	}

	r.log.WithField("duration", warmup).Info("Warming up")
	if err := r.opts.Sleep(ctx, warmup); err != nil {
		return nil, errors.Wrap(err, "warmup interrupted")
	}
	if _, _, err := r.markAll(ctx, servers, clients); err != nil {
		return nil, err
	}

	r.log.WithField("duration", benchmark).Info("Benchmarking")
	if err := r.opts.Sleep(ctx, benchmark); err != nil {
		return nil, errors.Wrap(err, "benchmark interrupted")
	}
	serverStats, clientStats, err := r.markAll(ctx, servers, clients)
	if err != nil {
		return nil, err
	}

	result = &core.RunResult{
		Warmup:      warmup,
		Benchmark:   benchmark,
		Latencies:   collector.MergeLatencies(clientStats),
		ClientStats: clientStats,
		ServerStats: serverStats,
		ServerCores: serverCores,
	}
	result.Summary = collector.Summarize(result)
	return result, nil
}

// markAll takes a resetting mark on every worker, servers first.
func (r *Runner) markAll(ctx context.Context, servers, clients []worker.Worker) (serverStats, clientStats []core.WorkerStats, err error) {
	mark := func(ws []worker.Worker) ([]core.WorkerStats, error) {
		out := make([]core.WorkerStats, 0, len(ws))
		for _, w := range ws {
			s, err := w.Mark(ctx, true)
			if err != nil {
				return nil, errors.Wrapf(err, "mark %s", w.Address())
			}
			out = append(out, s)
		}
		return out, nil
	}

	if serverStats, err = mark(servers); err != nil {
		return nil, nil, err
	}
	if clientStats, err = mark(clients); err != nil {
		return nil, nil, err
	}
	return serverStats, clientStats, nil
}

// teardown stops clients before servers so no client sees its server go
// away mid-run. It ignores the scenario context, which may be cancelled.
func (r *Runner) teardown(clients, servers []worker.Worker) {
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()

	for _, group := range [][]worker.Worker{clients, servers} {
		for _, w := range group {
			if err := w.Stop(ctx); err != nil {
				r.log.WithError(err).WithField("worker", w.Address()).Warn("Stopping worker")
			}
		}
	}
}

// recoverPanic turns a panic inside a scenario into its error.
func (r *Runner) recoverPanic(err *error) {
	if v := recover(); v != nil {
		r.log.WithField("panic", v).Error("Scenario panicked")
		*err = errors.Errorf("panic: %v", v)
	}
}

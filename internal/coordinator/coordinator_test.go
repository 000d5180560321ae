package coordinator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qpsdriver/internal/collector"
	"qpsdriver/internal/core"
	"qpsdriver/internal/progress"
	"qpsdriver/internal/scenario"
	"qpsdriver/internal/worker"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.Out = io.Discard
	return log
}

// journal records worker calls across all fakes in order.
type journal struct {
	mu    sync.Mutex
	calls []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, fmt.Sprintf(format, args...))
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.calls...)
}

type fakeWorker struct {
	name    string
	j       *journal
	cores   int
	port    int32
	stats   core.WorkerStats
	targets []string

	startErr error
	markErr  error
	panicky  bool
}

func (f *fakeWorker) Address() string { return f.name }
func (f *fakeWorker) Host() string    { return f.name + ".host" }

func (f *fakeWorker) StartServer(_ context.Context, cfg scenario.ServerConfig) (core.ServerStatus, error) {
	f.j.add("%s start_server", f.name)
	if f.startErr != nil {
		return core.ServerStatus{}, f.startErr
	}
	return core.ServerStatus{Port: f.port, Cores: f.cores}, nil
}

func (f *fakeWorker) StartClient(_ context.Context, cfg scenario.ClientConfig) error {
	f.j.add("%s start_client", f.name)
	f.targets = cfg.ServerTargets
	return f.startErr
}

func (f *fakeWorker) Mark(_ context.Context, reset bool) (core.WorkerStats, error) {
	f.j.add("%s mark", f.name)
	if f.panicky {
		panic("mark exploded")
	}
	return f.stats, f.markErr
}

func (f *fakeWorker) Stop(context.Context) error {
	f.j.add("%s stop", f.name)
	return nil
}

func (f *fakeWorker) Close() error {
	f.j.add("%s close", f.name)
	return nil
}

type fixture struct {
	j      *journal
	locals []*fakeWorker
	sleeps []time.Duration
	runner *Runner
}

func newFixture(t *testing.T, workers ...*fakeWorker) *fixture {
	t.Helper()
	f := &fixture{j: &journal{}}
	next := 0
	for _, w := range workers {
		w.j = f.j
	}
	f.locals = workers
	f.runner = NewRunner(quietLogger(), Options{
		NewLocal: func() worker.Worker {
			w := workers[next]
			next++
			return w
		},
		Dial: func(addr string) (worker.Worker, error) {
			return nil, errors.Errorf("unexpected dial %s", addr)
		},
		Sleep: func(ctx context.Context, d time.Duration) error {
			f.sleeps = append(f.sleeps, d)
			return ctx.Err()
		},
	})
	return f
}

func clientStats(requests int64, elapsed float64, latencies ...time.Duration) core.WorkerStats {
	h := collector.NewHistogram(nil)
	for _, l := range latencies {
		_ = h.RecordValue(int64(l))
	}
	return core.WorkerStats{TimeElapsed: elapsed, RequestCount: requests, TimeUser: elapsed / 2, Latencies: h.Export()}
}

func TestRunScenario_Lifecycle(t *testing.T) {
	srv := &fakeWorker{name: "s", port: 5000, cores: 4, stats: core.WorkerStats{TimeElapsed: 2, TimeSystem: 1}}
	c1 := &fakeWorker{name: "c1", stats: clientStats(200, 2, time.Millisecond)}
	c2 := &fakeWorker{name: "c2", stats: clientStats(100, 2, 3*time.Millisecond)}
	f := newFixture(t, srv, c1, c2)

	res, err := f.runner.RunScenario(context.Background(),
		scenario.ClientConfig{}, 2, scenario.ServerConfig{}, 1, 1, 3, 3)
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{time.Second, 3 * time.Second}, f.sleeps)
	assert.Equal(t, []string{"s.host:5000"}, c1.targets)
	assert.Equal(t, []string{"s.host:5000"}, c2.targets)

	assert.Equal(t, []string{
		"s start_server",
		"c1 start_client", "c2 start_client",
		"s mark", "c1 mark", "c2 mark", // end of warmup
		"s mark", "c1 mark", "c2 mark", // end of benchmark
		"c1 stop", "c2 stop", "s stop",
		"s close", "c1 close", "c2 close",
	}, f.j.list())

	assert.Equal(t, []int{4}, res.ServerCores)
	assert.Len(t, res.ClientStats, 2)
	assert.Len(t, res.ServerStats, 1)
	assert.Equal(t, int64(2), res.Latencies.TotalCount())
	assert.InDelta(t, 150.0, res.Summary.QPS, 1e-9)
	assert.InDelta(t, 37.5, res.Summary.QPSPerServerCore, 1e-9)
	assert.InDelta(t, 50.0, res.Summary.ServerSystemTime, 1e-9)
	assert.InDelta(t, 50.0, res.Summary.ClientUserTime, 1e-9)
	assert.Equal(t, 3*time.Second, res.Benchmark)
}

func TestRunScenario_NoServersUsesConfiguredTargets(t *testing.T) {
	c := &fakeWorker{name: "c"}
	f := newFixture(t, c)

	_, err := f.runner.RunScenario(context.Background(),
		scenario.ClientConfig{ServerTargets: []string{"elsewhere:443"}}, 1,
		scenario.ServerConfig{}, 0, 0, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"elsewhere:443"}, c.targets)
}

func TestRunScenario_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		client     scenario.ClientConfig
		server     scenario.ServerConfig
		numClients int32
		numServers int32
		spawn      int32
		want       string
	}{
		{"no clients", scenario.ClientConfig{}, scenario.ServerConfig{}, 0, 1, 2, "at least one client"},
		{"no servers or targets", scenario.ClientConfig{}, scenario.ServerConfig{}, 1, 0, 1, "no servers"},
		{"security", scenario.ClientConfig{SecurityParams: &scenario.SecurityParams{UseTestCA: true}}, scenario.ServerConfig{}, 1, 1, 2, "security"},
		{"generic server", scenario.ClientConfig{}, scenario.ServerConfig{ServerType: scenario.AsyncGenericServer}, 1, 1, 2, "server_type ASYNC_GENERIC_SERVER: unsupported"},
		{"one-way streaming", scenario.ClientConfig{RPCType: scenario.StreamingFromClient}, scenario.ServerConfig{}, 1, 1, 2, "rpc_type STREAMING_FROM_CLIENT: unsupported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, &fakeWorker{name: "a"}, &fakeWorker{name: "b"})
			_, err := f.runner.RunScenario(context.Background(),
				tt.client, tt.numClients, tt.server, tt.numServers, 0, 0, tt.spawn)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, f.j.list(), "rejected before any worker is touched")
		})
	}
}

func TestRunScenario_NotEnoughWorkers(t *testing.T) {
	f := newFixture(t, &fakeWorker{name: "a"}, &fakeWorker{name: "b"})
	_, err := f.runner.RunScenario(context.Background(),
		scenario.ClientConfig{}, 2, scenario.ServerConfig{}, 1, 0, 0, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enough workers")
}

func TestRunScenario_ReportsAssignment(t *testing.T) {
	var buf bytes.Buffer
	prog := progress.NewProgress(false)
	prog.SetOutput(&buf)

	f := newFixture(t, &fakeWorker{name: "s"}, &fakeWorker{name: "c"})
	f.runner.opts.Progress = prog

	_, err := f.runner.RunScenario(context.Background(),
		scenario.ClientConfig{}, 1, scenario.ServerConfig{}, 1, 0, 0, 2)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Workers: 1 servers, 1 clients\n")
}

func TestRunScenario_ClientStartFailureStopsServers(t *testing.T) {
	srv := &fakeWorker{name: "s", port: 1}
	cli := &fakeWorker{name: "c", startErr: errors.New("refused")}
	f := newFixture(t, srv, cli)

	_, err := f.runner.RunScenario(context.Background(),
		scenario.ClientConfig{}, 1, scenario.ServerConfig{}, 1, 1, 1, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start client on c")
	assert.Equal(t, []string{"s start_server", "c start_client", "s stop", "s close", "c close"}, f.j.list())
	assert.Empty(t, f.sleeps, "no window starts")
}

func TestRunScenario_CancelledDuringWarmup(t *testing.T) {
	srv := &fakeWorker{name: "s"}
	cli := &fakeWorker{name: "c"}
	f := newFixture(t, srv, cli)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.runner.RunScenario(ctx, scenario.ClientConfig{}, 1, scenario.ServerConfig{}, 1, 5, 5, -2)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, f.j.list(), "c stop")
	assert.Contains(t, f.j.list(), "s stop")
}

func TestRunScenario_MarkFailure(t *testing.T) {
	srv := &fakeWorker{name: "s"}
	cli := &fakeWorker{name: "c", markErr: errors.New("lost")}
	f := newFixture(t, srv, cli)

	_, err := f.runner.RunScenario(context.Background(), scenario.ClientConfig{}, 1, scenario.ServerConfig{}, 1, 0, 0, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mark c")
}

func TestRunScenario_PanicBecomesError(t *testing.T) {
	srv := &fakeWorker{name: "s", panicky: true}
	cli := &fakeWorker{name: "c"}
	f := newFixture(t, srv, cli)

	res, err := f.runner.RunScenario(context.Background(), scenario.ClientConfig{}, 1, scenario.ServerConfig{}, 1, 0, 0, 2)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "mark exploded")
	assert.Contains(t, f.j.list(), "c stop", "teardown still runs")
}

func TestRunScenario_LocalLoopback(t *testing.T) {
	log := quietLogger()
	r := NewRunner(log, Options{
		NewLocal: func() worker.Worker { return worker.NewLocal(log, worker.WithBindHost("127.0.0.1")) },
		Sleep: func(ctx context.Context, d time.Duration) error {
			return sleep(ctx, d/10)
		},
	})

	res, err := r.RunScenario(context.Background(),
		scenario.ClientConfig{
			RPCType:                   scenario.Unary,
			OutstandingRPCsPerChannel: 2,
			ClientChannels:            1,
			PayloadConfig:             &scenario.PayloadConfig{Simple: &scenario.SimpleParams{ReqSize: 8, RespSize: 8}},
		}, 1,
		scenario.ServerConfig{CoreLimit: 1}, 1,
		0, 2, 2)
	require.NoError(t, err)

	assert.Positive(t, res.Summary.RequestCount)
	assert.Positive(t, res.Summary.QPS)
	assert.Equal(t, res.Summary.QPS, res.Summary.QPSPerServerCore)
	assert.Positive(t, res.Summary.Latency.P50)
	assert.Zero(t, res.Summary.ErrorCount)
}

package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"qpsdriver/internal/bench"
	"qpsdriver/internal/core"
	"qpsdriver/internal/scenario"
)

var localIDs atomic.Int64

// Local hosts a server or client in the current process.
type Local struct {
	id       int64
	bindHost string
	log      logrus.FieldLogger
	debug    *bench.DebugLogger

	mu     sync.Mutex
	server *bench.Server
	client *bench.Client
}

// LocalOption configures a Local worker.
type LocalOption func(*Local)

// WithBindHost sets the host servers listen on when their config names
// none.
func WithBindHost(host string) LocalOption {
	return func(l *Local) { l.bindHost = host }
}

// WithDebug logs every benchmark RPC.
func WithDebug(d *bench.DebugLogger) LocalOption {
	return func(l *Local) { l.debug = d }
}

func NewLocal(log logrus.FieldLogger, opts ...LocalOption) *Local {
	l := &Local{id: localIDs.Add(1)}
	for _, opt := range opts {
		opt(l)
	}
	l.log = log.WithField("worker", l.Address())
	return l
}

func (l *Local) Address() string {
	return fmt.Sprintf("local:%d", l.id)
}

// Host returns the bind host, or localhost when servers listen on every
// interface.
func (l *Local) Host() string {
	switch l.bindHost {
	case "", "0.0.0.0", "::":
		return "localhost"
	default:
		return l.bindHost
	}
}

func (l *Local) StartServer(_ context.Context, cfg scenario.ServerConfig) (core.ServerStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.server != nil || l.client != nil {
		return core.ServerStatus{}, ErrBusy
	}
	if cfg.Host == "" {
		cfg.Host = l.bindHost
	}

	s, err := bench.NewServer(cfg, l.log, l.debug)
	if err != nil {
		return core.ServerStatus{}, err
	}
	l.server = s
	return s.Status(), nil
}

func (l *Local) StartClient(_ context.Context, cfg scenario.ClientConfig) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.server != nil || l.client != nil {
		return ErrBusy
	}

	c, err := bench.NewClient(cfg, l.log, l.debug)
	if err != nil {
		return err
	}
	l.client = c
	return nil
}

func (l *Local) Mark(_ context.Context, reset bool) (core.WorkerStats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case l.server != nil:
		return l.server.Mark(reset), nil
	case l.client != nil:
		return l.client.Mark(reset), nil
	default:
		return core.WorkerStats{}, ErrIdle
	}
}

func (l *Local) Stop(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client != nil {
		l.client.Stop()
		l.client = nil
	}
	if l.server != nil {
		l.server.Stop()
		l.server = nil
	}
	return nil
}

func (l *Local) Close() error {
	return l.Stop(context.Background())
}

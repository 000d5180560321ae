// Package worker hosts benchmark servers and clients on behalf of the
// scenario runner, either in-process or in a qps_worker process reached
// over gRPC.
package worker

import (
	"context"

	"github.com/go-faster/errors"

	"qpsdriver/internal/core"
	"qpsdriver/internal/scenario"
)

var (
	// ErrBusy is returned when a worker already hosts a server or client.
	ErrBusy = errors.New("worker is busy")
	// ErrIdle is returned by Mark when a worker hosts nothing.
	ErrIdle = errors.New("worker is idle")
)

// Worker hosts at most one benchmark server or client at a time.
type Worker interface {
	// Address identifies the worker in logs and errors.
	Address() string
	// Host is how clients on other workers reach servers started here.
	Host() string
	StartServer(ctx context.Context, cfg scenario.ServerConfig) (core.ServerStatus, error)
	StartClient(ctx context.Context, cfg scenario.ClientConfig) error
	// Mark returns statistics since the last reset and optionally resets.
	Mark(ctx context.Context, reset bool) (core.WorkerStats, error)
	// Stop shuts down whatever the worker hosts. Stopping an idle worker
	// is not an error.
	Stop(ctx context.Context) error
	// Close releases the worker itself.
	Close() error
}

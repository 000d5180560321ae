package worker

import (
	"context"
	"net"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/dynamicpb"

	"qpsdriver/internal/core"
	"qpsdriver/internal/scenario"
	"qpsdriver/internal/schema"
)

// Remote drives a qps_worker process through its WorkerService.
type Remote struct {
	addr string
	conn *grpc.ClientConn
	pool *schema.Pool
}

// Dial creates a client for the worker at addr. The connection is
// established lazily on the first call.
func Dial(addr string, pool *schema.Pool, opts ...grpc.DialOption) (*Remote, error) {
	if pool == nil {
		pool = schema.DefaultPool()
	}
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "dial worker %s", addr)
	}
	return &Remote{addr: addr, conn: conn, pool: pool}, nil
}

func (r *Remote) Address() string { return r.addr }

func (r *Remote) Host() string {
	host, _, err := net.SplitHostPort(r.addr)
	if err != nil {
		return r.addr
	}
	return host
}

func (r *Remote) invoke(ctx context.Context, method string, req proto.Message, respType string) (*dynamicpb.Message, error) {
	resp := r.pool.MustNew(respType)
	if err := r.conn.Invoke(ctx, method, req, resp); err != nil {
		return nil, errors.Wrapf(err, "worker %s", r.addr)
	}
	return resp, nil
}

func (r *Remote) StartServer(ctx context.Context, cfg scenario.ServerConfig) (core.ServerStatus, error) {
	resp, err := r.invoke(ctx, startServerMethod, r.pool.EncodeServerConfig(&cfg), schema.ServerStatusMessage)
	if err != nil {
		return core.ServerStatus{}, err
	}
	return schema.DecodeServerStatus(resp), nil
}

func (r *Remote) StartClient(ctx context.Context, cfg scenario.ClientConfig) error {
	_, err := r.invoke(ctx, startClientMethod, r.pool.EncodeClientConfig(&cfg), schema.VoidMessage)
	return err
}

func (r *Remote) Mark(ctx context.Context, reset bool) (core.WorkerStats, error) {
	resp, err := r.invoke(ctx, markMethod, r.pool.EncodeMark(reset), schema.WorkerStatsMessage)
	if err != nil {
		return core.WorkerStats{}, err
	}
	return schema.DecodeWorkerStats(resp), nil
}

func (r *Remote) Stop(ctx context.Context) error {
	_, err := r.invoke(ctx, stopMethod, r.pool.MustNew(schema.VoidMessage), schema.VoidMessage)
	return err
}

// Quit asks the worker process to exit.
func (r *Remote) Quit(ctx context.Context) error {
	_, err := r.invoke(ctx, quitMethod, r.pool.MustNew(schema.VoidMessage), schema.VoidMessage)
	return err
}

// Close closes the connection. The remote process keeps running.
func (r *Remote) Close() error {
	return r.conn.Close()
}

// QuitAll asks every worker at addrs to exit. Every address is tried; the
// first error is returned.
func QuitAll(ctx context.Context, addrs []string, pool *schema.Pool, log logrus.FieldLogger) error {
	var first error
	for _, addr := range addrs {
		err := quit(ctx, addr, pool)
		if err != nil {
			log.WithError(err).WithField("worker", addr).Warn("Quitting worker")
			if first == nil {
				first = err
			}
			continue
		}
		log.WithField("worker", addr).Info("Worker quit")
	}
	return first
}

func quit(ctx context.Context, addr string, pool *schema.Pool) error {
	r, err := Dial(addr, pool)
	if err != nil {
		return err
	}
	defer r.Close()
	return r.Quit(ctx)
}

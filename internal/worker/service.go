package worker

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/dynamicpb"

	"qpsdriver/internal/bench"
	"qpsdriver/internal/scenario"
	"qpsdriver/internal/schema"
)

// Service and method names on the wire.
const (
	ServiceName       = "grpc.testing.WorkerService"
	startServerMethod = "/" + ServiceName + "/StartServer"
	startClientMethod = "/" + ServiceName + "/StartClient"
	markMethod        = "/" + ServiceName + "/Mark"
	stopMethod        = "/" + ServiceName + "/Stop"
	quitMethod        = "/" + ServiceName + "/QuitWorker"
)

// Service exposes a Local worker over gRPC. Messages are dynamic and
// resolved from the schema pool.
type Service struct {
	local *Local
	pool  *schema.Pool
	log   logrus.FieldLogger

	quitOnce sync.Once
	quit     chan struct{}
}

func NewService(local *Local, pool *schema.Pool, log logrus.FieldLogger) *Service {
	if pool == nil {
		pool = schema.DefaultPool()
	}
	return &Service{
		local: local,
		pool:  pool,
		log:   log.WithField("component", "worker_service"),
		quit:  make(chan struct{}),
	}
}

// Register adds the WorkerService to s.
func (svc *Service) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{
			svc.method("StartServer", schema.ServerConfigMessage, svc.startServer),
			svc.method("StartClient", schema.ClientConfigMessage, svc.startClient),
			svc.method("Mark", schema.MarkMessage, svc.mark),
			svc.method("Stop", schema.VoidMessage, svc.stop),
			svc.method("QuitWorker", schema.VoidMessage, svc.quitWorker),
		},
		Metadata: "worker_service.proto",
	}, svc)
}

// Done is closed once a driver asked the worker to quit.
func (svc *Service) Done() <-chan struct{} { return svc.quit }

type methodFunc func(ctx context.Context, req *dynamicpb.Message) (proto.Message, error)

func (svc *Service) method(name, reqType string, fn methodFunc) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(_ any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := svc.pool.MustNew(reqType)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: svc, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return fn(ctx, req.(*dynamicpb.Message))
			})
		},
	}
}

func (svc *Service) startServer(ctx context.Context, req *dynamicpb.Message) (proto.Message, error) {
	cfg := schema.DecodeServerConfig(req)
	st, err := svc.local.StartServer(ctx, cfg)
	if err != nil {
		return nil, toStatus(err)
	}
	return svc.pool.EncodeServerStatus(st), nil
}

func (svc *Service) startClient(ctx context.Context, req *dynamicpb.Message) (proto.Message, error) {
	cfg := schema.DecodeClientConfig(req)
	if err := svc.local.StartClient(ctx, cfg); err != nil {
		return nil, toStatus(err)
	}
	return svc.pool.MustNew(schema.VoidMessage), nil
}

func (svc *Service) mark(ctx context.Context, req *dynamicpb.Message) (proto.Message, error) {
	stats, err := svc.local.Mark(ctx, schema.DecodeMark(req))
	if err != nil {
		return nil, toStatus(err)
	}
	return svc.pool.EncodeWorkerStats(stats), nil
}

func (svc *Service) stop(ctx context.Context, _ *dynamicpb.Message) (proto.Message, error) {
	if err := svc.local.Stop(ctx); err != nil {
		return nil, toStatus(err)
	}
	return svc.pool.MustNew(schema.VoidMessage), nil
}

func (svc *Service) quitWorker(ctx context.Context, _ *dynamicpb.Message) (proto.Message, error) {
	if err := svc.local.Stop(ctx); err != nil {
		svc.log.WithError(err).Warn("Stopping before quit")
	}
	svc.quitOnce.Do(func() {
		svc.log.Info("Quit requested")
		close(svc.quit)
	})
	return svc.pool.MustNew(schema.VoidMessage), nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, ErrBusy), errors.Is(err, ErrIdle):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, bench.ErrSecurityUnsupported), errors.Is(err, scenario.ErrUnsupported):
		return status.Error(codes.Unimplemented, err.Error())
	default:
		if _, ok := status.FromError(err); ok {
			return err
		}
		return status.Error(codes.Internal, err.Error())
	}
}

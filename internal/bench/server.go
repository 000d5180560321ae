package bench

import (
	"context"
	"io"
	"net"
	"runtime"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"qpsdriver/internal/core"
	"qpsdriver/internal/scenario"
)

// ErrSecurityUnsupported is returned for configs that ask for TLS.
var ErrSecurityUnsupported = errors.New("security params are not supported")

// Server is a benchmark server bound to a TCP port.
type Server struct {
	grpc      *grpc.Server
	lis       net.Listener
	port      int32
	cores     int
	payload   []byte // nil echoes the request size
	stopwatch *core.Stopwatch
	log       logrus.FieldLogger
	done      chan struct{}
}

// Cores returns the core count reported for a config: core_limit when set,
// otherwise every CPU of the host.
func Cores(limit int32) int {
	if limit > 0 {
		return int(limit)
	}
	return runtime.NumCPU()
}

// NewServer listens on the configured host and port (port 0 picks a free
// one) and starts serving.
func NewServer(cfg scenario.ServerConfig, log logrus.FieldLogger, debug *DebugLogger) (*Server, error) {
	if cfg.SecurityParams.Enabled() {
		return nil, ErrSecurityUnsupported
	}
	if err := cfg.Supported(); err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(int(cfg.Port)))
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen on %s", addr)
	}

	s := &Server{
		lis:       lis,
		port:      int32(lis.Addr().(*net.TCPAddr).Port),
		cores:     Cores(cfg.CoreLimit),
		stopwatch: core.NewStopwatch(nil, nil),
		log:       log.WithField("component", "bench_server"),
		done:      make(chan struct{}),
	}
	if size := cfg.PayloadConfig.ResponseSize(); size > 0 {
		s.payload = make([]byte, size)
	}

	s.grpc = grpc.NewServer(
		grpc.ChainUnaryInterceptor(debug.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(debug.StreamServerInterceptor()),
	)
	RegisterBenchmarkService(s.grpc, s)

	go func() {
		defer close(s.done)
		if err := s.grpc.Serve(lis); err != nil {
			s.log.WithError(err).Error("Benchmark server stopped")
		}
	}()

	s.log.WithFields(logrus.Fields{
		"port":  s.port,
		"cores": s.cores,
		"type":  cfg.ServerType,
	}).Info("Benchmark server started")
	return s, nil
}

// Port returns the port the server is bound to.
func (s *Server) Port() int32 { return s.port }

// Cores returns the core count the server reports.
func (s *Server) Cores() int { return s.cores }

// Status returns the port and core count.
func (s *Server) Status() core.ServerStatus {
	return core.ServerStatus{Port: s.port, Cores: s.cores}
}

// Mark returns wall and CPU time since the last reset.
func (s *Server) Mark(reset bool) core.WorkerStats {
	iv := s.stopwatch.Mark(reset)
	return core.WorkerStats{
		TimeElapsed: iv.Wall.Seconds(),
		TimeUser:    iv.User.Seconds(),
		TimeSystem:  iv.System.Seconds(),
		Cores:       s.cores,
	}
}

// Stop closes the listener and aborts in-flight RPCs.
func (s *Server) Stop() {
	s.grpc.Stop()
	<-s.done
	s.log.WithField("port", s.port).Info("Benchmark server stopped")
}

func (s *Server) response(req *wrapperspb.BytesValue) *wrapperspb.BytesValue {
	if s.payload != nil {
		return &wrapperspb.BytesValue{Value: s.payload}
	}
	return &wrapperspb.BytesValue{Value: make([]byte, len(req.GetValue()))}
}

func (s *Server) UnaryCall(_ context.Context, req *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return s.response(req), nil
}

// StreamingCall answers every message on a ping-pong stream until the
// client closes its side.
func (s *Server) StreamingCall(stream grpc.ServerStream) error {
	for {
		req := new(wrapperspb.BytesValue)
		if err := stream.RecvMsg(req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := stream.SendMsg(s.response(req)); err != nil {
			return err
		}
	}
}

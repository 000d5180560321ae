package bench

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const maxPayloadLogSize = 64

// DebugLogger logs every benchmark RPC at debug level. A nil DebugLogger
// logs nothing; its interceptors pass calls straight through.
type DebugLogger struct {
	log logrus.FieldLogger
}

func NewDebugLogger(log logrus.FieldLogger) *DebugLogger {
	return &DebugLogger{log: log}
}

func (d *DebugLogger) LogCall(side, method string, req, resp any, err error, duration time.Duration) {
	if d == nil {
		return
	}
	fields := logrus.Fields{
		"side":     side,
		"method":   method,
		"duration": duration.Round(time.Microsecond).String(),
		"code":     status.Code(err).String(),
	}
	if n, ok := payloadSize(req); ok {
		fields["req_bytes"] = n
	}
	if n, ok := payloadSize(resp); ok {
		fields["resp_bytes"] = n
	}
	if b, ok := req.(*wrapperspb.BytesValue); ok && len(b.GetValue()) > 0 {
		fields["req_head"] = truncatePayload(b.GetValue())
	}

	entry := d.log.WithFields(fields)
	if err != nil {
		entry.WithError(err).Debug("RPC failed")
		return
	}
	entry.Debug("RPC")
}

func (d *DebugLogger) LogStream(side, method string, err error, duration time.Duration) {
	if d == nil {
		return
	}
	d.log.WithFields(logrus.Fields{
		"side":     side,
		"method":   method,
		"duration": duration.Round(time.Millisecond).String(),
		"code":     status.Code(err).String(),
	}).Debug("Stream closed")
}

func (d *DebugLogger) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if d == nil {
			return handler(ctx, req)
		}
		start := time.Now()
		resp, err := handler(ctx, req)
		d.LogCall("server", info.FullMethod, req, resp, err, time.Since(start))
		return resp, err
	}
}

func (d *DebugLogger) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if d == nil {
			return handler(srv, ss)
		}
		start := time.Now()
		err := handler(srv, ss)
		d.LogStream("server", info.FullMethod, err, time.Since(start))
		return err
	}
}

func (d *DebugLogger) UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if d == nil {
			return invoker(ctx, method, req, reply, cc, opts...)
		}
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		d.LogCall("client", method, req, reply, err, time.Since(start))
		return err
	}
}

func payloadSize(m any) (int, bool) {
	b, ok := m.(*wrapperspb.BytesValue)
	if !ok || b == nil {
		return 0, false
	}
	return len(b.GetValue()), true
}

func truncatePayload(p []byte) string {
	if len(p) > maxPayloadLogSize {
		return hex.EncodeToString(p[:maxPayloadLogSize]) + "..."
	}
	return hex.EncodeToString(p)
}

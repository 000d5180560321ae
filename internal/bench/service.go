// Package bench implements the gRPC benchmark service and the
// load-generating client that drives it.
package bench

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Service and method names on the wire.
const (
	ServiceName     = "grpc.testing.BenchmarkService"
	UnaryMethod     = "/" + ServiceName + "/UnaryCall"
	StreamingMethod = "/" + ServiceName + "/StreamingCall"
)

// BenchmarkService answers benchmark RPCs.
type BenchmarkService interface {
	UnaryCall(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	StreamingCall(stream grpc.ServerStream) error
}

var streamingDesc = grpc.StreamDesc{
	StreamName:    "StreamingCall",
	Handler:       streamingHandler,
	ServerStreams: true,
	ClientStreams: true,
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BenchmarkService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "UnaryCall", Handler: unaryHandler},
	},
	Streams:  []grpc.StreamDesc{streamingDesc},
	Metadata: "benchmark_service.proto",
}

// RegisterBenchmarkService registers svc on s.
func RegisterBenchmarkService(s grpc.ServiceRegistrar, svc BenchmarkService) {
	s.RegisterService(&serviceDesc, svc)
}

func unaryHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BenchmarkService).UnaryCall(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: UnaryMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BenchmarkService).UnaryCall(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func streamingHandler(srv any, stream grpc.ServerStream) error {
	return srv.(BenchmarkService).StreamingCall(stream)
}

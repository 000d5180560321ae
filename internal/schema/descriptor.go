package schema

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Package is the protobuf package of every message in the pool.
const Package = "grpc.testing"

// Full names of the messages the driver and workers exchange.
const (
	ScenariosMessage     = Package + ".Scenarios"
	ScenarioMessage      = Package + ".Scenario"
	ClientConfigMessage  = Package + ".ClientConfig"
	ServerConfigMessage  = Package + ".ServerConfig"
	ServerStatusMessage  = Package + ".ServerStatus"
	MarkMessage          = Package + ".Mark"
	VoidMessage          = Package + ".Void"
	WorkerStatsMessage   = Package + ".WorkerStats"
	HistogramDataMessage = Package + ".HistogramData"
)

const (
	scenarioFileName      = "grpc/testing/scenario.proto"
	messageTypeNamePrefix = "." + Package + "."
)

type fieldType = descriptorpb.FieldDescriptorProto_Type

const (
	tString  = descriptorpb.FieldDescriptorProto_TYPE_STRING
	tInt32   = descriptorpb.FieldDescriptorProto_TYPE_INT32
	tInt64   = descriptorpb.FieldDescriptorProto_TYPE_INT64
	tBool    = descriptorpb.FieldDescriptorProto_TYPE_BOOL
	tDouble  = descriptorpb.FieldDescriptorProto_TYPE_DOUBLE
	tMessage = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	tEnum    = descriptorpb.FieldDescriptorProto_TYPE_ENUM
)

func scalar(name string, number int32, typ fieldType) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
}

func repeated(name string, number int32, typ fieldType) *descriptorpb.FieldDescriptorProto {
	f := scalar(name, number, typ)
	f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	return f
}

func message(name string, number int32, typeName string) *descriptorpb.FieldDescriptorProto {
	f := scalar(name, number, tMessage)
	f.TypeName = proto.String(messageTypeNamePrefix + typeName)
	return f
}

func repeatedMessage(name string, number int32, typeName string) *descriptorpb.FieldDescriptorProto {
	f := message(name, number, typeName)
	f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	return f
}

func enum(name string, number int32, typeName string) *descriptorpb.FieldDescriptorProto {
	f := scalar(name, number, tEnum)
	f.TypeName = proto.String(messageTypeNamePrefix + typeName)
	return f
}

func oneofMember(f *descriptorpb.FieldDescriptorProto, index int32) *descriptorpb.FieldDescriptorProto {
	f.OneofIndex = proto.Int32(index)
	return f
}

func msg(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{
		Name:  proto.String(name),
		Field: fields,
	}
}

func enumType(name string, values ...string) *descriptorpb.EnumDescriptorProto {
	e := &descriptorpb.EnumDescriptorProto{Name: proto.String(name)}
	for i, v := range values {
		e.Value = append(e.Value, &descriptorpb.EnumValueDescriptorProto{
			Name:   proto.String(v),
			Number: proto.Int32(int32(i)),
		})
	}
	return e
}

// scenarioFile describes the scenario schema and the worker protocol
// messages. Field numbers and enum values follow grpc.testing so scenario
// JSON written for the C++ driver decodes here; members the workers cannot
// run are rejected before a batch starts (scenario.Scenario.Runnable).
func scenarioFile() *descriptorpb.FileDescriptorProto {
	loadParams := msg("LoadParams",
		oneofMember(message("closed_loop", 1, "ClosedLoopParams"), 0),
		oneofMember(message("poisson", 2, "PoissonParams"), 0),
		oneofMember(message("uniform", 3, "UniformParams"), 0),
		oneofMember(message("determ", 4, "DeterministicParams"), 0),
		oneofMember(message("pareto", 5, "ParetoParams"), 0),
	)
	loadParams.OneofDecl = []*descriptorpb.OneofDescriptorProto{{Name: proto.String("load")}}

	payloadConfig := msg("PayloadConfig",
		oneofMember(message("bytebuf_params", 1, "ByteBufferParams"), 0),
		oneofMember(message("simple_params", 2, "SimpleProtoParams"), 0),
		oneofMember(message("complex_params", 3, "ComplexProtoParams"), 0),
	)
	payloadConfig.OneofDecl = []*descriptorpb.OneofDescriptorProto{{Name: proto.String("payload")}}

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String(scenarioFileName),
		Package: proto.String(Package),
		Syntax:  proto.String("proto3"),
		EnumType: []*descriptorpb.EnumDescriptorProto{
			enumType("ClientType", "SYNC_CLIENT", "ASYNC_CLIENT", "OTHER_CLIENT", "CALLBACK_CLIENT"),
			enumType("ServerType", "SYNC_SERVER", "ASYNC_SERVER", "ASYNC_GENERIC_SERVER", "OTHER_SERVER", "CALLBACK_SERVER"),
			enumType("RpcType", "UNARY", "STREAMING", "STREAMING_FROM_CLIENT", "STREAMING_FROM_SERVER", "STREAMING_BOTH_WAYS"),
		},
		MessageType: []*descriptorpb.DescriptorProto{
			msg("SecurityParams",
				scalar("use_test_ca", 1, tBool),
				scalar("server_host_override", 2, tString),
			),
			msg("ClosedLoopParams"),
			msg("PoissonParams",
				scalar("offered_load", 1, tDouble),
			),
			msg("UniformParams",
				scalar("interarrival_lo", 1, tDouble),
				scalar("interarrival_hi", 2, tDouble),
			),
			msg("DeterministicParams",
				scalar("offered_load", 1, tDouble),
			),
			msg("ParetoParams",
				scalar("interarrival_base", 1, tDouble),
				scalar("alpha", 2, tDouble),
			),
			loadParams,
			msg("ByteBufferParams",
				scalar("req_size", 1, tInt32),
				scalar("resp_size", 2, tInt32),
			),
			msg("SimpleProtoParams",
				scalar("req_size", 1, tInt32),
				scalar("resp_size", 2, tInt32),
			),
			msg("ComplexProtoParams"),
			payloadConfig,
			msg("HistogramParams",
				scalar("resolution", 1, tDouble),
				scalar("max_possible", 2, tDouble),
			),
			msg("ClientConfig",
				repeated("server_targets", 1, tString),
				enum("client_type", 2, "ClientType"),
				message("security_params", 3, "SecurityParams"),
				scalar("outstanding_rpcs_per_channel", 4, tInt32),
				scalar("client_channels", 5, tInt32),
				scalar("async_client_threads", 7, tInt32),
				enum("rpc_type", 8, "RpcType"),
				message("load_params", 10, "LoadParams"),
				message("payload_config", 11, "PayloadConfig"),
				message("histogram_params", 12, "HistogramParams"),
				repeated("core_list", 13, tInt32),
				scalar("core_limit", 14, tInt32),
			),
			msg("ServerConfig",
				enum("server_type", 1, "ServerType"),
				message("security_params", 2, "SecurityParams"),
				scalar("host", 3, tString),
				scalar("port", 4, tInt32),
				scalar("async_server_threads", 7, tInt32),
				scalar("core_limit", 8, tInt32),
				message("payload_config", 9, "PayloadConfig"),
				repeated("core_list", 10, tInt32),
			),
			msg("Scenario",
				scalar("name", 1, tString),
				message("client_config", 2, "ClientConfig"),
				scalar("num_clients", 3, tInt32),
				message("server_config", 4, "ServerConfig"),
				scalar("num_servers", 5, tInt32),
				scalar("warmup_seconds", 6, tInt32),
				scalar("benchmark_seconds", 7, tInt32),
				scalar("spawn_local_worker_count", 8, tInt32),
			),
			msg("Scenarios",
				repeatedMessage("scenarios", 1, "Scenario"),
			),
			msg("ServerStatus",
				scalar("port", 1, tInt32),
				scalar("cores", 2, tInt32),
			),
			msg("Mark",
				scalar("reset", 1, tBool),
			),
			msg("Void"),
			msg("HistogramData",
				scalar("lowest_trackable", 1, tInt64),
				scalar("highest_trackable", 2, tInt64),
				scalar("significant_figures", 3, tInt64),
				repeated("counts", 4, tInt64),
			),
			msg("WorkerStats",
				scalar("time_elapsed", 1, tDouble),
				scalar("time_user", 2, tDouble),
				scalar("time_system", 3, tDouble),
				scalar("cores", 4, tInt32),
				scalar("request_count", 5, tInt64),
				scalar("error_count", 6, tInt64),
				message("latencies", 7, "HistogramData"),
			),
		},
	}
}

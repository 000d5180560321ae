// Package scenario defines the benchmark scenario data model decoded from
// scenario JSON.
package scenario

import (
	"fmt"
	"time"
)

// ClientType selects how a benchmark client issues RPCs.
type ClientType int32

const (
	SyncClient ClientType = iota
	AsyncClient
	OtherClient
	CallbackClient
)

func (t ClientType) String() string {
	switch t {
	case SyncClient:
		return "SYNC_CLIENT"
	case AsyncClient:
		return "ASYNC_CLIENT"
	case OtherClient:
		return "OTHER_CLIENT"
	case CallbackClient:
		return "CALLBACK_CLIENT"
	default:
		return fmt.Sprintf("ClientType(%d)", int32(t))
	}
}

// ServerType selects the benchmark server implementation.
type ServerType int32

const (
	SyncServer ServerType = iota
	AsyncServer
	AsyncGenericServer
	OtherServer
	CallbackServer
)

func (t ServerType) String() string {
	switch t {
	case SyncServer:
		return "SYNC_SERVER"
	case AsyncServer:
		return "ASYNC_SERVER"
	case AsyncGenericServer:
		return "ASYNC_GENERIC_SERVER"
	case OtherServer:
		return "OTHER_SERVER"
	case CallbackServer:
		return "CALLBACK_SERVER"
	default:
		return fmt.Sprintf("ServerType(%d)", int32(t))
	}
}

// RPCType selects unary calls or ping-pong streaming.
type RPCType int32

const (
	Unary RPCType = iota
	Streaming
	StreamingFromClient
	StreamingFromServer
	StreamingBothWays
)

func (t RPCType) String() string {
	switch t {
	case Unary:
		return "UNARY"
	case Streaming:
		return "STREAMING"
	case StreamingFromClient:
		return "STREAMING_FROM_CLIENT"
	case StreamingFromServer:
		return "STREAMING_FROM_SERVER"
	case StreamingBothWays:
		return "STREAMING_BOTH_WAYS"
	default:
		return fmt.Sprintf("RPCType(%d)", int32(t))
	}
}

// LoadKind is the active member of the load_params oneof.
type LoadKind int

const (
	ClosedLoop LoadKind = iota
	Poisson
	Deterministic
	Uniform
	Pareto
)

func (k LoadKind) String() string {
	switch k {
	case ClosedLoop:
		return "closed_loop"
	case Poisson:
		return "poisson"
	case Deterministic:
		return "determ"
	case Uniform:
		return "uniform"
	case Pareto:
		return "pareto"
	default:
		return "unknown"
	}
}

// Batch is an ordered list of scenarios. Order is execution order.
type Batch struct {
	Scenarios []Scenario `validate:"dive"`
}

// Len returns the number of scenarios in the batch.
func (b *Batch) Len() int {
	return len(b.Scenarios)
}

// Scenario is one declarative benchmark configuration.
type Scenario struct {
	Name                  string
	ClientConfig          ClientConfig
	NumClients            int32 `validate:"gte=0"`
	ServerConfig          ServerConfig
	NumServers            int32 `validate:"gte=0"`
	WarmupSeconds         int32 `validate:"gte=0"`
	BenchmarkSeconds      int32 `validate:"gte=0"`
	SpawnLocalWorkerCount int32
}

// WarmupDuration returns the warmup window as a time.Duration.
func (s Scenario) WarmupDuration() time.Duration {
	return time.Duration(s.WarmupSeconds) * time.Second
}

// BenchmarkDuration returns the benchmark window as a time.Duration.
func (s Scenario) BenchmarkDuration() time.Duration {
	return time.Duration(s.BenchmarkSeconds) * time.Second
}

// SecurityParams configures TLS for benchmark channels.
type SecurityParams struct {
	UseTestCA          bool
	ServerHostOverride string
}

// Enabled reports whether any security option is set.
func (p *SecurityParams) Enabled() bool {
	return p != nil && (p.UseTestCA || p.ServerHostOverride != "")
}

// LoadParams describes the offered load of a client.
type LoadParams struct {
	Kind LoadKind
	// OfferedLoad is the target QPS across the whole client for Poisson
	// and Deterministic load. Unused for ClosedLoop.
	OfferedLoad float64 `validate:"gte=0"`
	// Uniform and Pareto interarrival parameters in seconds.
	InterarrivalLo   float64 `validate:"gte=0"`
	InterarrivalHi   float64 `validate:"gte=0"`
	InterarrivalBase float64 `validate:"gte=0"`
	Alpha            float64 `validate:"gte=0"`
}

// SimpleParams sizes request and response payloads in bytes.
type SimpleParams struct {
	ReqSize  int32 `validate:"gte=0"`
	RespSize int32 `validate:"gte=0"`
}

// ByteBufferParams sizes raw byte buffer payloads, used by generic
// servers.
type ByteBufferParams struct {
	ReqSize  int32 `validate:"gte=0"`
	RespSize int32 `validate:"gte=0"`
}

// PayloadConfig wraps the payload parameters. At most one member is set.
type PayloadConfig struct {
	Simple  *SimpleParams
	ByteBuf *ByteBufferParams
	Complex bool
}

// RequestSize returns the configured request payload size.
func (p *PayloadConfig) RequestSize() int {
	if p == nil || p.Simple == nil {
		return 0
	}
	return int(p.Simple.ReqSize)
}

// ResponseSize returns the configured response payload size.
func (p *PayloadConfig) ResponseSize() int {
	if p == nil || p.Simple == nil {
		return 0
	}
	return int(p.Simple.RespSize)
}

// MaxPossibleLimit caps HistogramParams.MaxPossible at one hour in
// nanoseconds. It must match the lte bound in the validate tag.
const MaxPossibleLimit = 3.6e12

// HistogramParams bounds the latency histogram. MaxPossible is in
// nanoseconds; Resolution is the relative bucket width (0.01 = 1%).
type HistogramParams struct {
	Resolution  float64 `validate:"gte=0"`
	MaxPossible float64 `validate:"gte=0,lte=3.6e12"`
}

// ClientConfig configures one benchmark client.
type ClientConfig struct {
	ServerTargets             []string
	ClientType                ClientType
	SecurityParams            *SecurityParams
	OutstandingRPCsPerChannel int32 `validate:"gte=0"`
	ClientChannels            int32 `validate:"gte=0"`
	AsyncClientThreads        int32 `validate:"gte=0"`
	RPCType                   RPCType
	LoadParams                *LoadParams
	PayloadConfig             *PayloadConfig
	HistogramParams           *HistogramParams
	CoreList                  []int32
	CoreLimit                 int32 `validate:"gte=0"`
}

// ServerConfig configures one benchmark server.
type ServerConfig struct {
	ServerType         ServerType
	SecurityParams     *SecurityParams
	Host               string
	Port               int32 `validate:"gte=0,lte=65535"`
	AsyncServerThreads int32 `validate:"gte=0"`
	CoreLimit          int32 `validate:"gte=0"`
	PayloadConfig      *PayloadConfig
	CoreList           []int32
}

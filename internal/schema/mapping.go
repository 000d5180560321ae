package schema

import (
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"qpsdriver/internal/scenario"
)

func batchFromMessage(m protoreflect.Message) *scenario.Batch {
	r := reader{m}
	items := r.msgs("scenarios")
	b := &scenario.Batch{Scenarios: make([]scenario.Scenario, len(items))}
	for i, s := range items {
		b.Scenarios[i] = scenarioFrom(s)
	}
	return b
}

func scenarioFrom(r reader) scenario.Scenario {
	return scenario.Scenario{
		Name:                  r.str("name"),
		ClientConfig:          clientConfigFrom(r.sub("client_config")),
		NumClients:            r.i32("num_clients"),
		ServerConfig:          serverConfigFrom(r.sub("server_config")),
		NumServers:            r.i32("num_servers"),
		WarmupSeconds:         r.i32("warmup_seconds"),
		BenchmarkSeconds:      r.i32("benchmark_seconds"),
		SpawnLocalWorkerCount: r.i32("spawn_local_worker_count"),
	}
}

func clientConfigFrom(r reader) scenario.ClientConfig {
	c := scenario.ClientConfig{
		ServerTargets:             r.strs("server_targets"),
		ClientType:                scenario.ClientType(r.enum("client_type")),
		OutstandingRPCsPerChannel: r.i32("outstanding_rpcs_per_channel"),
		ClientChannels:            r.i32("client_channels"),
		AsyncClientThreads:        r.i32("async_client_threads"),
		RPCType:                   scenario.RPCType(r.enum("rpc_type")),
		CoreList:                  r.i32s("core_list"),
		CoreLimit:                 r.i32("core_limit"),
	}
	if r.has("security_params") {
		c.SecurityParams = securityFrom(r.sub("security_params"))
	}
	if r.has("load_params") {
		c.LoadParams = loadFrom(r.sub("load_params"))
	}
	if r.has("payload_config") {
		c.PayloadConfig = payloadFrom(r.sub("payload_config"))
	}
	if r.has("histogram_params") {
		h := r.sub("histogram_params")
		c.HistogramParams = &scenario.HistogramParams{
			Resolution:  h.f64("resolution"),
			MaxPossible: h.f64("max_possible"),
		}
	}
	return c
}

func serverConfigFrom(r reader) scenario.ServerConfig {
	c := scenario.ServerConfig{
		ServerType:         scenario.ServerType(r.enum("server_type")),
		Host:               r.str("host"),
		Port:               r.i32("port"),
		AsyncServerThreads: r.i32("async_server_threads"),
		CoreLimit:          r.i32("core_limit"),
		CoreList:           r.i32s("core_list"),
	}
	if r.has("security_params") {
		c.SecurityParams = securityFrom(r.sub("security_params"))
	}
	if r.has("payload_config") {
		c.PayloadConfig = payloadFrom(r.sub("payload_config"))
	}
	return c
}

func securityFrom(r reader) *scenario.SecurityParams {
	return &scenario.SecurityParams{
		UseTestCA:          r.boolean("use_test_ca"),
		ServerHostOverride: r.str("server_host_override"),
	}
}

func loadFrom(r reader) *scenario.LoadParams {
	switch r.which("load") {
	case "poisson":
		return &scenario.LoadParams{Kind: scenario.Poisson, OfferedLoad: r.sub("poisson").f64("offered_load")}
	case "determ":
		return &scenario.LoadParams{Kind: scenario.Deterministic, OfferedLoad: r.sub("determ").f64("offered_load")}
	case "uniform":
		u := r.sub("uniform")
		return &scenario.LoadParams{Kind: scenario.Uniform, InterarrivalLo: u.f64("interarrival_lo"), InterarrivalHi: u.f64("interarrival_hi")}
	case "pareto":
		pa := r.sub("pareto")
		return &scenario.LoadParams{Kind: scenario.Pareto, InterarrivalBase: pa.f64("interarrival_base"), Alpha: pa.f64("alpha")}
	default:
		return &scenario.LoadParams{Kind: scenario.ClosedLoop}
	}
}

func payloadFrom(r reader) *scenario.PayloadConfig {
	p := &scenario.PayloadConfig{}
	switch r.which("payload") {
	case "simple_params":
		s := r.sub("simple_params")
		p.Simple = &scenario.SimpleParams{
			ReqSize:  s.i32("req_size"),
			RespSize: s.i32("resp_size"),
		}
	case "bytebuf_params":
		b := r.sub("bytebuf_params")
		p.ByteBuf = &scenario.ByteBufferParams{
			ReqSize:  b.i32("req_size"),
			RespSize: b.i32("resp_size"),
		}
	case "complex_params":
		p.Complex = true
	}
	return p
}

func batchToMessage(p *Pool, b *scenario.Batch) *dynamicpb.Message {
	m := p.MustNew(ScenariosMessage)
	w := writer{m}
	for i := range b.Scenarios {
		scenarioTo(w.appendMsg("scenarios"), &b.Scenarios[i])
	}
	return m
}

func scenarioTo(w writer, s *scenario.Scenario) {
	w.str("name", s.Name)
	clientConfigTo(w.sub("client_config"), &s.ClientConfig)
	w.i32("num_clients", s.NumClients)
	serverConfigTo(w.sub("server_config"), &s.ServerConfig)
	w.i32("num_servers", s.NumServers)
	w.i32("warmup_seconds", s.WarmupSeconds)
	w.i32("benchmark_seconds", s.BenchmarkSeconds)
	w.i32("spawn_local_worker_count", s.SpawnLocalWorkerCount)
}

func clientConfigTo(w writer, c *scenario.ClientConfig) {
	w.strs("server_targets", c.ServerTargets)
	w.enum("client_type", int32(c.ClientType))
	if c.SecurityParams != nil {
		securityTo(w.sub("security_params"), c.SecurityParams)
	}
	w.i32("outstanding_rpcs_per_channel", c.OutstandingRPCsPerChannel)
	w.i32("client_channels", c.ClientChannels)
	w.i32("async_client_threads", c.AsyncClientThreads)
	w.enum("rpc_type", int32(c.RPCType))
	if c.LoadParams != nil {
		loadTo(w.sub("load_params"), c.LoadParams)
	}
	if c.PayloadConfig != nil {
		payloadTo(w.sub("payload_config"), c.PayloadConfig)
	}
	if c.HistogramParams != nil {
		h := w.sub("histogram_params")
		h.f64("resolution", c.HistogramParams.Resolution)
		h.f64("max_possible", c.HistogramParams.MaxPossible)
	}
	w.i32s("core_list", c.CoreList)
	w.i32("core_limit", c.CoreLimit)
}

func serverConfigTo(w writer, c *scenario.ServerConfig) {
	w.enum("server_type", int32(c.ServerType))
	if c.SecurityParams != nil {
		securityTo(w.sub("security_params"), c.SecurityParams)
	}
	w.str("host", c.Host)
	w.i32("port", c.Port)
	w.i32("async_server_threads", c.AsyncServerThreads)
	w.i32("core_limit", c.CoreLimit)
	if c.PayloadConfig != nil {
		payloadTo(w.sub("payload_config"), c.PayloadConfig)
	}
	w.i32s("core_list", c.CoreList)
}

func securityTo(w writer, s *scenario.SecurityParams) {
	w.boolean("use_test_ca", s.UseTestCA)
	w.str("server_host_override", s.ServerHostOverride)
}

func loadTo(w writer, l *scenario.LoadParams) {
	switch l.Kind {
	case scenario.Poisson:
		w.sub("poisson").f64("offered_load", l.OfferedLoad)
	case scenario.Deterministic:
		w.sub("determ").f64("offered_load", l.OfferedLoad)
	case scenario.Uniform:
		u := w.sub("uniform")
		u.f64("interarrival_lo", l.InterarrivalLo)
		u.f64("interarrival_hi", l.InterarrivalHi)
	case scenario.Pareto:
		pa := w.sub("pareto")
		pa.f64("interarrival_base", l.InterarrivalBase)
		pa.f64("alpha", l.Alpha)
	default:
		w.sub("closed_loop")
	}
}

func payloadTo(w writer, p *scenario.PayloadConfig) {
	switch {
	case p.Simple != nil:
		s := w.sub("simple_params")
		s.i32("req_size", p.Simple.ReqSize)
		s.i32("resp_size", p.Simple.RespSize)
	case p.ByteBuf != nil:
		b := w.sub("bytebuf_params")
		b.i32("req_size", p.ByteBuf.ReqSize)
		b.i32("resp_size", p.ByteBuf.RespSize)
	case p.Complex:
		w.sub("complex_params")
	}
}

// EncodeClientConfig converts a client config to its wire message.
func (p *Pool) EncodeClientConfig(c *scenario.ClientConfig) *dynamicpb.Message {
	m := p.MustNew(ClientConfigMessage)
	clientConfigTo(writer{m}, c)
	return m
}

// DecodeClientConfig converts a wire message to a client config.
func DecodeClientConfig(m protoreflect.Message) scenario.ClientConfig {
	return clientConfigFrom(reader{m})
}

// EncodeServerConfig converts a server config to its wire message.
func (p *Pool) EncodeServerConfig(c *scenario.ServerConfig) *dynamicpb.Message {
	m := p.MustNew(ServerConfigMessage)
	serverConfigTo(writer{m}, c)
	return m
}

// DecodeServerConfig converts a wire message to a server config.
func DecodeServerConfig(m protoreflect.Message) scenario.ServerConfig {
	return serverConfigFrom(reader{m})
}

package scenario

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runnableScenario() Scenario {
	return Scenario{
		Name:       "ok",
		NumClients: 1,
		NumServers: 1,
		ClientConfig: ClientConfig{
			ClientType:    AsyncClient,
			RPCType:       Streaming,
			LoadParams:    &LoadParams{Kind: Poisson, OfferedLoad: 100},
			PayloadConfig: &PayloadConfig{Simple: &SimpleParams{ReqSize: 8}},
		},
		ServerConfig: ServerConfig{ServerType: AsyncServer},
	}
}

func TestScenario_Runnable(t *testing.T) {
	tests := []struct {
		name        string
		edit        func(s *Scenario)
		want        string
		unsupported bool
	}{
		{"ok", func(*Scenario) {}, "", false},
		{"targets instead of servers", func(s *Scenario) {
			s.NumServers = 0
			s.ServerConfig.ServerType = AsyncGenericServer
			s.ClientConfig.ServerTargets = []string{"localhost:1"}
		}, "", false},
		{"no clients", func(s *Scenario) { s.NumClients = 0 }, "at least one client (num_clients=0)", false},
		{"no servers or targets", func(s *Scenario) { s.NumServers = 0 }, "no servers and no client server_targets", false},
		{"client security", func(s *Scenario) {
			s.ClientConfig.SecurityParams = &SecurityParams{ServerHostOverride: "foo.test.google.fr"}
		}, "security params", true},
		{"server security", func(s *Scenario) {
			s.ServerConfig.SecurityParams = &SecurityParams{UseTestCA: true}
		}, "security params", true},
		{"callback client", func(s *Scenario) { s.ClientConfig.ClientType = CallbackClient }, "client_type CALLBACK_CLIENT", true},
		{"both ways streaming", func(s *Scenario) { s.ClientConfig.RPCType = StreamingBothWays }, "rpc_type STREAMING_BOTH_WAYS", true},
		{"uniform load", func(s *Scenario) {
			s.ClientConfig.LoadParams = &LoadParams{Kind: Uniform, InterarrivalLo: 0.001, InterarrivalHi: 0.002}
		}, "load_params uniform", true},
		{"pareto load", func(s *Scenario) {
			s.ClientConfig.LoadParams = &LoadParams{Kind: Pareto, InterarrivalBase: 0.001, Alpha: 1.5}
		}, "load_params pareto", true},
		{"client bytebuf payload", func(s *Scenario) {
			s.ClientConfig.PayloadConfig = &PayloadConfig{ByteBuf: &ByteBufferParams{ReqSize: 1}}
		}, "client payload_config bytebuf_params", true},
		{"server complex payload", func(s *Scenario) {
			s.ServerConfig.PayloadConfig = &PayloadConfig{Complex: true}
		}, "server payload_config complex_params", true},
		{"generic server", func(s *Scenario) { s.ServerConfig.ServerType = AsyncGenericServer }, "server_type ASYNC_GENERIC_SERVER", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := runnableScenario()
			tt.edit(&s)

			err := s.Runnable()
			if tt.want == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, tt.unsupported, errors.Is(err, ErrUnsupported))
		})
	}
}

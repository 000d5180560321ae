package scenario

import (
	"github.com/go-faster/errors"
)

// ErrUnsupported marks scenario settings the workers cannot run.
var ErrUnsupported = errors.New("unsupported")

// Runnable reports whether the workers can run s as configured. It needs
// only the scenario itself, so a batch can be checked before anything
// runs.
func (s *Scenario) Runnable() error {
	if s.NumClients < 1 {
		return errors.Errorf("scenario needs at least one client (num_clients=%d)", s.NumClients)
	}
	if s.NumServers == 0 && len(s.ClientConfig.ServerTargets) == 0 {
		return errors.New("scenario has no servers and no client server_targets")
	}
	if s.ClientConfig.SecurityParams.Enabled() || s.ServerConfig.SecurityParams.Enabled() {
		return errors.Wrap(ErrUnsupported, "security params")
	}
	if err := s.ClientConfig.Supported(); err != nil {
		return err
	}
	if s.NumServers > 0 {
		return s.ServerConfig.Supported()
	}
	return nil
}

// Supported checks the client settings against what the benchmark client
// implements.
func (c *ClientConfig) Supported() error {
	switch c.ClientType {
	case SyncClient, AsyncClient:
	default:
		return errors.Wrapf(ErrUnsupported, "client_type %s", c.ClientType)
	}
	switch c.RPCType {
	case Unary, Streaming:
	default:
		return errors.Wrapf(ErrUnsupported, "rpc_type %s", c.RPCType)
	}
	if c.LoadParams != nil {
		switch c.LoadParams.Kind {
		case ClosedLoop, Poisson, Deterministic:
		default:
			return errors.Wrapf(ErrUnsupported, "load_params %s", c.LoadParams.Kind)
		}
	}
	return c.PayloadConfig.supported("client")
}

// Supported checks the server settings against what the benchmark server
// implements.
func (c *ServerConfig) Supported() error {
	switch c.ServerType {
	case SyncServer, AsyncServer:
	default:
		return errors.Wrapf(ErrUnsupported, "server_type %s", c.ServerType)
	}
	return c.PayloadConfig.supported("server")
}

func (p *PayloadConfig) supported(side string) error {
	switch {
	case p == nil:
		return nil
	case p.ByteBuf != nil:
		return errors.Wrapf(ErrUnsupported, "%s payload_config bytebuf_params", side)
	case p.Complex:
		return errors.Wrapf(ErrUnsupported, "%s payload_config complex_params", side)
	}
	return nil
}

package bench

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"qpsdriver/internal/collector"
	"qpsdriver/internal/core"
	"qpsdriver/internal/ratelimit"
	"qpsdriver/internal/scenario"
)

// Client generates load against one or more benchmark servers. Every
// channel runs outstanding_rpcs_per_channel slots, each issuing one RPC at
// a time.
type Client struct {
	conns     []*grpc.ClientConn
	collector *collector.Collector
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	stopOnce  sync.Once
	log       logrus.FieldLogger
}

// NewClient connects to the configured targets and starts issuing RPCs.
// Channels are spread over the targets round-robin.
func NewClient(cfg scenario.ClientConfig, log logrus.FieldLogger, debug *DebugLogger) (*Client, error) {
	if cfg.SecurityParams.Enabled() {
		return nil, ErrSecurityUnsupported
	}
	if len(cfg.ServerTargets) == 0 {
		return nil, errors.New("client has no server targets")
	}
	if err := cfg.Supported(); err != nil {
		return nil, err
	}

	channels := int(max(cfg.ClientChannels, 1))
	outstanding := int(max(cfg.OutstandingRPCsPerChannel, 1))

	c := &Client{
		collector: collector.NewCollector(cfg.HistogramParams, Cores(cfg.CoreLimit), nil, nil),
		log:       log.WithField("component", "bench_client"),
	}

	for i := 0; i < channels; i++ {
		target := cfg.ServerTargets[i%len(cfg.ServerTargets)]
		conn, err := grpc.NewClient(target,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithChainUnaryInterceptor(debug.UnaryClientInterceptor()),
		)
		if err != nil {
			c.closeConns()
			return nil, errors.Wrapf(err, "dial %s", target)
		}
		c.conns = append(c.conns, conn)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	pacers := ratelimit.NewFactory(cfg.LoadParams, channels*outstanding, time.Now().UnixNano())
	req := &wrapperspb.BytesValue{Value: make([]byte, cfg.PayloadConfig.RequestSize())}

	for _, conn := range c.conns {
		for j := 0; j < outstanding; j++ {
			var call core.CallFunc
			if cfg.RPCType == scenario.Streaming {
				call = (&pingPong{conn: conn, req: req}).call
			} else {
				call = unaryCall(conn, req)
			}
			loop := core.NewLoop(call, pacers.Next(), c.collector, nil)

			c.wg.Add(1)
			go func() {
				defer c.wg.Done()
				loop.Run(ctx)
			}()
		}
	}

	c.log.WithFields(logrus.Fields{
		"targets":     cfg.ServerTargets,
		"channels":    channels,
		"outstanding": outstanding,
		"rpc_type":    cfg.RPCType,
		"load":        pacers.Kind(),
	}).Info("Benchmark client started")
	return c, nil
}

// Mark returns the client's statistics since the last reset.
func (c *Client) Mark(reset bool) core.WorkerStats {
	return c.collector.Mark(reset)
}

// Stop cancels every slot, waits for them and closes the channels. Safe to
// call more than once.
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		c.cancel()
		c.wg.Wait()
		c.closeConns()
		c.log.Info("Benchmark client stopped")
	})
}

func (c *Client) closeConns() {
	for _, conn := range c.conns {
		if err := conn.Close(); err != nil {
			c.log.WithError(err).Warn("Closing channel")
		}
	}
}

func unaryCall(conn *grpc.ClientConn, req *wrapperspb.BytesValue) core.CallFunc {
	return func(ctx context.Context) error {
		return conn.Invoke(ctx, UnaryMethod, req, new(wrapperspb.BytesValue))
	}
}

// pingPong sends one message and waits for one reply per call over a
// stream that stays open between calls. A failed stream is reopened on the
// next call.
type pingPong struct {
	conn   *grpc.ClientConn
	req    *wrapperspb.BytesValue
	stream grpc.ClientStream
}

func (p *pingPong) call(ctx context.Context) error {
	if p.stream == nil {
		stream, err := p.conn.NewStream(ctx, &streamingDesc, StreamingMethod)
		if err != nil {
			return err
		}
		p.stream = stream
	}
	if err := p.stream.SendMsg(p.req); err != nil {
		p.stream = nil
		return err
	}
	if err := p.stream.RecvMsg(new(wrapperspb.BytesValue)); err != nil {
		p.stream = nil
		return err
	}
	return nil
}

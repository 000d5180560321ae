// Command qps_worker hosts benchmark servers and clients on behalf of a
// remote qps_json_driver.
//
// Usage:
//
//	qps_worker --driver_port=10000
//
// The worker exits when the driver calls QuitWorker or on SIGINT/SIGTERM.
package main

import (
	"context"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"qpsdriver/internal/bench"
	"qpsdriver/internal/config"
	"qpsdriver/internal/worker"
)

type options struct {
	driverPort int
	bindHost   string
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd(os.Stderr, nil).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command. ready, if set, receives the listen
// address once the worker accepts connections.
func newRootCmd(stderr io.Writer, ready chan<- net.Addr) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "qps_worker",
		Short:         "Serve the gRPC benchmark WorkerService",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, stderr, ready)
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&opts.driverPort, "driver_port", 10000, "port the driver connects to")
	flags.StringVar(&opts.bindHost, "bind_host", "", "host to bind the driver port and benchmark servers to")
	flags.BoolVar(&opts.verbose, "verbose", false, "debug logging, including every benchmark RPC")
	return cmd
}

func run(ctx context.Context, opts options, stderr io.Writer, ready chan<- net.Addr) (err error) {
	cfg, err := config.Load("", config.DefaultEnvFiles)
	if err != nil {
		return err
	}
	if opts.verbose {
		cfg.Log.Level = logrus.DebugLevel.String()
	}
	if opts.bindHost != "" {
		cfg.BindHost = opts.bindHost
	}
	log, err := cfg.Log.NewLogger(stderr)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			log.WithError(err).Error("Worker failed")
		}
	}()

	lis, err := net.Listen("tcp", net.JoinHostPort(cfg.BindHost, strconv.Itoa(opts.driverPort)))
	if err != nil {
		return errors.Wrap(err, "listen")
	}

	var debug *bench.DebugLogger
	if opts.verbose {
		debug = bench.NewDebugLogger(log)
	}
	local := worker.NewLocal(log, worker.WithBindHost(cfg.BindHost), worker.WithDebug(debug))
	defer local.Close()

	svc := worker.NewService(local, nil, log)
	srv := grpc.NewServer()
	svc.Register(srv)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(lis) }()
	log.WithField("addr", lis.Addr().String()).Info("Worker listening")
	if ready != nil {
		ready <- lis.Addr()
	}

	select {
	case <-svc.Done():
		log.Info("Quit requested by driver")
	case <-ctx.Done():
		log.Info("Shutting down")
	case err := <-serveErr:
		return errors.Wrap(err, "serve")
	}
	srv.GracefulStop()
	return nil
}

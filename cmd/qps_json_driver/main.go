// Command qps_json_driver runs a batch of gRPC benchmark scenarios read
// from JSON and reports QPS, latency and CPU usage for each.
//
// Usage:
//
//	qps_json_driver --scenarios_file=scenarios.json
//	qps_json_driver --scenarios_json='{"scenarios": [...]}'
//
// Remote workers are taken from QPS_WORKERS; scenarios may also spawn
// local in-process workers. With --quit the remote workers are asked to
// exit once the batch is over.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"qpsdriver/internal/bench"
	"qpsdriver/internal/config"
	"qpsdriver/internal/coordinator"
	"qpsdriver/internal/driver"
	"qpsdriver/internal/progress"
	"qpsdriver/internal/report"
	"qpsdriver/internal/schema"
	"qpsdriver/internal/source"
	"qpsdriver/internal/worker"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	ExitConfig  = 2
	ExitIO      = 3
	ExitDecode  = 4
	ExitRunner  = 5
)

const quitTimeout = 10 * time.Second

type options struct {
	scenariosFile string
	scenariosJSON string
	configPath    string
	envFiles      []string
	verbose       bool
	quiet         bool
	quit          bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd(os.Stderr).ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	opts := options{envFiles: config.DefaultEnvFiles}
	cmd := &cobra.Command{
		Use:           "qps_json_driver",
		Short:         "Run gRPC QPS benchmark scenarios described in JSON",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, stderr)
		},
	}
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &source.ConfigurationError{Message: err.Error()}
	})

	flags := cmd.Flags()
	flags.StringVar(&opts.scenariosFile, source.FileFlag, "", "path to a JSON file with the scenarios to run")
	flags.StringVar(&opts.scenariosJSON, source.JSONFlag, "", "JSON string with the scenarios to run")
	flags.StringVar(&opts.configPath, "config", "", "path to the driver's YAML config file")
	flags.BoolVar(&opts.verbose, "verbose", false, "debug logging, including every benchmark RPC of local workers")
	flags.BoolVar(&opts.quiet, "quiet", false, "suppress window progress lines")
	flags.BoolVar(&opts.quit, "quit", false, "ask the QPS_WORKERS workers to exit after the batch")
	return cmd
}

func run(ctx context.Context, opts options, stderr io.Writer) (err error) {
	cfg, err := config.Load(opts.configPath, opts.envFiles)
	if err != nil {
		return &source.ConfigurationError{Message: err.Error()}
	}
	if opts.verbose {
		cfg.Log.Level = logrus.DebugLevel.String()
	}
	log, err := cfg.Log.NewLogger(stderr)
	if err != nil {
		return &source.ConfigurationError{Message: err.Error()}
	}
	defer func() {
		if err != nil {
			logFailure(log, err)
		}
	}()

	reporters := report.Composite{report.NewLogReporter(log)}
	if cfg.Reports.JSON != "" {
		reporters = append(reporters, report.NewJSONReporter(cfg.Reports.JSON))
	}
	if cfg.Reports.Prometheus != "" {
		reporters = append(reporters, report.NewPrometheusReporter(cfg.Reports.Prometheus))
	}
	defer func() {
		if cerr := reporters.Close(); cerr != nil {
			log.WithError(cerr).Warn("Writing reports")
		}
	}()

	var debug *bench.DebugLogger
	if opts.verbose {
		debug = bench.NewDebugLogger(log)
	}

	prog := progress.NewProgress(opts.quiet)
	prog.SetOutput(stderr)
	prog.SetInterval(cfg.ProgressInterval)

	runner := coordinator.NewRunner(log, coordinator.Options{
		Remotes: cfg.Workers,
		NewLocal: func() worker.Worker {
			return worker.NewLocal(log, worker.WithBindHost(cfg.BindHost), worker.WithDebug(debug))
		},
		Progress: prog,
	})

	err = driver.Run(ctx,
		source.Options{File: opts.scenariosFile, JSON: opts.scenariosJSON},
		schema.NewTranslator(nil, log),
		driver.NewExecutor(runner, reporters, prog, log),
	)
	if opts.quit {
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), quitTimeout)
		defer cancel()
		if qerr := worker.QuitAll(qctx, cfg.Workers, nil, log); qerr != nil && err == nil {
			err = errors.Wrap(qerr, "quit workers")
		}
	}
	return err
}

// logFailure reports a fatal error with the fields an operator needs.
func logFailure(log logrus.FieldLogger, err error) {
	var (
		ce *source.ConfigurationError
		ie *source.IOError
		de *schema.DecodeError
		re *driver.RunnerError
	)
	switch {
	case errors.As(err, &ce):
		log.WithError(err).Error("Invalid configuration")
	case errors.As(err, &ie):
		log.WithError(err).WithField("path", ie.Path).Error("Cannot read scenarios")
	case errors.As(err, &de):
		// The translator already logged the document.
		log.WithField("errcode", uint32(de.Code)).Error("Cannot decode scenarios")
	case errors.As(err, &re):
		log.WithError(re.Err).WithFields(logrus.Fields{
			"index":    re.Index,
			"scenario": re.Name,
		}).Error("Scenario failed")
	default:
		log.WithError(err).Error("Driver failed")
	}
}

// exitCode classifies an error into the process exit status.
func exitCode(err error) int {
	var (
		ce *source.ConfigurationError
		ie *source.IOError
		de *schema.DecodeError
		re *driver.RunnerError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ce):
		return ExitConfig
	case errors.As(err, &ie):
		return ExitIO
	case errors.As(err, &de):
		return ExitDecode
	case errors.As(err, &re):
		return ExitRunner
	default:
		return ExitError
	}
}

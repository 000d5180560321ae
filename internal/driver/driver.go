// Package driver executes a scenario batch: each scenario runs to
// completion and is reported before the next one starts.
package driver

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"qpsdriver/internal/core"
	"qpsdriver/internal/progress"
	"qpsdriver/internal/scenario"
	"qpsdriver/internal/schema"
	"qpsdriver/internal/source"
)

// RunnerError reports a scenario the runner could not complete. It stops
// the batch.
type RunnerError struct {
	Index int
	Name  string
	Err   error
}

func (e *RunnerError) Error() string {
	return fmt.Sprintf("scenario %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *RunnerError) Unwrap() error { return e.Err }

// Executor runs scenarios strictly in order.
type Executor struct {
	runner   core.Runner
	reporter core.Reporter
	progress *progress.Progress
	log      logrus.FieldLogger
}

func NewExecutor(runner core.Runner, reporter core.Reporter, prog *progress.Progress, log logrus.FieldLogger) *Executor {
	return &Executor{runner: runner, reporter: reporter, progress: prog, log: log}
}

// Run executes every scenario of the batch. Nothing runs unless every
// scenario is runnable. The first failure stops the batch; scenarios
// already reported stay reported.
func (e *Executor) Run(ctx context.Context, batch *scenario.Batch) error {
	for i := range batch.Scenarios {
		sc := &batch.Scenarios[i]
		if err := sc.Runnable(); err != nil {
			return &RunnerError{Index: i, Name: sc.Name, Err: err}
		}
	}
	for i, sc := range batch.Scenarios {
		if err := e.runOne(ctx, i, sc); err != nil {
			return err
		}
	}
	e.log.WithField("scenarios", batch.Len()).Info("Batch complete")
	return nil
}

func (e *Executor) runOne(ctx context.Context, i int, sc scenario.Scenario) error {
	e.progress.Scenario(sc.Name)
	log := e.log.WithFields(logrus.Fields{"index": i, "scenario": sc.Name})
	log.Debug("Running scenario")

	result, err := e.runner.RunScenario(ctx,
		sc.ClientConfig, sc.NumClients,
		sc.ServerConfig, sc.NumServers,
		sc.WarmupSeconds, sc.BenchmarkSeconds, sc.SpawnLocalWorkerCount,
	)
	if err == nil && result == nil {
		err = errors.New("runner returned no result")
	}
	if err != nil {
		return &RunnerError{Index: i, Name: sc.Name, Err: err}
	}

	result.ScenarioName = sc.Name
	e.reporter.ReportQPS(result)
	e.reporter.ReportQPSPerCore(result)
	e.reporter.ReportLatency(result)
	e.reporter.ReportTimes(result)
	return nil
}

// Run is the whole driver: load the scenario text, decode it into a batch
// and execute it. Nothing runs unless the whole document decodes.
func Run(ctx context.Context, opts source.Options, tr *schema.Translator, exec *Executor) error {
	doc, err := source.Load(opts)
	if err != nil {
		return err
	}
	batch, err := tr.Decode(doc.Data)
	if err != nil {
		return err
	}
	return exec.Run(ctx, batch)
}

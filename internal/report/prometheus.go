package report

import (
	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"

	"qpsdriver/internal/collector"
	"qpsdriver/internal/core"
)

const namespace = "qps_driver"

// PrometheusReporter keeps gauges labelled by scenario in its own registry
// and writes them in the node_exporter textfile format on Close.
type PrometheusReporter struct {
	path     string
	registry *prometheus.Registry

	qps         *prometheus.GaugeVec
	qpsPerCore  *prometheus.GaugeVec
	serverCores *prometheus.GaugeVec
	latency     *prometheus.GaugeVec
	cpu         *prometheus.GaugeVec
}

var _ core.Reporter = (*PrometheusReporter)(nil)

func NewPrometheusReporter(path string) *PrometheusReporter {
	p := &PrometheusReporter{
		path:     path,
		registry: prometheus.NewRegistry(),
		qps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "qps",
			Help:      "Requests per second summed over all clients.",
		}, []string{"scenario"}),
		qpsPerCore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "qps_per_server_core",
			Help:      "Requests per second divided by the total server cores.",
		}, []string{"scenario"}),
		serverCores: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "server_cores",
			Help:      "Cores used by all benchmark servers.",
		}, []string{"scenario"}),
		latency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "latency_seconds",
			Help:      "Request latency at the given quantile.",
		}, []string{"scenario", "quantile"}),
		cpu: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cpu_time_percent",
			Help:      "CPU time as a percentage of wall time.",
		}, []string{"scenario", "side", "mode"}),
	}
	p.registry.MustRegister(p.qps, p.qpsPerCore, p.serverCores, p.latency, p.cpu)
	return p
}

func (p *PrometheusReporter) ReportQPS(r *core.RunResult) {
	p.qps.WithLabelValues(r.ScenarioName).Set(r.Summary.QPS)
}

func (p *PrometheusReporter) ReportQPSPerCore(r *core.RunResult) {
	p.qpsPerCore.WithLabelValues(r.ScenarioName).Set(r.Summary.QPSPerServerCore)
	p.serverCores.WithLabelValues(r.ScenarioName).Set(float64(r.Summary.ServerCores))
}

func (p *PrometheusReporter) ReportLatency(r *core.RunResult) {
	l := r.Summary.Latency
	for _, q := range []struct {
		label string
		value float64
	}{
		{"0.5", collector.Micros(l.P50)},
		{"0.9", collector.Micros(l.P90)},
		{"0.95", collector.Micros(l.P95)},
		{"0.99", collector.Micros(l.P99)},
		{"0.999", collector.Micros(l.P999)},
	} {
		p.latency.WithLabelValues(r.ScenarioName, q.label).Set(q.value / 1e6)
	}
}

func (p *PrometheusReporter) ReportTimes(r *core.RunResult) {
	s := r.Summary
	p.cpu.WithLabelValues(r.ScenarioName, "server", "system").Set(s.ServerSystemTime)
	p.cpu.WithLabelValues(r.ScenarioName, "server", "user").Set(s.ServerUserTime)
	p.cpu.WithLabelValues(r.ScenarioName, "client", "system").Set(s.ClientSystemTime)
	p.cpu.WithLabelValues(r.ScenarioName, "client", "user").Set(s.ClientUserTime)
}

// Close writes the textfile.
func (p *PrometheusReporter) Close() error {
	if err := prometheus.WriteToTextfile(p.path, p.registry); err != nil {
		return errors.Wrapf(err, "write prometheus textfile %s", p.path)
	}
	return nil
}

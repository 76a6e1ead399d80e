package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "countdown"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry        *prom.Registry
	operations      *prom.CounterVec
	completions     *prom.CounterVec
	running         *prom.GaugeVec
	schedulerActive *prom.GaugeVec
	tickDuration    *prom.HistogramVec
	persistErrors   *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the metrics on reg. A nil
// registry gets a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		operations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "State machine operations by domain and operation",
		}, []string{"domain", "op"}),
		completions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Countdowns that reached zero, by kind",
		}, []string{"kind"}),
		running: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "running_units",
			Help:      "Units currently running, by domain",
		}, []string{"domain"}),
		schedulerActive: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_active",
			Help:      "1 while the tick loop of a family is running",
		}, []string{"family"}),
		tickDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent inside one tick callback",
			Buckets:   []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}, []string{"family"}),
		persistErrors: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "persist_errors_total",
			Help:      "Failed blob writes by key",
		}, []string{"key"}),
	}
	reg.MustRegister(pr.operations, pr.completions, pr.running, pr.schedulerActive, pr.tickDuration, pr.persistErrors)
	return pr
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusRecorder) IncOperation(domain, op string) {
	if p == nil {
		return
	}
	p.operations.WithLabelValues(domain, op).Inc()
}

func (p *PrometheusRecorder) IncCompletion(kind string) {
	if p == nil {
		return
	}
	p.completions.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) SetRunning(domain string, n int) {
	if p == nil {
		return
	}
	p.running.WithLabelValues(domain).Set(float64(n))
}

func (p *PrometheusRecorder) SetSchedulerActive(family string, active bool) {
	if p == nil {
		return
	}
	v := 0.0
	if active {
		v = 1
	}
	p.schedulerActive.WithLabelValues(family).Set(v)
}

func (p *PrometheusRecorder) ObserveTick(family string, d time.Duration) {
	if p == nil {
		return
	}
	p.tickDuration.WithLabelValues(family).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPersistError(key string) {
	if p == nil {
		return
	}
	p.persistErrors.WithLabelValues(key).Inc()
}

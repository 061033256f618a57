package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voice-chat/internal/application"
	"voice-chat/internal/domain"
)

const namespace = "voicechat"

// Recorder exports pipeline timings and outcomes to Prometheus.
type Recorder struct {
	registry *prometheus.Registry
	stages   *prometheus.HistogramVec
	failures *prometheus.CounterVec
	outcomes *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Recorder{
		registry: reg,
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"stage"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Pipeline stages that ended in an error.",
		}, []string{"stage"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(r.stages, r.failures, r.outcomes)
	return r
}

var _ application.Observer = (*Recorder)(nil)

func (r *Recorder) ObserveStage(stage application.Stage, elapsed time.Duration, err error) {
	r.stages.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
	if err != nil {
		r.failures.WithLabelValues(string(stage)).Inc()
	}
}

func (r *Recorder) ObserveOutcome(outcome domain.Outcome) {
	r.outcomes.WithLabelValues(string(outcome)).Inc()
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry is exposed for tests and for callers that add their own collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

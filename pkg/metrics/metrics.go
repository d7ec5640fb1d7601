package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "menshealth"

// Remote call outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder groups the collectors exported by the service. A nil Recorder is a no-op.
type Recorder struct {
	remoteCalls   *prometheus.CounterVec
	remoteLatency *prometheus.HistogramVec
	fallbacks     *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
}

// NewRegistry returns a registry preloaded with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewRecorder registers the service collectors on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		remoteCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_invocations_total",
			Help:      "Remote function invocations by function and outcome.",
		}, []string{"function", "outcome"}),
		remoteLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_invocation_seconds",
			Help:      "Latency of remote function invocations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"function"}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "local_fallbacks_total",
			Help:      "Operations served by the local fallback after a remote failure.",
		}, []string{"function"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
	}
}

// ObserveRemote records one remote invocation.
func (r *Recorder) ObserveRemote(function, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.remoteCalls.WithLabelValues(function, outcome).Inc()
	r.remoteLatency.WithLabelValues(function).Observe(elapsed.Seconds())
}

// Fallback records that the local path served function.
func (r *Recorder) Fallback(function string) {
	if r == nil {
		return
	}
	r.fallbacks.WithLabelValues(function).Inc()
}

// HTTPRequest records a served request.
func (r *Recorder) HTTPRequest(method, route string, status int) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler exposes the gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

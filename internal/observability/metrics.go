// v0
// internal/observability/metrics.go
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	loopDuration      prometheus.Histogram
	commandsTotal     prometheus.Counter
	ledgerWritesTotal prometheus.Counter
	publishErrors     prometheus.Counter
	blowersActive     *prometheus.GaugeVec
	blowerPowerKW     *prometheus.GaugeVec
	requiredAirflow   *prometheus.GaugeVec
	cbState           *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		loopDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "control_loop_duration_seconds",
			Help:    "Histogram of full monitor-analyze-plan-execute cycle durations.",
			Buckets: prometheus.DefBuckets,
		}),
		commandsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "actuator_commands_total",
			Help: "Total actuator commands published.",
		}),
		ledgerWritesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_writes_total",
			Help: "Total ledger events written.",
		}),
		publishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "publish_errors_total",
			Help: "Total Kafka publish failures, including breaker fast-fails.",
		}),
		blowersActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "blowers_active",
			Help: "Number of blowers currently commanded on, per tank.",
		}, []string{"tank"}),
		blowerPowerKW: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "blower_power_kw",
			Help: "Estimated total blower power draw, per tank.",
		}, []string{"tank"}),
		requiredAirflow: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "required_airflow_m3h",
			Help: "Airflow requirement computed by the analyzer, per tank.",
		}, []string{"tank"}),
		cbState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cb_state",
			Help: "Circuit breaker state gauge (0 closed, 1 half, 2 open).",
		}, []string{"target"}),
	}

	prometheus.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.loopDuration,
		m.commandsTotal,
		m.ledgerWritesTotal,
		m.publishErrors,
		m.blowersActive,
		m.blowerPowerKW,
		m.requiredAirflow,
		m.cbState,
	)
	return m
}

// ObserveCycle records the outcome of one tank's control cycle.
func (m *Metrics) ObserveCycle(tank string, dur time.Duration, blowersOn int, powerKW, airflowM3h float64, commands int) {
	if m == nil {
		return
	}
	m.loopDuration.Observe(dur.Seconds())
	m.commandsTotal.Add(float64(commands))
	m.ledgerWritesTotal.Inc()
	m.blowersActive.WithLabelValues(tank).Set(float64(blowersOn))
	m.blowerPowerKW.WithLabelValues(tank).Set(powerKW)
	m.requiredAirflow.WithLabelValues(tank).Set(airflowM3h)
}

// PublishError counts one failed publish.
func (m *Metrics) PublishError() {
	if m != nil {
		m.publishErrors.Inc()
	}
}

// SetBreakerState maps a breaker position onto the gauge.
func (m *Metrics) SetBreakerState(target string, state int) {
	if m != nil {
		m.cbState.WithLabelValues(target).Set(float64(state))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records request counts and durations for a route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler serves the Prometheus scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics agrupa los colectores del proceso. Se registran contra un Registerer
// explícito (no el global) para que los tests puedan crear instancias aisladas.
// Todos los métodos toleran receptor nil.
type Metrics struct {
	Mutations         *prometheus.CounterVec
	PersistDuration   *prometheus.HistogramVec
	AggregateDuration *prometheus.HistogramVec
	Notifications     *prometheus.CounterVec
	Syncs             *prometheus.CounterVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ActiveRequests      prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Mutations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "petcare_collection_mutations_total",
				Help: "Total number of collection mutations",
			},
			[]string{"kind", "op", "result"}, // result: ok/error
		),
		PersistDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "petcare_persistence_duration_seconds",
				Help:    "Duration of persistence port calls",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5},
			},
			[]string{"kind", "op"},
		),
		AggregateDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "petcare_aggregate_duration_seconds",
				Help:    "Duration of analytics aggregate computations",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"aggregate"},
		),
		Notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "petcare_notification_requests_total",
				Help: "Total number of schedule/cancel requests sent to the notification port",
			},
			[]string{"op", "result"},
		),
		Syncs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "petcare_cloud_sync_total",
				Help: "Total number of cloud sync runs",
			},
			[]string{"direction", "result"},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		ActiveRequests: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_active_requests",
				Help: "Current number of active HTTP requests",
			},
		),
	}
}

func (m *Metrics) ObserveMutation(kind, op string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(kind, op, result(err)).Inc()
	m.PersistDuration.WithLabelValues(kind, op).Observe(d.Seconds())
}

func (m *Metrics) ObserveLoad(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.PersistDuration.WithLabelValues(kind, "load").Observe(d.Seconds())
}

func (m *Metrics) ObserveAggregate(name string, d time.Duration) {
	if m == nil {
		return
	}
	m.AggregateDuration.WithLabelValues(name).Observe(d.Seconds())
}

func (m *Metrics) ObserveNotification(op string, err error) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) ObserveSync(direction string, err error) {
	if m == nil {
		return
	}
	m.Syncs.WithLabelValues(direction, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

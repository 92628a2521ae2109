package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ll_bridge_validator"

// Metrics holds the validator's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	EventsAdmitted *prometheus.CounterVec
	Duplicates     *prometheus.CounterVec
	QueueDepth     prometheus.Gauge
	Dispatches     *prometheus.CounterVec
	IndexedBlock   *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		EventsAdmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "controller",
			Name:      "events_admitted_total",
			Help:      "Events admitted by the controller, by event kind.",
		}, []string{"kind"}),
		Duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "controller",
			Name:      "duplicates_total",
			Help:      "Re-delivered events rejected as duplicates, by event kind.",
		}, []string{"kind"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "controller",
			Name:      "queue_depth",
			Help:      "Events held while the controller is not active.",
		}),
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "dispatches_total",
			Help:      "Outbound calls issued by the executor, by call and result.",
		}, []string{"call", "result"}),
		IndexedBlock: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "last_indexed_block",
			Help:      "Last block fully processed per chain.",
		}, []string{"chain"}),
	}

	m.registry.MustRegister(
		m.EventsAdmitted,
		m.Duplicates,
		m.QueueDepth,
		m.Dispatches,
		m.IndexedBlock,
		collectors.NewGoCollector(),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Admitted(kind string) {
	if m == nil {
		return
	}
	m.EventsAdmitted.WithLabelValues(kind).Inc()
}

func (m *Metrics) Duplicate(kind string) {
	if m == nil {
		return
	}
	m.Duplicates.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

func (m *Metrics) Dispatched(call string, result string) {
	if m == nil {
		return
	}
	m.Dispatches.WithLabelValues(call, result).Inc()
}

func (m *Metrics) Indexed(chain string, block uint64) {
	if m == nil {
		return
	}
	m.IndexedBlock.WithLabelValues(chain).Set(float64(block))
}

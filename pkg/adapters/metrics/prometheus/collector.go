package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/taskhive/taskhive/pkg/domain"
)

// Collector implements MetricsCollector using Prometheus
type Collector struct {
	transitions      *prometheus.CounterVec
	denialReasons    prometheus.Histogram
	broadcasts       *prometheus.CounterVec
	droppedEvents    *prometheus.CounterVec
	connectedClients prometheus.Gauge
	channelCount     prometheus.Gauge
	queueDepth       prometheus.Gauge
}

// NewCollector creates a new Prometheus metrics collector
func NewCollector() *Collector {
	return &Collector{
		transitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskhive_transitions_total",
				Help: "Total number of transition requests by target status and outcome",
			},
			[]string{"target", "outcome"},
		),
		denialReasons: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "taskhive_denial_reasons",
				Help:    "Number of blocking reasons per denied transition",
				Buckets: []float64{1, 2, 3, 5, 10, 20},
			},
		),
		broadcasts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskhive_broadcasts_total",
				Help: "Total number of broadcast dispatches by kind",
			},
			[]string{"kind"},
		),
		droppedEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskhive_dropped_events_total",
				Help: "Total number of events dropped instead of delivered",
			},
			[]string{"reason"},
		),
		connectedClients: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskhive_connected_clients",
				Help: "Number of currently connected clients",
			},
		),
		channelCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskhive_channels",
				Help: "Number of channels with at least one member",
			},
		),
		queueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskhive_delivery_queue_depth",
				Help: "Current depth of the broadcast delivery queue",
			},
		),
	}
}

// RecordTransition records one transition request outcome
func (c *Collector) RecordTransition(target domain.Status, outcome string) {
	c.transitions.WithLabelValues(string(target), outcome).Inc()
}

// RecordDenialReasons records how many reasons a denial carried
func (c *Collector) RecordDenialReasons(count int) {
	c.denialReasons.Observe(float64(count))
}

// RecordBroadcast records one broadcast dispatch
func (c *Collector) RecordBroadcast(kind string) {
	c.broadcasts.WithLabelValues(kind).Inc()
}

// RecordDroppedEvent records one dropped event
func (c *Collector) RecordDroppedEvent(reason string) {
	c.droppedEvents.WithLabelValues(reason).Inc()
}

// SetConnectedClients sets the connected client gauge
func (c *Collector) SetConnectedClients(count int) {
	c.connectedClients.Set(float64(count))
}

// SetChannelCount sets the active channel gauge
func (c *Collector) SetChannelCount(count int) {
	c.channelCount.Set(float64(count))
}

// SetQueueDepth sets the delivery queue depth gauge
func (c *Collector) SetQueueDepth(depth int) {
	c.queueDepth.Set(float64(depth))
}

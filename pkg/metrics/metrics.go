package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/aegisvault/aegis-monitor/pkg/services"
)

const namespace = "aegis"

// Collector turns view events into Prometheus series
type Collector struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	evicted  *prometheus.CounterVec
	length   *prometheus.GaugeVec
}

var _ services.EventSink = (*Collector)(nil)

// NewCollector creates a collector with its own registry, including the Go
// runtime and process collectors
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_events_total",
			Help:      "Feed events by view and kind.",
		}, []string{"view", "kind"}),
		evicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_evicted_total",
			Help:      "Records dropped from the tail of a bounded feed.",
		}, []string{"view"}),
		length: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_length",
			Help:      "Current number of records held by a feed.",
		}, []string{"view"}),
	}
	c.registry.MustRegister(
		c.events,
		c.evicted,
		c.length,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Publish records evt
func (c *Collector) Publish(evt services.Event) {
	c.events.WithLabelValues(evt.View, string(evt.Kind)).Inc()
	if evt.Evicted > 0 {
		c.evicted.WithLabelValues(evt.View).Add(float64(evt.Evicted))
	}
	switch evt.Kind {
	case services.EventInsert, services.EventDelete, services.EventScan, services.EventMount:
		c.length.WithLabelValues(evt.View).Set(float64(evt.Len))
	case services.EventUnmount:
		c.length.DeleteLabelValues(evt.View)
	}
}

// GaugeFunc exposes a value read at scrape time, such as a sink's drop count
func (c *Collector) GaugeFunc(name, help string, fn func() float64) {
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn)
	if err := c.registry.Register(g); err != nil {
		logrus.Warnf("Failed to register metric %s: %v", name, err)
	}
}

// Registry returns the registry backing the collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

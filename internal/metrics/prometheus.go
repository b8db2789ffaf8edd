// Package metrics exposes control loop and API telemetry to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pet_feeder/internal/engine"
)

const defaultNamespace = "feeder"

// Collector implements engine.Metrics backed by Prometheus.
type Collector struct {
	reg      prometheus.Registerer
	gatherer prometheus.Gatherer

	feeds          *prometheus.CounterVec
	motorFailures  prometheus.Counter
	notifications  *prometheus.CounterVec
	samplesFlushed prometheus.Counter
	samplesDropped prometheus.Counter
	loopPeriod     prometheus.Gauge
	loads          *prometheus.GaugeVec
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
}

var _ engine.Metrics = (*Collector)(nil)

// New registers the feeder metrics with reg. A nil reg gets a fresh
// registry that also carries the Go and process collectors.
func New(reg *prometheus.Registry, namespace string) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	if namespace == "" {
		namespace = defaultNamespace
	}

	c := &Collector{
		reg:      reg,
		gatherer: reg,
		feeds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedings_total",
			Help:      "Feeding cycles by outcome (started, completed, aborted, skipped).",
		}, []string{"outcome"}),
		motorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "motor_failures_total",
			Help:      "Motor health checks that turned unhealthy.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Owner alerts raised by kind.",
		}, []string{"kind"}),
		samplesFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "samples_flushed_total",
			Help:      "Scale samples persisted.",
		}),
		samplesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "samples_dropped_total",
			Help:      "Scale samples dropped because the buffer was full.",
		}),
		loopPeriod: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "loop_period_seconds",
			Help:      "Current sampling period of the control loop.",
		}),
		loads: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "load_grams",
			Help:      "Last load cell reading by scale.",
		}, []string{"scale"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "API requests by route and status code.",
		}, []string{"route", "code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "API request latency by route.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~2s
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.feeds,
		c.motorFailures,
		c.notifications,
		c.samplesFlushed,
		c.samplesDropped,
		c.loopPeriod,
		c.loads,
		c.httpRequests,
		c.httpLatency,
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{Registry: c.reg})
}

func (c *Collector) ObserveFeed(outcome string) { c.feeds.WithLabelValues(outcome).Inc() }

func (c *Collector) IncMotorFailure() { c.motorFailures.Inc() }

func (c *Collector) IncNotification(kind string) { c.notifications.WithLabelValues(kind).Inc() }

func (c *Collector) AddSamplesFlushed(n int) { c.samplesFlushed.Add(float64(n)) }

func (c *Collector) AddSamplesDropped(n int) { c.samplesDropped.Add(float64(n)) }

func (c *Collector) SetLoopPeriod(d time.Duration) { c.loopPeriod.Set(d.Seconds()) }

func (c *Collector) SetLoads(container, plate float64) {
	c.loads.WithLabelValues("container").Set(container)
	c.loads.WithLabelValues("plate").Set(plate)
}

// ObserveRequest records one API call.
func (c *Collector) ObserveRequest(route, code string, d time.Duration) {
	c.httpRequests.WithLabelValues(route, code).Inc()
	c.httpLatency.WithLabelValues(route).Observe(d.Seconds())
}

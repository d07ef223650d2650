// Package metrics exposes run counters in prometheus format. A batch run has
// no scrape endpoint, so the registry is written to a node-exporter textfile.
package metrics

import (
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/1siamBot/spritebake/engine/batch"
)

const namespace = "spritebake"

type Metrics struct {
	reg      *prometheus.Registry
	items    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	rss      prometheus.Gauge
	runTime  prometheus.Gauge
	failed   prometheus.Gauge
}

// New builds a private registry; nothing is registered globally.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Processed items by phase, status and reason.",
		}, []string{"phase", "status", "reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "item_duration_seconds",
			Help:      "Time spent on one item.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"phase"}),
		rss: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resident_bytes",
			Help:      "Process RSS at the last reclamation point.",
		}),
		runTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		failed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_failed_items",
			Help:      "Failed items in the last run.",
		}),
	}
	m.reg.MustRegister(m.items, m.duration, m.rss, m.runTime, m.failed)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Observe counts one item outcome.
func (m *Metrics) Observe(it batch.Item) {
	phase := it.Phase.String()
	m.items.WithLabelValues(phase, it.Status.String(), it.Reason).Inc()
	m.duration.WithLabelValues(phase).Observe(it.Duration.Seconds())
}

// Attach subscribes the metrics to a runner's event bus.
func (m *Metrics) Attach(bus *batch.EventBus) {
	bus.On(batch.EvtItemFinished, func(e batch.Event) {
		if it, ok := e.Payload.(batch.Item); ok {
			m.Observe(it)
		}
	})
	bus.On(batch.EvtReclaimed, func(e batch.Event) {
		if r, ok := e.Payload.(batch.Reclaim); ok && r.RSS > 0 {
			m.rss.Set(float64(r.RSS))
		}
	})
	bus.On(batch.EvtRunFinished, func(e batch.Event) {
		if s, ok := e.Payload.(*batch.Summary); ok {
			m.runTime.Set(s.Duration.Seconds())
			m.failed.Set(float64(s.Failed()))
		}
	})
}

// WriteTextfile writes the registry in text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, m.reg)
}

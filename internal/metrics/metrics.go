// Package metrics exposes the tracking pipeline counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eqlog/eqlog-go/pkg/eqlog"
	"github.com/eqlog/eqlog-go/pkg/eqlog/event"
)

const namespace = "eqlog"

// Collector implements eqlog.Recorder on its own registry, so several
// collectors can coexist in one process (and in tests).
type Collector struct {
	registry *prometheus.Registry

	linesRead          prometheus.Counter
	eventsParsed       *prometheus.CounterVec
	zoneChanges        prometheus.Counter
	readErrors         prometheus.Counter
	eventsPruned       prometheus.Counter
	actorsTracked      prometheus.Gauge
	snapshotsPublished prometheus.Counter
	actorsPublished    prometheus.Gauge
	ticksSkipped       prometheus.Counter
}

// New creates a Collector with every metric registered.
func New() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	c := &Collector{
		registry: reg,
		linesRead: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_read_total",
			Help:      "Complete log lines read from the tracked file",
		}),
		eventsParsed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_parsed_total",
			Help:      "Combat events parsed, by kind",
		}, []string{"kind"}),
		zoneChanges: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zone_changes_total",
			Help:      "Zone change lines seen",
		}),
		readErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_errors_total",
			Help:      "Background errors while following the log file",
		}),
		eventsPruned: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_pruned_total",
			Help:      "Events dropped by retention or the per-actor cap",
		}),
		actorsTracked: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "actors_tracked",
			Help:      "Actors with retained events",
		}),
		snapshotsPublished: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Snapshot maps pushed to subscribers",
		}),
		actorsPublished: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "actors_published",
			Help:      "Actors in the most recent snapshot map",
		}),
		ticksSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publisher_ticks_skipped_total",
			Help:      "Publisher ticks skipped because the previous tick was still running",
		}),
	}

	// Pre-create kind series so they report 0 before the first event.
	for _, k := range event.Kinds {
		c.eventsParsed.WithLabelValues(string(k))
	}
	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) LineReceived() { c.linesRead.Inc() }

func (c *Collector) EventParsed(kind event.Kind) {
	c.eventsParsed.WithLabelValues(string(kind)).Inc()
}

func (c *Collector) ZoneChanged() { c.zoneChanges.Inc() }

func (c *Collector) ReadError() { c.readErrors.Inc() }

func (c *Collector) EventsPruned(n int) { c.eventsPruned.Add(float64(n)) }

func (c *Collector) ActorsTracked(n int) { c.actorsTracked.Set(float64(n)) }

func (c *Collector) SnapshotsPublished(actors int) {
	c.snapshotsPublished.Inc()
	c.actorsPublished.Set(float64(actors))
}

func (c *Collector) TickSkipped() { c.ticksSkipped.Inc() }

var _ eqlog.Recorder = (*Collector)(nil)

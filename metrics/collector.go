// Package metrics exposes pool statistics and pooling events to Prometheus.
//
// The Collector reads a fresh snapshot on every scrape, so nothing has to be
// pushed from the pooling hot paths:
//
//	reg := prometheus.NewRegistry()
//	reg.MustRegister(metrics.NewCollector("gwizpool", m))
//	http.Handle("/metrics", metrics.Handler(reg))
package metrics

import (
	"net/http"

	"github.com/AlexsanderHamir/gwizpool/pool"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsSource provides pool statistics without side effects.
// *manager.Manager satisfies it.
type StatsSource interface {
	Snapshot() []pool.PoolStatistics
}

// Collector is a prometheus.Collector reporting one series per pool and
// metric, labeled by type and category.
type Collector struct {
	source StatsSource

	pools     *prometheus.Desc
	available *prometheus.Desc
	inUse     *prometheus.Desc
	created   *prometheus.Desc
	hits      *prometheus.Desc
	misses    *prometheus.Desc
	hitRate   *prometheus.Desc
	peakInUse *prometheus.Desc
	memory    *prometheus.Desc
	cleanups  *prometheus.Desc
	tracked   *prometheus.Desc
}

var poolLabels = []string{"type", "category"}

func NewCollector(namespace string, source StatsSource) *Collector {
	desc := func(name, help string, labels []string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "pool", name), help, labels, nil)
	}

	return &Collector{
		source:    source,
		pools:     prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "pools"), "Number of registered pools.", nil, nil),
		available: desc("available", "Instances in the free list.", poolLabels),
		inUse:     desc("in_use", "Instances checked out.", poolLabels),
		created:   desc("created_total", "Instances ever constructed or adopted.", poolLabels),
		hits:      desc("hits_total", "Acquires served from the free list.", poolLabels),
		misses:    desc("misses_total", "Acquires that constructed a new instance.", poolLabels),
		hitRate:   desc("hit_rate", "Hits over total acquires.", poolLabels),
		peakInUse: desc("peak_in_use", "Highest number of instances checked out at once.", poolLabels),
		memory:    desc("memory_bytes", "Estimated footprint of every tracked instance.", poolLabels),
		cleanups:  desc("cleanups_total", "Shrink and trim passes that removed instances.", poolLabels),
		tracked:   desc("tracked", "Instances the pool tracks, free and in use.", poolLabels),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.pools
	ch <- c.available
	ch <- c.inUse
	ch <- c.created
	ch <- c.hits
	ch <- c.misses
	ch <- c.hitRate
	ch <- c.peakInUse
	ch <- c.memory
	ch <- c.cleanups
	ch <- c.tracked
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.pools, prometheus.GaugeValue, float64(len(stats)))

	for _, s := range stats {
		labels := []string{string(s.Type), s.Category}

		gauge := func(d *prometheus.Desc, v float64) {
			ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
		}
		counter := func(d *prometheus.Desc, v float64) {
			ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, labels...)
		}

		gauge(c.available, float64(s.CurrentPoolSize))
		gauge(c.inUse, float64(s.ObjectsInUse))
		gauge(c.tracked, float64(s.TotalObjects()))
		counter(c.created, float64(s.TotalCreated))
		counter(c.hits, float64(s.PoolHits))
		counter(c.misses, float64(s.PoolMisses))
		gauge(c.hitRate, s.HitRate)
		gauge(c.peakInUse, float64(s.PeakConcurrentUsage))
		gauge(c.memory, float64(s.MemoryUsageBytes))
		counter(c.cleanups, float64(s.CleanupCount))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

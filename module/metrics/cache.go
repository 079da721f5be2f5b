package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nodezero/nodezero-go/module"
)

type CacheCollector struct {
	entries *prometheus.GaugeVec
	hits    *prometheus.CounterVec
	misses  *prometheus.CounterVec
}

var _ module.CacheMetrics = (*CacheCollector)(nil)

func NewCacheCollector(registerer prometheus.Registerer) *CacheCollector {
	factory := promauto.With(registerer)

	cc := &CacheCollector{

		entries: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:      "entries_total",
			Namespace: namespaceStorage,
			Subsystem: subsystemCache,
			Help:      "the number of entries in the storage cache",
		}, []string{LabelResource}),

		hits: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "hits_total",
			Namespace: namespaceStorage,
			Subsystem: subsystemCache,
			Help:      "the number of hits for the storage cache",
		}, []string{LabelResource}),

		misses: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "misses_total",
			Namespace: namespaceStorage,
			Subsystem: subsystemCache,
			Help:      "the number of misses for the storage cache",
		}, []string{LabelResource}),
	}

	return cc
}

// CacheEntries records the size of the given cache.
func (cc *CacheCollector) CacheEntries(resource string, entries uint) {
	cc.entries.With(prometheus.Labels{LabelResource: resource}).Set(float64(entries))
}

// CacheHit records the number of hits in the given cache.
func (cc *CacheCollector) CacheHit(resource string) {
	cc.hits.With(prometheus.Labels{LabelResource: resource}).Inc()
}

// CacheMiss records the number of misses in the given cache.
func (cc *CacheCollector) CacheMiss(resource string) {
	cc.misses.With(prometheus.Labels{LabelResource: resource}).Inc()
}

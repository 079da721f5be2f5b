package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nodezero/nodezero-go/module"
)

// ZerocoinCollector reports the accumulator, witness and spend metrics of the
// zerocoin subsystem.
type ZerocoinCollector struct {
	*CacheCollector

	mintsAccumulated     *prometheus.CounterVec
	lastCheckpointHeight prometheus.Gauge
	recalculationTime    prometheus.Gauge
	recalculatedCount    prometheus.Gauge

	witnessQueueSize  prometheus.Gauge
	witnessReceived   prometheus.Counter
	witnessDropped    prometheus.Counter
	witnessDuration   prometheus.Histogram
	witnessBlocks     prometheus.Histogram
	witnessRejections *prometheus.CounterVec

	spendsAccepted prometheus.Counter
	spendsRejected *prometheus.CounterVec
}

var _ module.ZerocoinMetrics = (*ZerocoinCollector)(nil)

func NewZerocoinCollector(registerer prometheus.Registerer) *ZerocoinCollector {
	factory := promauto.With(registerer)

	zc := &ZerocoinCollector{
		CacheCollector: NewCacheCollector(registerer),

		mintsAccumulated: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "mints_accumulated_total",
			Namespace: namespaceZerocoin,
			Subsystem: subsystemAccumulator,
			Help:      "the number of mints folded into the running accumulators",
		}, []string{LabelDenomination}),

		lastCheckpointHeight: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "last_checkpoint_height",
			Namespace: namespaceZerocoin,
			Subsystem: subsystemAccumulator,
			Help:      "the height of the most recent accumulator checkpoint",
		}),

		recalculationTime: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "recalculation_seconds",
			Namespace: namespaceZerocoin,
			Subsystem: subsystemAccumulator,
			Help:      "the duration of the last accumulator recalculation",
		}),

		recalculatedCount: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "recalculated_checkpoints",
			Namespace: namespaceZerocoin,
			Subsystem: subsystemAccumulator,
			Help:      "the number of checkpoints rebuilt by the last recalculation",
		}),

		witnessQueueSize: factory.NewGauge(prometheus.GaugeOpts{
			Name:      "queue_size",
			Namespace: namespaceZerocoin,
			Subsystem: subsystemWitness,
			Help:      "the number of witness requests waiting to be processed",
		}),

		witnessReceived: factory.NewCounter(prometheus.CounterOpts{
			Name:      "requests_received_total",
			Namespace: namespaceZerocoin,
			Subsystem: subsystemWitness,
			Help:      "the number of witness requests accepted into the queue",
		}),

		witnessDropped: factory.NewCounter(prometheus.CounterOpts{
			Name:      "requests_dropped_total",
			Namespace: namespaceZerocoin,
			Subsystem: subsystemWitness,
			Help:      "the number of witness requests refused by the engine",
		}),

		witnessDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:      "computation_seconds",
			Namespace: namespaceZerocoin,
			Subsystem: subsystemWitness,
			Help:      "the duration of successful witness computations",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
		}),

		witnessBlocks: factory.NewHistogram(prometheus.HistogramOpts{
			Name:      "blocks_replayed",
			Namespace: namespaceZerocoin,
			Subsystem: subsystemWitness,
			Help:      "the number of blocks replayed per successful witness computation",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}),

		witnessRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "rejections_total",
			Namespace: namespaceZerocoin,
			Subsystem: subsystemWitness,
			Help:      "the number of rejected witness requests",
		}, []string{LabelCode}),

		spendsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name:      "accepted_total",
			Namespace: namespaceZerocoin,
			Subsystem: subsystemSpends,
			Help:      "the number of spends that passed the consensus checks",
		}),

		spendsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "rejected_total",
			Namespace: namespaceZerocoin,
			Subsystem: subsystemSpends,
			Help:      "the number of spends rejected by the consensus checks",
		}, []string{LabelReason}),
	}

	return zc
}

func (zc *ZerocoinCollector) MintAccumulated(denomination string) {
	zc.mintsAccumulated.With(prometheus.Labels{LabelDenomination: denomination}).Inc()
}

func (zc *ZerocoinCollector) CheckpointStored(height uint64) {
	zc.lastCheckpointHeight.Set(float64(height))
}

func (zc *ZerocoinCollector) RecalculationFinished(duration time.Duration, checkpoints int) {
	zc.recalculationTime.Set(duration.Seconds())
	zc.recalculatedCount.Set(float64(checkpoints))
}

func (zc *ZerocoinCollector) WitnessQueueSize(size uint) {
	zc.witnessQueueSize.Set(float64(size))
}

func (zc *ZerocoinCollector) WitnessRequestReceived() {
	zc.witnessReceived.Inc()
}

func (zc *ZerocoinCollector) WitnessRequestDropped() {
	zc.witnessDropped.Inc()
}

func (zc *ZerocoinCollector) WitnessComputed(duration time.Duration, blocksReplayed uint64) {
	zc.witnessDuration.Observe(duration.Seconds())
	zc.witnessBlocks.Observe(float64(blocksReplayed))
}

func (zc *ZerocoinCollector) WitnessRejected(code string) {
	zc.witnessRejections.With(prometheus.Labels{LabelCode: code}).Inc()
}

func (zc *ZerocoinCollector) SpendAccepted() {
	zc.spendsAccepted.Inc()
}

func (zc *ZerocoinCollector) SpendRejected(reason string) {
	zc.spendsRejected.With(prometheus.Labels{LabelReason: reason}).Inc()
}

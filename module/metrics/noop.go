package metrics

import (
	"time"

	"github.com/nodezero/nodezero-go/module"
)

type NoopCollector struct{}

var _ module.ZerocoinMetrics = (*NoopCollector)(nil)

func NewNoopCollector() *NoopCollector {
	nc := &NoopCollector{}
	return nc
}

func (nc *NoopCollector) CacheEntries(resource string, entries uint)                    {}
func (nc *NoopCollector) CacheHit(resource string)                                      {}
func (nc *NoopCollector) CacheMiss(resource string)                                     {}
func (nc *NoopCollector) MintAccumulated(denomination string)                           {}
func (nc *NoopCollector) CheckpointStored(height uint64)                                {}
func (nc *NoopCollector) RecalculationFinished(duration time.Duration, checkpoints int) {}
func (nc *NoopCollector) WitnessQueueSize(size uint)                                    {}
func (nc *NoopCollector) WitnessRequestReceived()                                       {}
func (nc *NoopCollector) WitnessRequestDropped()                                        {}
func (nc *NoopCollector) WitnessComputed(duration time.Duration, blocksReplayed uint64) {}
func (nc *NoopCollector) WitnessRejected(code string)                                   {}
func (nc *NoopCollector) SpendAccepted()                                                {}
func (nc *NoopCollector) SpendRejected(reason string)                                   {}

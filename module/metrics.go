package module

import (
	"time"
)

// CacheMetrics tracks the read-through caches of the storage layer.
type CacheMetrics interface {
	// CacheEntries reports the number of entries held by the cache of resource.
	CacheEntries(resource string, entries uint)
	// CacheHit is called when a lookup of resource was served from the cache.
	CacheHit(resource string)
	// CacheMiss is called when a lookup of resource had to go to the database.
	CacheMiss(resource string)
}

// AccumulatorMetrics tracks the accumulator checkpoint store.
type AccumulatorMetrics interface {
	// MintAccumulated is called for every mint folded into the running accumulator.
	MintAccumulated(denomination string)
	// CheckpointStored reports the height of a newly taken checkpoint.
	CheckpointStored(height uint64)
	// RecalculationFinished reports the duration of an accumulator recalculation.
	RecalculationFinished(duration time.Duration, checkpoints int)
}

// WitnessMetrics tracks the witness computation engine.
type WitnessMetrics interface {
	WitnessQueueSize(size uint)
	WitnessRequestReceived()
	WitnessRequestDropped()
	// WitnessComputed is called for every successfully computed witness.
	WitnessComputed(duration time.Duration, blocksReplayed uint64)
	// WitnessRejected is called for every rejected request with the rejection code.
	WitnessRejected(code string)
}

// SpendMetrics tracks the zerocoin spend consensus checks.
type SpendMetrics interface {
	SpendAccepted()
	SpendRejected(reason string)
}

// ZerocoinMetrics combines everything reported by the zerocoin subsystem.
type ZerocoinMetrics interface {
	CacheMetrics
	AccumulatorMetrics
	WitnessMetrics
	SpendMetrics
}

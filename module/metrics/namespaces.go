package metrics

const (
	namespaceZerocoin = "zerocoin"
	namespaceStorage  = "storage"
)

const (
	subsystemAccumulator = "accumulator"
	subsystemWitness     = "witness"
	subsystemSpends      = "spends"
	subsystemCache       = "cache"
)

package metrics

const (
	LabelResource     = "resource"
	LabelDenomination = "denomination"
	LabelCode         = "code"
	LabelReason       = "reason"
)

const (
	ResourceUndefined  = "undefined"
	ResourceMints      = "mints"
	ResourceCheckpoint = "checkpoint"
)

package module

import (
	"errors"

	"github.com/nodezero/nodezero-go/module/irrecoverable"
)

// ErrMultipleStartup is returned when a component is started more than once.
var ErrMultipleStartup = errors.New("component may only be started once")

// ReadyDoneAware provides an interface to wait for module startup and shutdown.
// Modules implementing it support a single start-stop cycle only.
type ReadyDoneAware interface {
	// Ready returns a channel that is closed once startup has completed.
	// Idempotent.
	Ready() <-chan struct{}

	// Done returns a channel that is closed once shutdown has completed.
	// Idempotent.
	Done() <-chan struct{}
}

// Startable is a module that is started with a signaler context. Cancelling
// the context initiates shutdown; fatal errors are reported through Throw.
type Startable interface {
	// Start starts the module. Must be called at most once, implementations
	// are expected to panic otherwise.
	Start(irrecoverable.SignalerContext)
}

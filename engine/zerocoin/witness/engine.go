package witness

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/nodezero/nodezero-go/engine/common/fifoqueue"
	"github.com/nodezero/nodezero-go/model/zerocoin"
	"github.com/nodezero/nodezero-go/module"
	"github.com/nodezero/nodezero-go/module/component"
	"github.com/nodezero/nodezero-go/module/irrecoverable"
)

// DefaultQueueCapacity is the maximum number of queued witness requests.
const DefaultQueueCapacity = 10_000

// State is the lifecycle state of the witness engine.
type State uint32

const (
	Stopped State = iota
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return fmt.Sprintf("state_%d", uint32(s))
	}
}

// Engine queues witness requests and computes them one at a time, in
// submission order, on a single worker routine. It can be started again
// after it was stopped.
type Engine struct {
	log      zerolog.Logger
	core     *Core
	metrics  module.WitnessMetrics
	queue    *fifoqueue.FifoQueue[*zerocoin.WitnessRequest]
	notifier module.Notifier
	sequence *atomic.Uint64
	state    *atomic.Uint32

	// lifecycle guards state transitions against concurrent submissions
	lifecycle sync.RWMutex
	cm        *component.ComponentManager
	cancel    context.CancelFunc
	ready     <-chan struct{}
	// stopped is closed once the current run has fully shut down
	stopped chan struct{}
}

func NewEngine(log zerolog.Logger, core *Core, metrics module.WitnessMetrics, capacity uint) (*Engine, error) {
	if capacity == 0 {
		capacity = DefaultQueueCapacity
	}
	queue, err := fifoqueue.NewFifoQueue[*zerocoin.WitnessRequest](
		fifoqueue.WithCapacity(int(capacity)),
		fifoqueue.WithLengthObserver(func(len int) { metrics.WitnessQueueSize(uint(len)) }),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create witness request queue: %w", err)
	}

	return &Engine{
		log:      log.With().Str("engine", "witness").Logger(),
		core:     core,
		metrics:  metrics,
		queue:    queue,
		notifier: module.NewNotifier(),
		sequence: atomic.NewUint64(0),
		state:    atomic.NewUint32(uint32(Stopped)),
		ready:    make(chan struct{}),
	}, nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Start launches the worker. Irrecoverable errors are thrown to parent.
// Returns an error unless the engine is Stopped.
func (e *Engine) Start(parent irrecoverable.SignalerContext) error {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	if e.State() != Stopped {
		return fmt.Errorf("cannot start witness engine in state %s", e.State())
	}

	ctx, cancel, errCh := irrecoverable.WithSignallerAndCancel(parent)
	cm := component.NewComponentManagerBuilder().
		AddWorker(e.processRequestsLoop).
		Build()
	cm.Start(ctx)
	go func() {
		select {
		case err := <-errCh:
			parent.Throw(err)
		case <-cm.Done():
			select {
			case err := <-errCh:
				parent.Throw(err)
			default:
			}
		}
	}()
	go func() {
		<-cm.Done()
		e.workerExited(cm)
	}()
	e.cm, e.cancel, e.ready = cm, cancel, cm.Ready()
	e.stopped = make(chan struct{})

	e.state.Store(uint32(Running))
	e.log.Info().Msg("witness engine started")
	return nil
}

// Ready returns a channel that is closed once the worker of the latest run
// is ready. Before the first Start the channel never closes.
func (e *Engine) Ready() <-chan struct{} {
	e.lifecycle.RLock()
	defer e.lifecycle.RUnlock()
	return e.ready
}

// Stop interrupts the request in progress, rejects every queued request as
// Undetermined and waits for the worker to exit. Stopping an engine that
// is not running is a no-op.
func (e *Engine) Stop() {
	e.lifecycle.Lock()
	switch e.State() {
	case Running:
	case Stopping:
		// the worker exited on its own and is being shut down
		stopped := e.stopped
		e.lifecycle.Unlock()
		<-stopped
		return
	default:
		e.lifecycle.Unlock()
		return
	}
	e.state.Store(uint32(Stopping))
	cm, cancel := e.cm, e.cancel
	e.lifecycle.Unlock()

	cancel()
	<-cm.Done()
	e.shutdown("witness engine stopped")
}

// workerExited shuts the engine down when the worker of run cm returned
// without Stop, because the parent context ended or an error was thrown.
func (e *Engine) workerExited(cm *component.ComponentManager) {
	e.lifecycle.Lock()
	if e.cm != cm || e.State() != Running {
		// Stop owns the shutdown of this run
		e.lifecycle.Unlock()
		return
	}
	e.state.Store(uint32(Stopping))
	e.lifecycle.Unlock()

	e.log.Warn().Msg("witness worker exited without being stopped")
	e.shutdown("witness worker exited")
}

// shutdown rejects the queued requests and moves a Stopping engine to
// Stopped.
func (e *Engine) shutdown(reason string) {
	// no submission can succeed while Stopping
	dropped := 0
	for {
		req, ok := e.queue.Pop()
		if !ok {
			break
		}
		e.deliver(req, zerocoin.Reject(req, zerocoin.Undetermined, 0, reason))
		e.metrics.WitnessRejected(zerocoin.Undetermined.String())
		dropped++
	}

	e.lifecycle.Lock()
	e.cancel()
	e.state.Store(uint32(Stopped))
	stopped := e.stopped
	e.cm, e.cancel = nil, nil
	e.lifecycle.Unlock()
	close(stopped)

	e.log.Info().Int("rejected_requests", dropped).Msg("witness engine stopped")
}

// Submit enqueues req and assigns its sequence number. Returns false, without
// queuing, if the engine is not running or the queue is full. The result is
// delivered to req.Handler on the worker routine.
func (e *Engine) Submit(req *zerocoin.WitnessRequest) bool {
	e.lifecycle.RLock()
	defer e.lifecycle.RUnlock()

	if e.State() != Running {
		return false
	}
	e.metrics.WitnessRequestReceived()
	ok := e.queue.PushFunc(func() *zerocoin.WitnessRequest {
		req.Sequence = e.sequence.Inc()
		return req
	})
	if !ok {
		e.metrics.WitnessRequestDropped()
		e.log.Warn().Str("request_id", req.ID.String()).Msg("witness request queue is full, dropping request")
		return false
	}
	e.notifier.Notify()
	return true
}

// processRequestsLoop computes queued requests as they arrive.
func (e *Engine) processRequestsLoop(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	ready()

	doneSignal := ctx.Done()
	newRequestSignal := e.notifier.Channel()
	for {
		select {
		case <-doneSignal:
			return
		case <-newRequestSignal:
			e.processQueuedRequests(ctx)
		}
	}
}

// processQueuedRequests drains the queue, returning early once ctx is done.
func (e *Engine) processQueuedRequests(ctx irrecoverable.SignalerContext) {
	for ctx.Err() == nil {
		req, ok := e.queue.Pop()
		if !ok {
			return
		}
		e.deliver(req, e.core.ComputeWitness(ctx, req))
	}
}

func (e *Engine) deliver(req *zerocoin.WitnessRequest, result *zerocoin.WitnessResult) {
	if req.Handler == nil {
		e.log.Warn().Str("request_id", req.ID.String()).Msg("witness request without result handler")
		return
	}
	req.Handler(result)
}

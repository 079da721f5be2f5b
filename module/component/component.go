package component

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/atomic"

	"github.com/nodezero/nodezero-go/module"
	"github.com/nodezero/nodezero-go/module/irrecoverable"
	"github.com/nodezero/nodezero-go/module/util"
)

// ErrComponentShutdown is returned by a component which has already been shut down.
var ErrComponentShutdown = errors.New("component has already shut down")

// Component can be started once and exposes channels that close when startup
// and shutdown have completed. After Start, Done must close eventually, either
// because of a graceful shutdown or an irrecoverable error.
type Component interface {
	module.Startable
	module.ReadyDoneAware
}

// ReadyFunc is called by a ComponentWorker once it is ready.
type ReadyFunc func()

// ComponentWorker is a worker routine of a component. Irrecoverable errors
// are thrown through ctx; shutdown is signalled by cancelling ctx.
type ComponentWorker func(ctx irrecoverable.SignalerContext, ready ReadyFunc)

// ComponentManagerBuilder builds a ComponentManager.
type ComponentManagerBuilder interface {
	AddWorker(ComponentWorker) ComponentManagerBuilder
	Build() *ComponentManager
}

type componentManagerBuilderImpl struct {
	workers []ComponentWorker
}

func NewComponentManagerBuilder() ComponentManagerBuilder {
	return &componentManagerBuilderImpl{}
}

// AddWorker adds a worker routine. Not concurrency safe.
func (c *componentManagerBuilderImpl) AddWorker(worker ComponentWorker) ComponentManagerBuilder {
	c.workers = append(c.workers, worker)
	return c
}

func (c *componentManagerBuilderImpl) Build() *ComponentManager {
	return &ComponentManager{
		started:        atomic.NewBool(false),
		ready:          make(chan struct{}),
		done:           make(chan struct{}),
		workersDone:    make(chan struct{}),
		shutdownSignal: make(chan struct{}),
		workers:        c.workers,
	}
}

var _ Component = (*ComponentManager)(nil)

// ComponentManager runs the worker routines of a component and implements the
// Component interface on their behalf. Ready closes when every worker has
// called its ReadyFunc, Done closes after every worker has returned.
//
// An error thrown by any worker cancels all other workers and is propagated
// to the parent context passed to Start.
type ComponentManager struct {
	started        *atomic.Bool
	ready          chan struct{}
	done           chan struct{}
	workersDone    chan struct{}
	shutdownSignal chan struct{}

	workers []ComponentWorker
}

// Start launches all worker routines. Panics if called more than once.
func (c *ComponentManager) Start(parent irrecoverable.SignalerContext) {
	if !c.started.CompareAndSwap(false, true) {
		panic(module.ErrMultipleStartup)
	}

	ctx, cancel := context.WithCancel(parent)
	signalerCtx, errChan := irrecoverable.WithSignaler(ctx)

	go func() {
		<-ctx.Done()
		close(c.shutdownSignal)
	}()

	go func() {
		// done closes only after workers exit, so a thrown error always
		// reaches the parent before the done signal
		defer func() {
			<-c.workersDone
			close(c.done)
		}()

		if err := util.WaitError(errChan, c.workersDone); err != nil {
			cancel()
			parent.Throw(err)
		}
	}()

	var workersReady sync.WaitGroup
	var workersDone sync.WaitGroup
	workersReady.Add(len(c.workers))
	workersDone.Add(len(c.workers))

	for _, worker := range c.workers {
		worker := worker
		go func() {
			defer workersDone.Done()
			var readyOnce sync.Once
			worker(signalerCtx, func() {
				readyOnce.Do(workersReady.Done)
			})
		}()
	}

	go func() {
		workersReady.Wait()
		close(c.ready)
	}()
	go func() {
		workersDone.Wait()
		close(c.workersDone)
	}()
}

// Ready returns a channel closed once all workers are ready. If a worker
// exits before signalling readiness, the channel never closes.
func (c *ComponentManager) Ready() <-chan struct{} {
	return c.ready
}

// Done returns a channel closed once all workers have returned.
func (c *ComponentManager) Done() <-chan struct{} {
	return c.done
}

// ShutdownSignal returns a channel closed when shutdown has commenced, either
// through cancellation or because a worker threw an error.
func (c *ComponentManager) ShutdownSignal() <-chan struct{} {
	return c.shutdownSignal
}

package irrecoverable

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/rs/zerolog/log"
)

// Signaler sends an irrecoverable error out of a worker goroutine.
type Signaler struct {
	errChan chan error
}

func NewSignaler() (*Signaler, <-chan error) {
	errChan := make(chan error, 1)
	return &Signaler{errChan: errChan}, errChan
}

// Throw is a narrow drop-in replacement for panic or log.Fatal. It delivers
// the error to the signaler's channel and terminates the calling goroutine.
// Only the first thrown error is kept.
func (s *Signaler) Throw(err error) {
	defer runtime.Goexit()
	select {
	case s.errChan <- err:
	default:
		// an error was already thrown
	}
}

// SignalerContext is a context.Context that can also propagate irrecoverable
// errors to whoever started the component holding it.
type SignalerContext interface {
	context.Context
	Throw(err error) // delegates to the signaler
	sealed()         // private, to force construction through WithSignaler
}

type signalerCtx struct {
	context.Context
	*Signaler
}

func (sc signalerCtx) sealed() {}

// WithSignaler is the only way to get a SignalerContext. The returned channel
// receives the first error thrown by any holder of the context.
func WithSignaler(parent context.Context) (SignalerContext, <-chan error) {
	sig, errChan := NewSignaler()
	return &signalerCtx{parent, sig}, errChan
}

// Throw throws an irrecoverable error through ctx if it is a SignalerContext.
// Otherwise, there is nothing to propagate the error to and the process exits.
func Throw(ctx context.Context, err error) {
	signalerAbleContext, ok := ctx.(SignalerContext)
	if ok {
		signalerAbleContext.Throw(err)
	}
	log.Fatal().Err(err).Msg("irrecoverable error signaler not found for context, unhandled irrecoverable error")
}

// WithSignallerAndCancel returns a cancellable SignalerContext derived from parent.
func WithSignallerAndCancel(parent context.Context) (SignalerContext, context.CancelFunc, <-chan error) {
	ctx, cancel := context.WithCancel(parent)
	sctx, errCh := WithSignaler(ctx)
	return sctx, cancel, errCh
}

// exception marks an error as a symptom of a bug or of corrupted state, as
// opposed to an expected failure the caller may handle.
type exception struct {
	err error
}

func (e exception) Error() string {
	return e.err.Error()
}

func (e exception) Unwrap() error {
	return e.err
}

// NewException wraps err as an exception.
func NewException(err error) error {
	return exception{err: err}
}

// NewExceptionf creates an exception from a format string.
func NewExceptionf(msg string, args ...interface{}) error {
	return exception{err: fmt.Errorf(msg, args...)}
}

// IsException returns true if err is or wraps an exception.
func IsException(err error) bool {
	var e exception
	return errors.As(err, &e)
}

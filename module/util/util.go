package util

import (
	"sync"
)

// AllClosed returns a channel that is closed once all input channels are closed.
func AllClosed(channels ...<-chan struct{}) <-chan struct{} {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(len(channels))
	for _, ch := range channels {
		go func(ch <-chan struct{}) {
			<-ch
			wg.Done()
		}(ch)
	}
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

// WaitError waits for either an error on errChan or for done to be closed.
// An error that arrives together with done is still returned, so a thrown
// error is never mistaken for a clean shutdown.
func WaitError(errChan <-chan error, done <-chan struct{}) error {
	select {
	case err := <-errChan:
		return err
	case <-done:
		select {
		case err := <-errChan:
			return err
		default:
		}
		return nil
	}
}

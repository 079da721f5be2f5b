package module

// Notifier informs a worker routine about the arrival of new work.
// Notifications are coalesced: any number of Notify calls made while the
// worker is busy result in a single wake-up, so the worker must drain its
// queue completely after each notification.
//
// Notifiers can be passed by value, copies share the same state.
type Notifier struct {
	// buffered channel with capacity 1
	notifier chan struct{}
}

// NewNotifier instantiates a Notifier.
func NewNotifier() Notifier {
	return Notifier{make(chan struct{}, 1)}
}

// Notify sends a notification without blocking. If a notification is
// already pending, this call is a no-op.
func (n Notifier) Notify() {
	select {
	case n.notifier <- struct{}{}:
	default:
	}
}

// Channel returns the channel the worker waits on.
func (n Notifier) Channel() <-chan struct{} {
	return n.notifier
}

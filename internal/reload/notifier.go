package reload

// Notifier forwards reload requests to a live-preview transport.
type Notifier interface {
	Notify(mode Mode)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(mode Mode)

func (f NotifierFunc) Notify(mode Mode) { f(mode) }

// NoopNotifier discards every request. Used by the build and watch commands
// when no preview server is running.
type NoopNotifier struct{}

func (NoopNotifier) Notify(Mode) {}

// Multi fans a request out to several notifiers in order.
type Multi []Notifier

func (m Multi) Notify(mode Mode) {
	for _, n := range m {
		if n != nil {
			n.Notify(mode)
		}
	}
}

package watch

import "sync"

// Provider is a source of change events.
type Provider interface {
	Events() <-chan ChangeEvent
	Errors() <-chan error
	Close() error
}

// ChanProvider is a Provider fed by Send. Tests and embedders use it to
// inject events without touching the filesystem.
type ChanProvider struct {
	events chan ChangeEvent
	errors chan error
	once   sync.Once
}

// NewChanProvider returns a provider buffering up to buffer events.
func NewChanProvider(buffer int) *ChanProvider {
	return &ChanProvider{
		events: make(chan ChangeEvent, buffer),
		errors: make(chan error, 1),
	}
}

// Send delivers ev. It blocks when the buffer is full.
func (p *ChanProvider) Send(ev ChangeEvent) {
	p.events <- ev
}

// SendError delivers a provider error without blocking.
func (p *ChanProvider) SendError(err error) {
	select {
	case p.errors <- err:
	default:
	}
}

func (p *ChanProvider) Events() <-chan ChangeEvent { return p.events }
func (p *ChanProvider) Errors() <-chan error       { return p.errors }

// Close closes the event stream. Subsequent Sends panic.
func (p *ChanProvider) Close() error {
	p.once.Do(func() {
		close(p.events)
	})
	return nil
}

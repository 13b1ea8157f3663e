package task

import (
	"time"

	"git.home.luguber.info/inful/patternpipe/internal/metrics"
)

// Observer receives callbacks around every task the executor runs,
// composites included.
type Observer interface {
	OnTaskStart(name string, kind Kind)
	OnTaskComplete(name string, kind Kind, d time.Duration, err error)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnTaskStart(string, Kind)                          {}
func (NoopObserver) OnTaskComplete(string, Kind, time.Duration, error) {}

// recorderObserver adapts metrics.Recorder into an Observer.
type recorderObserver struct{ rec metrics.Recorder }

func (recorderObserver) OnTaskStart(string, Kind) {}

func (r recorderObserver) OnTaskComplete(name string, _ Kind, d time.Duration, err error) {
	r.rec.ObserveTaskDuration(name, d)
	r.rec.IncTaskResult(name, metrics.ResultFor(err, isCanceled(err)))
}

type multiObserver []Observer

func (m multiObserver) OnTaskStart(name string, kind Kind) {
	for _, o := range m {
		o.OnTaskStart(name, kind)
	}
}

func (m multiObserver) OnTaskComplete(name string, kind Kind, d time.Duration, err error) {
	for _, o := range m {
		o.OnTaskComplete(name, kind, d, err)
	}
}

package metrics

import "time"

// ResultLabel enumerates task and reaction result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// FileResultLabel enumerates per-file outcomes of copy and transform tasks.
type FileResultLabel string

const (
	FileCopied      FileResultLabel = "copied"
	FileTransformed FileResultLabel = "transformed"
	FileFailed      FileResultLabel = "failed"
)

// Recorder defines observability hooks for the build orchestrator.
type Recorder interface {
	ObserveTaskDuration(task string, d time.Duration)
	IncTaskResult(task string, result ResultLabel)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(result ResultLabel)
	IncFileResult(task string, result FileResultLabel)
	IncWatchEvent(subscription, op string)
	IncReaction(subscription string, result ResultLabel)
	IncReload(mode string)
	SetReloadClients(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveTaskDuration(string, time.Duration) {}
func (NoopRecorder) IncTaskResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)        {}
func (NoopRecorder) IncBuildOutcome(ResultLabel)               {}
func (NoopRecorder) IncFileResult(string, FileResultLabel)     {}
func (NoopRecorder) IncWatchEvent(string, string)              {}
func (NoopRecorder) IncReaction(string, ResultLabel)           {}
func (NoopRecorder) IncReload(string)                          {}
func (NoopRecorder) SetReloadClients(int)                      {}

// ResultFor maps an error onto a result label.
func ResultFor(err error, canceled bool) ResultLabel {
	switch {
	case err == nil:
		return ResultSuccess
	case canceled:
		return ResultCanceled
	default:
		return ResultFailed
	}
}

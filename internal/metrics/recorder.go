package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for tasks, stages and deliveries.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveTaskDuration(task string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncTaskOutcome(task string, result ResultLabel)
	IncPagesRendered(n int)
	IncUpload(success bool)
	IncMail(success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveTaskDuration(string, time.Duration)  {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncTaskOutcome(string, ResultLabel)         {}
func (NoopRecorder) IncPagesRendered(int)                       {}
func (NoopRecorder) IncUpload(bool)                             {}
func (NoopRecorder) IncMail(bool)                               {}

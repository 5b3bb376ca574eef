package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/mailbuilder/internal/logfields"
	"git.home.luguber.info/inful/mailbuilder/internal/metrics"
	"git.home.luguber.info/inful/mailbuilder/internal/observability"
)

// Outcome is the final result of a task.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// StageCount tallies results for one stage.
type StageCount struct {
	Success  int
	Warning  int
	Fatal    int
	Canceled int
}

// Counts are the artifacts a task produced.
type Counts struct {
	Styles      int
	Assets      int
	Pages       int
	Minified    int
	DistFiles   int
	SenderFiles int
	Deleted     int
	Uploaded    int
	Mails       int
}

// Report captures what happened during one task run. Stages running
// concurrently update it through its methods.
type Report struct {
	BuildID string
	Task    string
	Env     string
	Start   time.Time
	End     time.Time

	StageDurations map[StageName]time.Duration
	StageCounts    map[StageName]StageCount
	Errors         []error
	Warnings       []error
	Counts         Counts
	Outcome        Outcome

	mu       sync.Mutex
	recorder metrics.Recorder
}

// NewReport starts a report for task with a fresh build ID.
func NewReport(task, env string, rec metrics.Recorder) *Report {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Report{
		BuildID:        uuid.NewString(),
		Task:           task,
		Env:            env,
		Start:          time.Now(),
		StageDurations: make(map[StageName]time.Duration),
		StageCounts:    make(map[StageName]StageCount),
		recorder:       rec,
	}
}

// Count applies f to the report counters.
func (r *Report) Count(f func(c *Counts)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f(&r.Counts)
}

func (r *Report) recordStage(stage StageName, d time.Duration, se *StageError) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.StageDurations[stage] = d
	r.recorder.ObserveStageDuration(string(stage), d)

	sc := r.StageCounts[stage]
	result := metrics.ResultSuccess
	switch {
	case se == nil:
		sc.Success++
	case se.Kind == StageErrorWarning:
		sc.Warning++
		result = metrics.ResultWarning
		r.Warnings = append(r.Warnings, se)
	case se.Kind == StageErrorCanceled:
		sc.Canceled++
		result = metrics.ResultCanceled
		r.Errors = append(r.Errors, se)
	default:
		sc.Fatal++
		result = metrics.ResultFatal
		r.Errors = append(r.Errors, se)
	}
	r.StageCounts[stage] = sc
	r.recorder.IncStageResult(string(stage), result)
}

// Finish stamps the end time, derives the outcome and records task metrics.
func (r *Report) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.End = time.Now()
	r.deriveOutcome()

	result := metrics.ResultSuccess
	switch r.Outcome {
	case OutcomeWarning:
		result = metrics.ResultWarning
	case OutcomeFailed:
		result = metrics.ResultFatal
	case OutcomeCanceled:
		result = metrics.ResultCanceled
	case OutcomeSuccess:
	}
	r.recorder.ObserveTaskDuration(r.Task, r.End.Sub(r.Start))
	r.recorder.IncTaskOutcome(r.Task, result)
}

func (r *Report) deriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			var se *StageError
			if errors.As(e, &se) && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Summary returns a single-line description of the run.
func (r *Report) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.Counts
	return fmt.Sprintf("task=%s outcome=%s duration=%s stages=%d warnings=%d errors=%d styles=%d assets=%d pages=%d minified=%d dist=%d email_sender=%d deleted=%d uploaded=%d mails=%d",
		r.Task, r.Outcome, r.End.Sub(r.Start).Truncate(time.Millisecond), len(r.StageDurations), len(r.Warnings), len(r.Errors),
		c.Styles, c.Assets, c.Pages, c.Minified, c.DistFiles, c.SenderFiles, c.Deleted, c.Uploaded, c.Mails)
}

// Log writes the summary and each warning.
func (r *Report) Log(ctx context.Context) {
	r.mu.Lock()
	warnings := append([]error(nil), r.Warnings...)
	outcome := r.Outcome
	d := r.End.Sub(r.Start)
	r.mu.Unlock()

	for _, w := range warnings {
		observability.WarnContext(ctx, "Task warning", logfields.Error(w))
	}
	attrs := []slog.Attr{slog.String("outcome", string(outcome)), logfields.Duration(d), slog.String("summary", r.Summary())}
	if outcome == OutcomeSuccess || outcome == OutcomeWarning {
		observability.InfoContext(ctx, "Task finished", attrs...)
		return
	}
	observability.WarnContext(ctx, "Task did not complete", attrs...)
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	ferrors "git.home.luguber.info/inful/mailbuilder/internal/foundation/errors"
)

// StageName identifies a stage in reports, logs and metrics.
type StageName string

const (
	StageClean         StageName = "clean"
	StageStyles        StageName = "styles"
	StageAssets        StageName = "assets"
	StageHTML          StageName = "html"
	StageMinify        StageName = "minify"
	StagePublishDist   StageName = "publish_dist"
	StagePublishSender StageName = "publish_email_sender"
	StageEmptyBucket   StageName = "empty_bucket"
	StagePublishBucket StageName = "publish_bucket"
	StageMail          StageName = "mail"
)

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Task must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Recorded; the task continues.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError carries the stage and kind around the underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// StageResult is the high-level outcome of one stage run.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

// Stage is one unit of work within a task.
type Stage func(ctx context.Context, r *Report) error

// StageDef pairs a stage name with its function. A def with Parallel set
// runs those stages concurrently instead of Fn.
type StageDef struct {
	Name     StageName
	Fn       Stage
	Parallel []StageDef
}

// Concurrently groups defs into one step of a task.
func Concurrently(defs ...StageDef) StageDef {
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = string(d.Name)
	}
	return StageDef{Name: StageName(strings.Join(names, "+")), Parallel: defs}
}

// classify turns a stage's returned error into a StageError. Classified
// warnings stay warnings; cancellation is reported as such; anything else is fatal.
func classify(stage StageName, err error) *StageError {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
	case ferrors.HasSeverity(err, ferrors.SeverityWarning), ferrors.HasSeverity(err, ferrors.SeverityInfo):
		return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
	default:
		return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
	}
}

// runParallel runs defs concurrently and waits for all of them. Each stage
// is recorded under its own name. The most severe outcome is returned:
// fatal, then canceled, then warning.
func runParallel(ctx context.Context, r *Report, defs []StageDef) *StageError {
	errs := make([]*StageError, len(defs))
	var g errgroup.Group
	for i, def := range defs {
		g.Go(func() error {
			errs[i] = runStage(ctx, r, def)
			return nil
		})
	}
	_ = g.Wait()

	var worst *StageError
	for _, se := range errs {
		if se != nil && (worst == nil || severityRank(se.Kind) > severityRank(worst.Kind)) {
			worst = se
		}
	}
	return worst
}

func severityRank(k StageErrorKind) int {
	switch k {
	case StageErrorFatal:
		return 3
	case StageErrorCanceled:
		return 2
	default:
		return 1
	}
}

package pipeline

import (
	"context"
	"time"

	"git.home.luguber.info/inful/mailbuilder/internal/logfields"
	"git.home.luguber.info/inful/mailbuilder/internal/observability"
)

// runStages executes defs in order. Warnings are recorded and the run
// continues; a fatal or canceled stage stops it.
func runStages(ctx context.Context, r *Report, defs []StageDef) error {
	for _, def := range defs {
		se := runStage(ctx, r, def)
		if se != nil && se.Kind != StageErrorWarning {
			return se
		}
	}
	return nil
}

func runStage(ctx context.Context, r *Report, def StageDef) *StageError {
	if len(def.Parallel) > 0 {
		return runParallel(ctx, r, def.Parallel)
	}
	if err := ctx.Err(); err != nil {
		se := &StageError{Kind: StageErrorCanceled, Stage: def.Name, Err: err}
		r.recordStage(def.Name, 0, se)
		return se
	}

	stageCtx := observability.WithStage(ctx, string(def.Name))
	observability.DebugContext(stageCtx, "Stage started")
	t0 := time.Now()
	err := def.Fn(stageCtx, r)
	dur := time.Since(t0)

	se := classify(def.Name, err)
	r.recordStage(def.Name, dur, se)
	switch {
	case se == nil:
		observability.DebugContext(stageCtx, "Stage finished", logfields.Duration(dur))
	case se.Kind == StageErrorWarning:
		observability.WarnContext(stageCtx, "Stage finished with warnings", logfields.Duration(dur), logfields.Error(se.Err))
	default:
		observability.ErrorContext(stageCtx, "Stage failed", logfields.Duration(dur), logfields.Error(se.Err))
	}
	return se
}

package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/mailbuilder/internal/foundation/errors"
)

func ok(context.Context, *Report) error { return nil }

func fail(err error) Stage {
	return func(context.Context, *Report) error { return err }
}

func TestClassify(t *testing.T) {
	assert.Nil(t, classify(StageHTML, nil))

	warn := ferrors.StyleError("broken").Build()
	assert.Equal(t, StageErrorWarning, classify(StageStyles, warn).Kind)

	fatal := ferrors.RenderError("missing css").Build()
	assert.Equal(t, StageErrorFatal, classify(StageHTML, fatal).Kind)

	assert.Equal(t, StageErrorFatal, classify(StageHTML, errors.New("plain")).Kind)
	assert.Equal(t, StageErrorCanceled, classify(StageHTML, context.Canceled).Kind)

	se := &StageError{Kind: StageErrorWarning, Stage: StageMail, Err: errors.New("x")}
	assert.Same(t, se, classify(StageHTML, se))
}

func TestRunStages_WarningContinuesFatalStops(t *testing.T) {
	r := NewReport("test", "development", nil)
	ran := false
	err := runStages(context.Background(), r, []StageDef{
		{Name: StageStyles, Fn: fail(ferrors.StyleError("one file").Build())},
		{Name: StageHTML, Fn: fail(ferrors.RenderError("boom").Build())},
		{Name: StageMinify, Fn: func(context.Context, *Report) error { ran = true; return nil }},
	})
	require.Error(t, err)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageHTML, se.Stage)
	assert.False(t, ran)

	r.Finish()
	assert.Equal(t, OutcomeFailed, r.Outcome)
	assert.Len(t, r.Warnings, 1)
	assert.Len(t, r.Errors, 1)
	assert.NotContains(t, r.StageDurations, StageMinify)
}

func TestRunStages_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewReport("test", "development", nil)

	err := runStages(ctx, r, []StageDef{{Name: StageClean, Fn: ok}})
	require.Error(t, err)
	r.Finish()
	assert.Equal(t, OutcomeCanceled, r.Outcome)
	assert.Equal(t, 1, r.StageCounts[StageClean].Canceled)
}

func TestConcurrently_WaitsForAllAndReportsWorst(t *testing.T) {
	r := NewReport("test", "development", nil)
	done := make(chan struct{})
	group := Concurrently(
		StageDef{Name: StageAssets, Fn: func(context.Context, *Report) error { close(done); return nil }},
		StageDef{Name: StageHTML, Fn: func(context.Context, *Report) error {
			<-done
			return ferrors.RenderError("boom").Build()
		}},
	)
	assert.Equal(t, StageName("assets+html"), group.Name)

	err := runStages(context.Background(), r, []StageDef{group})
	require.Error(t, err)
	assert.Equal(t, 1, r.StageCounts[StageAssets].Success)
	assert.Equal(t, 1, r.StageCounts[StageHTML].Fatal)
	assert.NotContains(t, r.StageCounts, group.Name)
}

func TestReport_Summary(t *testing.T) {
	r := NewReport(TaskBuild, "production", nil)
	r.Count(func(c *Counts) { c.Pages = 3 })
	r.Finish()
	assert.Equal(t, OutcomeSuccess, r.Outcome)
	assert.Contains(t, r.Summary(), "task=build")
	assert.Contains(t, r.Summary(), "pages=3")
}

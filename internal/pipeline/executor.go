package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// QueryExecutor is the narrow warehouse boundary the core depends on.
// Execute runs a command (procedure call, DDL script). QueryScalar runs a
// query expected to return a single numeric value; ok is false when the
// query returned no row or a NULL.
type QueryExecutor interface {
	Execute(ctx context.Context, command string) error
	QueryScalar(ctx context.Context, query string) (value float64, ok bool, err error)
}

// ScriptSource provides the text of externally stored action scripts.
type ScriptSource interface {
	Load(name string) (string, error)
}

type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunAborted   RunStatus = "aborted"
)

// Run is the outcome of one full pipeline execution: every stage result in
// order, plus a single terminal status. An aborted run carries the index of
// the failed stage and the first failure as its cause.
type Run struct {
	ID        uuid.UUID
	Pipeline  string
	Status    RunStatus
	Stages    []StageResult
	Cause     error
	StartedOn time.Time
	EndedOn   time.Time

	// FailedStage is the zero-based index of the failed stage, -1 for a
	// completed run.
	FailedStage int
}

// Executor owns a fixed linear stage sequence for the duration of one run.
// Stages execute strictly in order; the first failure marks every remaining
// stage skipped and aborts the run. No stage is retried or re-entered.
type Executor struct {
	queries QueryExecutor
	scripts ScriptSource
}

func NewExecutor(queries QueryExecutor, scripts ScriptSource) *Executor {
	return &Executor{queries: queries, scripts: scripts}
}

func (e *Executor) Run(ctx context.Context, spec *PipelineSpec) *Run {
	run := &Run{
		ID:          uuid.New(),
		Pipeline:    spec.Name,
		Status:      RunCompleted,
		Stages:      make([]StageResult, len(spec.Stages)),
		StartedOn:   time.Now().UTC(),
		FailedStage: -1,
	}
	for i, stage := range spec.Stages {
		run.Stages[i] = StageResult{
			Name:   stage.Name,
			Kind:   stage.Kind(),
			Status: StagePending,
		}
	}

	for i, stage := range spec.Stages {
		run.Stages[i] = runStage(ctx, stage, e.queries, e.scripts)

		if run.Stages[i].Status == StageFailed {
			for j := i + 1; j < len(run.Stages); j++ {
				run.Stages[j].Status = StageSkipped
			}
			run.Status = RunAborted
			run.FailedStage = i
			run.Cause = run.Stages[i].Cause
			break
		}
	}

	run.EndedOn = time.Now().UTC()
	return run
}

package store

import (
	"context"
	"time"

	"github.com/haatos/simple-etl/internal/pipeline"
)

type RunStatus string

const (
	StatusQueued    RunStatus = "queued"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusAborted   RunStatus = "aborted"
)

type Run struct {
	RunID        int64      `json:"run_id"`
	RunUUID      string     `json:"run_uuid"`
	PipelineName string     `json:"pipeline_name"`
	Status       RunStatus  `json:"status"`
	FailedStage  *int64     `json:"failed_stage"`
	Cause        *string    `json:"cause"`
	CreatedOn    time.Time  `json:"created_on"`
	StartedOn    *time.Time `json:"started_on"`
	EndedOn      *time.Time `json:"ended_on"`
}

type StageResult struct {
	StageResultID int64   `json:"stage_result_id"`
	StageRunID    int64   `json:"stage_run_id"`
	Idx           int64   `json:"idx"`
	Name          string  `json:"name"`
	Kind          string  `json:"kind"`
	Status        string  `json:"status"`
	Cause         *string `json:"cause"`
}

type AssertionResult struct {
	AssertionResultID int64    `json:"assertion_result_id"`
	AssertionStageID  int64    `json:"assertion_stage_id"`
	Idx               int64    `json:"idx"`
	Name              string   `json:"name"`
	Comparator        string   `json:"comparator"`
	Expected          float64  `json:"expected"`
	Actual            *float64 `json:"actual"`
	Status            string   `json:"status"`
	Reason            *string  `json:"reason"`
}

// RunReport is one run read back with its full ordered stage and assertion
// detail, the persisted form of pipeline.Run.
type RunReport struct {
	Run        Run                         `json:"run"`
	Stages     []StageResult               `json:"stages"`
	Assertions map[int64][]AssertionResult `json:"assertions"`
}

type RunStore interface {
	CreateRun(context.Context, string, string) (*Run, error)
	ReadRunByID(context.Context, int64) (*Run, error)
	ReadRunReport(context.Context, int64) (*RunReport, error)
	UpdateRunStartedOn(context.Context, int64, RunStatus, *time.Time) error
	SaveRunResult(context.Context, int64, *pipeline.Run) error
	DeleteRun(context.Context, int64) error
	ListRuns(context.Context, int64, int64) ([]Run, error)
	CountRuns(context.Context) (int64, error)
}

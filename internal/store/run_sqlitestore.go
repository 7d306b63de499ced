package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/haatos/simple-etl/internal"
	"github.com/haatos/simple-etl/internal/pipeline"
	"github.com/haatos/simple-etl/internal/util"
)

type RunSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewRunSQLiteStore(rdb, rwdb *sql.DB) *RunSQLiteStore {
	return &RunSQLiteStore{rdb, rwdb}
}

func (store *RunSQLiteStore) CreateRun(
	ctx context.Context,
	runUUID, pipelineName string,
) (*Run, error) {
	r := &Run{
		RunUUID:      runUUID,
		PipelineName: pipelineName,
		Status:       StatusQueued,
	}
	query := `insert into runs (
		run_uuid,
		pipeline_name,
		status
	)
	values ($1, $2, $3)
	returning run_id, created_on`
	if err := sqlscan.Get(ctx, store.rwdb, r, query, r.RunUUID, r.PipelineName, r.Status); err != nil {
		return nil, err
	}
	return r, nil
}

func (store *RunSQLiteStore) ReadRunByID(ctx context.Context, id int64) (*Run, error) {
	r := &Run{RunID: id}
	query := "select * from runs where run_id = $1"
	if err := sqlscan.Get(ctx, store.rdb, r, query, r.RunID); err != nil {
		return nil, err
	}
	return r, nil
}

func (store *RunSQLiteStore) ReadRunReport(ctx context.Context, id int64) (*RunReport, error) {
	r, err := store.ReadRunByID(ctx, id)
	if err != nil {
		return nil, err
	}

	stages := make([]StageResult, 0)
	stageQuery := `select * from stage_results
	where stage_run_id = $1
	order by idx`
	if err := sqlscan.Select(ctx, store.rdb, &stages, stageQuery, id); err != nil {
		return nil, err
	}

	assertions := make([]AssertionResult, 0)
	assertionQuery := `select a.* from assertion_results a
	join stage_results s
	on a.assertion_stage_id = s.stage_result_id
	where s.stage_run_id = $1
	order by s.idx, a.idx`
	if err := sqlscan.Select(ctx, store.rdb, &assertions, assertionQuery, id); err != nil {
		return nil, err
	}

	report := &RunReport{
		Run:        *r,
		Stages:     stages,
		Assertions: make(map[int64][]AssertionResult),
	}
	for _, a := range assertions {
		report.Assertions[a.AssertionStageID] = append(report.Assertions[a.AssertionStageID], a)
	}
	return report, nil
}

func (store *RunSQLiteStore) UpdateRunStartedOn(
	ctx context.Context,
	id int64,
	status RunStatus,
	startedOn *time.Time,
) error {
	query := `update runs
	set status = $1,
		started_on = $2
	where run_id = $3`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		status,
		startedOn.Format(internal.DBTimestampLayout),
		id,
	)
	return err
}

// SaveRunResult persists the terminal state of one executed run: the run row
// plus every stage and assertion result, in one transaction.
func (store *RunSQLiteStore) SaveRunResult(
	ctx context.Context,
	id int64,
	run *pipeline.Run,
) error {
	tx, err := store.rwdb.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	status := StatusCompleted
	var failedStage *int64
	var cause *string
	if run.Status == pipeline.RunAborted {
		status = StatusAborted
		failedStage = util.AsPtr(int64(run.FailedStage))
		cause = util.AsPtr(run.Cause.Error())
	}

	runQuery := `update runs
	set status = $1,
		failed_stage = $2,
		cause = $3,
		ended_on = $4
	where run_id = $5`
	if _, err := tx.ExecContext(
		ctx, runQuery,
		status,
		failedStage,
		cause,
		run.EndedOn.Format(internal.DBTimestampLayout),
		id,
	); err != nil {
		return err
	}

	for i, stage := range run.Stages {
		if err := insertStageResult(ctx, tx, id, int64(i), stage); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertStageResult(
	ctx context.Context,
	tx *sql.Tx,
	runID, idx int64,
	stage pipeline.StageResult,
) error {
	var cause *string
	if stage.Cause != nil {
		cause = util.AsPtr(stage.Cause.Error())
	}
	query := `insert into stage_results (
		stage_run_id,
		idx,
		name,
		kind,
		status,
		cause
	)
	values ($1, $2, $3, $4, $5, $6)
	returning stage_result_id`
	var stageResultID int64
	if err := tx.QueryRowContext(
		ctx, query,
		runID, idx, stage.Name, stage.Kind, stage.Status, cause,
	).Scan(&stageResultID); err != nil {
		return err
	}

	for j, a := range stage.Assertions {
		var reason *string
		if a.Cause != nil {
			reason = util.AsPtr(a.Cause.Error())
		}
		assertionQuery := `insert into assertion_results (
			assertion_stage_id,
			idx,
			name,
			comparator,
			expected,
			actual,
			status,
			reason
		)
		values ($1, $2, $3, $4, $5, $6, $7, $8)`
		if _, err := tx.ExecContext(
			ctx, assertionQuery,
			stageResultID, int64(j), a.Name, string(a.Comparator),
			a.Expected, a.Actual, string(a.Status), reason,
		); err != nil {
			return err
		}
	}

	return nil
}

func (store *RunSQLiteStore) DeleteRun(ctx context.Context, id int64) error {
	query := "delete from runs where run_id = $1"
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}

func (store *RunSQLiteStore) ListRuns(
	ctx context.Context,
	limit, offset int64,
) ([]Run, error) {
	query := `select * from runs
	order by created_on desc limit $1 offset $2`
	runs := make([]Run, 0)
	err := sqlscan.Select(ctx, store.rdb, &runs, query, limit, offset)
	return runs, err
}

func (store *RunSQLiteStore) CountRuns(ctx context.Context) (int64, error) {
	var count int64
	query := `select count(*) from runs`
	err := sqlscan.Get(ctx, store.rdb, &count, query)
	return count, err
}

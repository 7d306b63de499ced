package service

import (
	"context"
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/haatos/simple-etl/internal/store"
	"github.com/stretchr/testify/suite"

	_ "modernc.org/sqlite"
)

const testPipelineYaml = `
pipeline: dwh_test

stages:
  - stage: load_bronze
    action:
      sql: CALL bronze.load_bronze();
  - stage: check_silver
    assertions:
      - name: duplicate customers
        query: select dup_customers
  - stage: create_gold_views
    action:
      sql: CALL gold.create_views();
`

type stubQueryExecutor struct {
	scalars  map[string]float64
	execErrs map[string]error
	executed []string
}

func (s *stubQueryExecutor) Execute(ctx context.Context, command string) error {
	s.executed = append(s.executed, command)
	return s.execErrs[command]
}

func (s *stubQueryExecutor) QueryScalar(ctx context.Context, query string) (float64, bool, error) {
	v, ok := s.scalars[query]
	return v, ok, nil
}

type pipelineServiceSuite struct {
	db      *sql.DB
	queries *stubQueryExecutor
	svc     *PipelineService
	suite.Suite
}

func TestPipelineService(t *testing.T) {
	suite.Run(t, new(pipelineServiceSuite))
}

func (suite *pipelineServiceSuite) SetupSuite() {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		log.Fatal(err)
	}
	suite.db = db
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		log.Fatal(err)
	}
	store.RunMigrations(db)

	pipelinesDir, err := os.MkdirTemp("", "pipelines")
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(
		filepath.Join(pipelinesDir, "dwh_test.yml"),
		[]byte(testPipelineYaml),
		0o644,
	); err != nil {
		log.Fatal(err)
	}

	suite.queries = &stubQueryExecutor{}
	suite.svc = NewPipelineService(
		store.NewRunSQLiteStore(db, db),
		suite.queries,
		nil,
		pipelinesDir,
	)
}

func (suite *pipelineServiceSuite) TearDownSuite() {
	_ = suite.db.Close()
}

func (suite *pipelineServiceSuite) SetupTest() {
	suite.queries.scalars = map[string]float64{"select dup_customers": 0}
	suite.queries.execErrs = map[string]error{}
	suite.queries.executed = nil
}

func (suite *pipelineServiceSuite) TestPipelineService_ListPipelines() {
	names, err := suite.svc.ListPipelines()
	suite.NoError(err)
	suite.Equal([]string{"dwh_test"}, names)
}

func (suite *pipelineServiceSuite) TestPipelineService_LoadPipeline() {
	suite.Run("success - spec loaded and validated", func() {
		spec, err := suite.svc.LoadPipeline("dwh_test")
		suite.NoError(err)
		suite.Equal("dwh_test", spec.Name)
		suite.Len(spec.Stages, 3)
	})
	suite.Run("failure - unknown pipeline", func() {
		spec, err := suite.svc.LoadPipeline("nope")
		suite.Nil(spec)
		suite.ErrorContains(err, "unknown pipeline")
	})
	suite.Run("failure - path traversal treated as unknown", func() {
		spec, err := suite.svc.LoadPipeline("../dwh_test")
		suite.Nil(spec)
		suite.ErrorContains(err, "unknown pipeline")
	})
}

func (suite *pipelineServiceSuite) TestPipelineService_QueueRun() {
	suite.Run("success - run recorded queued", func() {
		run, err := suite.svc.QueueRun(context.Background(), "dwh_test")
		suite.NoError(err)
		suite.Equal(store.StatusQueued, run.Status)
		suite.Equal("dwh_test", run.PipelineName)
	})
	suite.Run("failure - unknown pipeline never reaches the store", func() {
		run, err := suite.svc.QueueRun(context.Background(), "nope")
		suite.Nil(run)
		suite.ErrorContains(err, "unknown pipeline")
	})
}

func (suite *pipelineServiceSuite) TestPipelineService_ExecuteRun() {
	suite.Run("success - completed run persisted with full report", func() {
		// arrange
		run, err := suite.svc.QueueRun(context.Background(), "dwh_test")
		suite.NoError(err)

		// act
		err = suite.svc.ExecuteRun(context.Background(), run)

		// assert
		suite.NoError(err)
		report, err := suite.svc.GetRunReport(context.Background(), run.RunID)
		suite.NoError(err)
		suite.Equal(store.StatusCompleted, report.Run.Status)
		suite.Len(report.Stages, 3)
		suite.Equal(
			[]string{"CALL bronze.load_bronze();", "CALL gold.create_views();"},
			suite.queries.executed,
		)
	})
	suite.Run("success - aborted run persisted with cause and skipped stage", func() {
		// arrange
		suite.queries.scalars["select dup_customers"] = 2
		suite.queries.executed = nil
		run, err := suite.svc.QueueRun(context.Background(), "dwh_test")
		suite.NoError(err)

		// act
		err = suite.svc.ExecuteRun(context.Background(), run)

		// assert
		suite.NoError(err)
		report, err := suite.svc.GetRunReport(context.Background(), run.RunID)
		suite.NoError(err)
		suite.Equal(store.StatusAborted, report.Run.Status)
		suite.NotNil(report.Run.Cause)
		suite.Equal("duplicate customers: expected 0, got 2", *report.Run.Cause)
		suite.Equal("skipped", report.Stages[2].Status)
		// the gold action never ran
		suite.Equal([]string{"CALL bronze.load_bronze();"}, suite.queries.executed)
	})
}

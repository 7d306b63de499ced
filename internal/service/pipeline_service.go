package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/haatos/simple-etl/internal/pipeline"
	"github.com/haatos/simple-etl/internal/store"
	"github.com/haatos/simple-etl/internal/util"
)

type RunWriter interface {
	CreateRun(ctx context.Context, runUUID, pipelineName string) (*store.Run, error)
	UpdateRunStartedOn(ctx context.Context, id int64, status store.RunStatus, startedOn *time.Time) error
	SaveRunResult(ctx context.Context, id int64, run *pipeline.Run) error
	DeleteRun(ctx context.Context, id int64) error
}

type RunReader interface {
	ReadRunByID(ctx context.Context, id int64) (*store.Run, error)
	ReadRunReport(ctx context.Context, id int64) (*store.RunReport, error)
	ListRuns(ctx context.Context, limit, offset int64) ([]store.Run, error)
	CountRuns(ctx context.Context) (int64, error)
}

type RunStore interface {
	RunWriter
	RunReader
}

// PipelineService loads declarative pipeline specs from a directory, executes
// them against the warehouse through the core executor, and records each
// run's report in the run store.
type PipelineService struct {
	runStore     RunStore
	queries      pipeline.QueryExecutor
	scripts      pipeline.ScriptSource
	pipelinesDir string
}

func NewPipelineService(
	runStore RunStore,
	queries pipeline.QueryExecutor,
	scripts pipeline.ScriptSource,
	pipelinesDir string,
) *PipelineService {
	return &PipelineService{
		runStore:     runStore,
		queries:      queries,
		scripts:      scripts,
		pipelinesDir: pipelinesDir,
	}
}

func (s *PipelineService) ListPipelines() ([]string, error) {
	entries, err := os.ReadDir(s.pipelinesDir)
	if err != nil {
		return nil, fmt.Errorf("err reading pipelines directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yml" || ext == ".yaml" {
			names = append(names, strings.TrimSuffix(entry.Name(), ext))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *PipelineService) LoadPipeline(name string) (*pipeline.PipelineSpec, error) {
	if name != filepath.Base(name) {
		return nil, ErrUnknownPipeline{Name: name}
	}
	for _, ext := range []string{".yml", ".yaml"} {
		path := filepath.Join(s.pipelinesDir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return pipeline.LoadPipelineSpec(path)
		}
	}
	return nil, ErrUnknownPipeline{Name: name}
}

// QueueRun records a queued run for the named pipeline. The pipeline spec is
// validated up front so a broken yaml never reaches the queue.
func (s *PipelineService) QueueRun(ctx context.Context, name string) (*store.Run, error) {
	if _, err := s.LoadPipeline(name); err != nil {
		return nil, err
	}
	return s.runStore.CreateRun(ctx, uuid.NewString(), name)
}

// ExecuteRun performs one queued run end to end: marks it running, executes
// the stage sequence, and persists the terminal report. The returned error
// reports orchestration problems only; an aborted run is a normal outcome,
// captured in the saved report.
func (s *PipelineService) ExecuteRun(ctx context.Context, run *store.Run) error {
	spec, err := s.LoadPipeline(run.PipelineName)
	if err != nil {
		return err
	}

	run.Status = store.StatusRunning
	run.StartedOn = util.AsPtr(time.Now().UTC())
	if err := s.runStore.UpdateRunStartedOn(
		ctx, run.RunID, run.Status, run.StartedOn,
	); err != nil {
		return err
	}

	executor := pipeline.NewExecutor(s.queries, s.scripts)
	result := executor.Run(ctx, spec)

	return s.runStore.SaveRunResult(ctx, run.RunID, result)
}

func (s *PipelineService) GetRunByID(ctx context.Context, id int64) (*store.Run, error) {
	return s.runStore.ReadRunByID(ctx, id)
}

func (s *PipelineService) GetRunReport(ctx context.Context, id int64) (*store.RunReport, error) {
	return s.runStore.ReadRunReport(ctx, id)
}

func (s *PipelineService) ListRuns(ctx context.Context, limit, offset int64) ([]store.Run, error) {
	return s.runStore.ListRuns(ctx, limit, offset)
}

func (s *PipelineService) CountRuns(ctx context.Context) (int64, error) {
	return s.runStore.CountRuns(ctx)
}

package testutil

import (
	"context"

	"github.com/haatos/simple-etl/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockPipelineService struct {
	mock.Mock
}

func (m *MockPipelineService) ListPipelines() ([]string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockPipelineService) QueueRun(ctx context.Context, name string) (*store.Run, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Run), args.Error(1)
}

func (m *MockPipelineService) GetRunByID(ctx context.Context, id int64) (*store.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Run), args.Error(1)
}

func (m *MockPipelineService) GetRunReport(
	ctx context.Context,
	id int64,
) (*store.RunReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.RunReport), args.Error(1)
}

func (m *MockPipelineService) ListRuns(
	ctx context.Context,
	limit, offset int64,
) ([]store.Run, error) {
	args := m.Called(ctx, limit, offset)
	var runs []store.Run
	if args.Get(0) != nil {
		runs = args.Get(0).([]store.Run)
	}
	return runs, args.Error(1)
}

func (m *MockPipelineService) CountRuns(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

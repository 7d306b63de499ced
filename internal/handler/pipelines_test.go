package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/haatos/simple-etl/internal/service"
	"github.com/haatos/simple-etl/internal/store"
	"github.com/haatos/simple-etl/internal/util"
	"github.com/haatos/simple-etl/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRunEnqueuer struct {
	mock.Mock
}

func (m *mockRunEnqueuer) Enqueue(r *store.Run) error {
	args := m.Called(r)
	return args.Error(0)
}

func newTestContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(""))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestPipelineHandler_GetPipelines(t *testing.T) {
	t.Run("success - pipelines listed", func(t *testing.T) {
		// arrange
		svc := new(testutil.MockPipelineService)
		svc.On("ListPipelines").Return([]string{"dwh_medallion"}, nil)
		h := NewPipelineHandler(svc, nil)
		c, rec := newTestContext(http.MethodGet, "/api/pipelines")

		// act
		err := h.GetPipelines(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		var body map[string][]string
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, []string{"dwh_medallion"}, body["pipelines"])
	})
}

func TestPipelineHandler_PostPipelineRun(t *testing.T) {
	t.Run("success - run queued and accepted", func(t *testing.T) {
		// arrange
		run := &store.Run{RunID: 1, PipelineName: "dwh_medallion", Status: store.StatusQueued}
		svc := new(testutil.MockPipelineService)
		svc.On("QueueRun", mock.Anything, "dwh_medallion").Return(run, nil)
		queue := new(mockRunEnqueuer)
		queue.On("Enqueue", run).Return(nil)
		h := NewPipelineHandler(svc, queue)
		c, rec := newTestContext(http.MethodPost, "/api/pipelines/dwh_medallion/runs")
		c.SetParamNames("pipeline_name")
		c.SetParamValues("dwh_medallion")

		// act
		err := h.PostPipelineRun(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusAccepted, rec.Code)
		queue.AssertCalled(t, "Enqueue", run)
	})
	t.Run("failure - unknown pipeline is a 404", func(t *testing.T) {
		// arrange
		svc := new(testutil.MockPipelineService)
		svc.On("QueueRun", mock.Anything, "nope").
			Return(nil, service.ErrUnknownPipeline{Name: "nope"})
		h := NewPipelineHandler(svc, new(mockRunEnqueuer))
		c, _ := newTestContext(http.MethodPost, "/api/pipelines/nope/runs")
		c.SetParamNames("pipeline_name")
		c.SetParamValues("nope")

		// act
		err := h.PostPipelineRun(c)

		// assert
		httpErr, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusNotFound, httpErr.Code)
	})
	t.Run("failure - full queue is a 503", func(t *testing.T) {
		// arrange
		run := &store.Run{RunID: 2, PipelineName: "dwh_medallion", Status: store.StatusQueued}
		svc := new(testutil.MockPipelineService)
		svc.On("QueueRun", mock.Anything, "dwh_medallion").Return(run, nil)
		queue := new(mockRunEnqueuer)
		queue.On("Enqueue", run).Return(service.NewErrRunQueueFull())
		h := NewPipelineHandler(svc, queue)
		c, _ := newTestContext(http.MethodPost, "/api/pipelines/dwh_medallion/runs")
		c.SetParamNames("pipeline_name")
		c.SetParamValues("dwh_medallion")

		// act
		err := h.PostPipelineRun(c)

		// assert
		httpErr, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusServiceUnavailable, httpErr.Code)
	})
}

func TestPipelineHandler_GetRun(t *testing.T) {
	t.Run("failure - invalid run id", func(t *testing.T) {
		// arrange
		h := NewPipelineHandler(new(testutil.MockPipelineService), nil)
		c, _ := newTestContext(http.MethodGet, "/api/runs/abc")
		c.SetParamNames("run_id")
		c.SetParamValues("abc")

		// act
		err := h.GetRun(c)

		// assert
		httpErr, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	})
	t.Run("failure - missing run is a 404", func(t *testing.T) {
		// arrange
		svc := new(testutil.MockPipelineService)
		svc.On("GetRunByID", mock.Anything, int64(42)).Return(nil, sql.ErrNoRows)
		h := NewPipelineHandler(svc, nil)
		c, _ := newTestContext(http.MethodGet, "/api/runs/42")
		c.SetParamNames("run_id")
		c.SetParamValues("42")

		// act
		err := h.GetRun(c)

		// assert
		httpErr, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusNotFound, httpErr.Code)
	})
}

func TestPipelineHandler_GetRunReport(t *testing.T) {
	t.Run("success - report includes the flat ordered log", func(t *testing.T) {
		// arrange
		report := &store.RunReport{
			Run: store.Run{
				RunID:        7,
				PipelineName: "dwh_medallion",
				Status:       store.StatusAborted,
				FailedStage:  util.AsPtr(int64(0)),
				Cause:        util.AsPtr("duplicate customers: expected 0, got 2"),
			},
			Stages: []store.StageResult{
				{StageResultID: 1, Idx: 0, Name: "check_silver_quality", Kind: "quality_gate", Status: "failed"},
			},
			Assertions: map[int64][]store.AssertionResult{},
		}
		svc := new(testutil.MockPipelineService)
		svc.On("GetRunReport", mock.Anything, int64(7)).Return(report, nil)
		h := NewPipelineHandler(svc, nil)
		c, rec := newTestContext(http.MethodGet, "/api/runs/7/report")
		c.SetParamNames("run_id")
		c.SetParamValues("7")

		// act
		err := h.GetRunReport(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Log []string `json:"log"`
		}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, []string{
			"[1/1] check_silver_quality: failed",
			"run aborted at stage 1 (check_silver_quality): duplicate customers: expected 0, got 2",
		}, body.Log)
	})
}

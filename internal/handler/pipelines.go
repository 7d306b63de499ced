package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/haatos/simple-etl/internal/store"
	"github.com/labstack/echo/v4"
)

const maxRunsPerPage int64 = 20

type PipelineServicer interface {
	ListPipelines() ([]string, error)
	QueueRun(ctx context.Context, name string) (*store.Run, error)
	GetRunByID(ctx context.Context, id int64) (*store.Run, error)
	GetRunReport(ctx context.Context, id int64) (*store.RunReport, error)
	ListRuns(ctx context.Context, limit, offset int64) ([]store.Run, error)
	CountRuns(ctx context.Context) (int64, error)
}

type RunEnqueuer interface {
	Enqueue(r *store.Run) error
}

func SetupPipelineRoutes(
	g *echo.Group,
	pipelineService PipelineServicer,
	runQueue RunEnqueuer,
) {
	h := NewPipelineHandler(pipelineService, runQueue)
	g.GET("/api/pipelines", h.GetPipelines)
	g.POST("/api/pipelines/:pipeline_name/runs", h.PostPipelineRun)
	g.GET("/api/runs", h.GetRuns)
	g.GET("/api/runs/:run_id", h.GetRun)
	g.GET("/api/runs/:run_id/report", h.GetRunReport)
}

type PipelineHandler struct {
	pipelineService PipelineServicer
	runQueue        RunEnqueuer
}

func NewPipelineHandler(
	pipelineService PipelineServicer,
	runQueue RunEnqueuer,
) *PipelineHandler {
	return &PipelineHandler{pipelineService: pipelineService, runQueue: runQueue}
}

func (h *PipelineHandler) GetPipelines(c echo.Context) error {
	pipelines, err := h.pipelineService.ListPipelines()
	if err != nil {
		return newError(err, http.StatusInternalServerError, "unable to list pipelines")
	}
	return c.JSON(http.StatusOK, echo.Map{"pipelines": pipelines})
}

func (h *PipelineHandler) PostPipelineRun(c echo.Context) error {
	name := c.Param("pipeline_name")
	run, err := h.pipelineService.QueueRun(c.Request().Context(), name)
	if err != nil {
		if isUnknownPipelineError(err) {
			return newError(err, http.StatusNotFound, "pipeline not found")
		}
		return newError(err, http.StatusBadRequest, err.Error())
	}
	if err := h.runQueue.Enqueue(run); err != nil {
		return newError(err, http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusAccepted, run)
}

func (h *PipelineHandler) GetRuns(c echo.Context) error {
	limit := queryParamInt64(c, "limit", maxRunsPerPage)
	if limit > maxRunsPerPage {
		limit = maxRunsPerPage
	}
	offset := queryParamInt64(c, "offset", 0)

	runs, err := h.pipelineService.ListRuns(c.Request().Context(), limit, offset)
	if err != nil {
		return newError(err, http.StatusInternalServerError, "unable to list runs")
	}
	count, err := h.pipelineService.CountRuns(c.Request().Context())
	if err != nil {
		return newError(err, http.StatusInternalServerError, "unable to count runs")
	}
	return c.JSON(http.StatusOK, echo.Map{"runs": runs, "total": count})
}

func (h *PipelineHandler) GetRun(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("run_id"), 10, 64)
	if err != nil {
		return newError(err, http.StatusBadRequest, "invalid run id")
	}
	run, err := h.pipelineService.GetRunByID(c.Request().Context(), id)
	if err != nil {
		if sqlscan.NotFound(err) {
			return newError(err, http.StatusNotFound, "run not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to read run")
	}
	return c.JSON(http.StatusOK, run)
}

func (h *PipelineHandler) GetRunReport(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("run_id"), 10, 64)
	if err != nil {
		return newError(err, http.StatusBadRequest, "invalid run id")
	}
	report, err := h.pipelineService.GetRunReport(c.Request().Context(), id)
	if err != nil {
		if sqlscan.NotFound(err) {
			return newError(err, http.StatusNotFound, "run not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to read run report")
	}
	return c.JSON(http.StatusOK, echo.Map{"report": report, "log": report.Log()})
}

func queryParamInt64(c echo.Context, name string, defaultValue int64) int64 {
	v, err := strconv.ParseInt(c.QueryParam(name), 10, 64)
	if err != nil || v < 0 {
		return defaultValue
	}
	return v
}

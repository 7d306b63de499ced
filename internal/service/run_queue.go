package service

import (
	"context"
	"log"
	"sync"

	"github.com/haatos/simple-etl/internal/store"
)

func NewRunQueue(pipelineService *PipelineService, maxRuns int64) *RunQueue {
	return &RunQueue{
		pipelineService: pipelineService,
		queue:           make(chan *store.Run, maxRuns),
		done:            make(chan struct{}),
	}
}

// RunQueue drains queued runs one at a time. A single worker keeps runs
// strictly sequential against the shared warehouse session; the queue refuses
// new runs once full rather than blocking the caller.
type RunQueue struct {
	pipelineService *PipelineService

	queue chan *store.Run
	done  chan struct{}
	mu    sync.Mutex
}

func (rq *RunQueue) Enqueue(r *store.Run) error {
	select {
	case rq.queue <- r:
		return nil
	default:
		return NewErrRunQueueFull()
	}
}

func (rq *RunQueue) Run() {
	for {
		select {
		case run := <-rq.queue:
			if err := rq.pipelineService.ExecuteRun(context.Background(), run); err != nil {
				log.Printf("err processing run %d: %+v\n", run.RunID, err)
			}
		case <-rq.done:
			close(rq.queue)
			return
		}
	}
}

func (rq *RunQueue) Shutdown() {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	select {
	case <-rq.done:
	default:
		close(rq.done)
	}
}

package service

type ErrRunQueueFull struct{}

func (e ErrRunQueueFull) Error() string {
	return "run queue is full"
}

func NewErrRunQueueFull() *ErrRunQueueFull {
	return &ErrRunQueueFull{}
}

type ErrUnknownPipeline struct {
	Name string
}

func (e ErrUnknownPipeline) Error() string {
	return "unknown pipeline: " + e.Name
}

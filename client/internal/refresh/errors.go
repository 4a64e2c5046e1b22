package refresh

import (
	"errors"
	"fmt"
)

// ErrQueueFull reports transient back-pressure: the queue was full when
// Submit tried to enqueue a job.
var ErrQueueFull = errors.New("refresh queue full")

// ErrRunnerClosed reports a permanent condition: the runner has been stopped
// and will accept no further work.
var ErrRunnerClosed = errors.New("refresh runner closed")

// QueueFullError carries diagnostics while satisfying errors.Is(_, ErrQueueFull).
type QueueFullError struct {
	Length   int // queue length at timeout
	Capacity int // cap(queue)
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("refresh queue full (len=%d cap=%d)", e.Length, e.Capacity)
}

func (e *QueueFullError) Is(target error) bool { return target == ErrQueueFull }

// Package refresh provides a small background work-queue for detached cache
// refreshes. Jobs run on a single worker goroutine in submission order; the
// submitting caller never observes a job's result, only the ErrorHandler does.
package refresh

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/socialsense/socialsense-go/client/internal/apierrors"
)

type queuedJob struct {
	ctx context.Context
	job Job
}

// Runner executes Jobs on a single worker goroutine. Recoverable failures are
// retried with exponential backoff; auth/validation failures fail fast since
// retrying will not heal them.
type Runner struct {
	cfg   Config
	queue chan queuedJob

	done   chan struct{} // closed in Stop()
	closed uint32        // 0 running, 1 closed

	wg sync.WaitGroup
}

// NewRunner constructs the runner and starts its worker.
func NewRunner(cfg Config) *Runner {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 32
	}
	if cfg.EnqueueTimeout <= 0 {
		cfg.EnqueueTimeout = 100 * time.Millisecond
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 250 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 10 * time.Second
	}

	r := &Runner{
		cfg:   cfg,
		queue: make(chan queuedJob, cfg.QueueSize),
		done:  make(chan struct{}),
	}
	r.wg.Add(1)
	go r.runWorker()
	return r
}

// Submit enqueues job for background execution.
//
//   - Returns nil on success.
//   - Returns ErrRunnerClosed if the runner is stopped.
//   - Returns ErrQueueFull (wrapped in *QueueFullError) if the queue is still
//     full after EnqueueTimeout elapses.
//   - Returns ctx.Err() if the caller-provided context is cancelled first.
func (r *Runner) Submit(ctx context.Context, job Job) error {
	if atomic.LoadUint32(&r.closed) == 1 {
		return ErrRunnerClosed
	}
	select {
	case <-r.done:
		return ErrRunnerClosed
	default:
	}

	timer := time.NewTimer(r.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case r.queue <- queuedJob{ctx: ctx, job: job}:
		submissionsTotal.Inc()
		return nil
	case <-r.done:
		return ErrRunnerClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		queueFullTotal.Inc()
		return &QueueFullError{Length: len(r.queue), Capacity: cap(r.queue)}
	}
}

// Stop signals the worker to finish draining its queue, waits for it to
// terminate, then returns. Idempotent and safe for concurrent use.
func (r *Runner) Stop() {
	if !atomic.CompareAndSwapUint32(&r.closed, 0, 1) {
		return
	}
	close(r.done)
	r.wg.Wait()
}

// Close lets Runner satisfy io.Closer.
func (r *Runner) Close() error {
	r.Stop()
	return nil
}

func (r *Runner) runWorker() {
	defer r.wg.Done()

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("refresh worker panic")
		}
	}()

	for {
		select {
		case qj := <-r.queue:
			r.runJob(qj)
			queueDepth.Set(float64(len(r.queue)))

		case <-r.done:
			// Drain remaining jobs in order, then exit.
			for {
				select {
				case qj := <-r.queue:
					r.runJob(qj)
				default:
					queueDepth.Set(0)
					return
				}
			}
		}
	}
}

func (r *Runner) runJob(qj queuedJob) {
	if qj.job == nil {
		return
	}
	// Honour the caller context so a cancelled job doesn't stall the queue.
	select {
	case <-qj.ctx.Done():
		r.safeHandleError(qj.ctx.Err())
		return
	default:
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.cfg.BaseBackoff
	exp.Multiplier = 2
	exp.MaxInterval = r.cfg.MaxInterval
	exp.Reset()

	for attempt := 1; ; attempt++ {
		start := time.Now()
		err := qj.job.Run(qj.ctx)
		runDuration.Observe(time.Since(start).Seconds())

		if err == nil {
			return
		}
		if apierrors.Irrecoverable(err) || attempt >= r.cfg.MaxAttempts {
			r.safeHandleError(err)
			return
		}

		select {
		case <-time.After(exp.NextBackOff()):
		case <-r.done:
			r.safeHandleError(err)
			return
		case <-qj.ctx.Done():
			r.safeHandleError(qj.ctx.Err())
			return
		}
	}
}

func (r *Runner) safeHandleError(err error) {
	if err == nil || r.cfg.ErrorHandler == nil {
		return
	}
	func() {
		// Guard against panics in the user-supplied handler.
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Msg("refresh error handler panic")
			}
		}()
		r.cfg.ErrorHandler(err)
	}()
}

package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/socialsense/socialsense-go/client/internal/apierrors"
)

func testConfig() Config {
	return Config{
		QueueSize:      8,
		EnqueueTimeout: 50 * time.Millisecond,
		MaxAttempts:    3,
		BaseBackoff:    time.Millisecond,
		MaxInterval:    5 * time.Millisecond,
	}
}

func TestRunner_ExecutesSubmittedJobs(t *testing.T) {
	r := NewRunner(testConfig())
	defer r.Stop()

	var ran int32
	done := make(chan struct{})
	err := r.Submit(context.Background(), JobFunc(func(context.Context) error {
		atomic.AddInt32(&ran, 1)
		close(done)
		return nil
	}))
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
	if atomic.LoadInt32(&ran) != 1 {
		t.Fatalf("job ran %d times", ran)
	}
}

func TestRunner_PreservesSubmissionOrder(t *testing.T) {
	r := NewRunner(testConfig())

	var mu sync.Mutex
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		if err := r.Submit(context.Background(), JobFunc(func(context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}
	r.Stop() // waits for the drain

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 5 {
		t.Fatalf("ran %d jobs, want 5", len(order))
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("order = %v", order)
		}
	}
}

func TestRunner_RetriesRecoverableFailures(t *testing.T) {
	cfg := testConfig()
	handled := make(chan error, 1)
	cfg.ErrorHandler = func(err error) { handled <- err }
	r := NewRunner(cfg)
	defer r.Stop()

	var attempts int32
	done := make(chan struct{})
	_ = r.Submit(context.Background(), JobFunc(func(context.Context) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}))

	select {
	case <-done:
	case err := <-handled:
		t.Fatalf("job gave up: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Fatalf("attempts = %d, want 3", got)
	}
}

func TestRunner_ExhaustedRetriesReachErrorHandler(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAttempts = 2
	handled := make(chan error, 1)
	cfg.ErrorHandler = func(err error) { handled <- err }
	r := NewRunner(cfg)
	defer r.Stop()

	var attempts int32
	sentinel := errors.New("still broken")
	_ = r.Submit(context.Background(), JobFunc(func(context.Context) error {
		atomic.AddInt32(&attempts, 1)
		return sentinel
	}))

	select {
	case err := <-handled:
		if !errors.Is(err, sentinel) {
			t.Fatalf("handler got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("error handler never called")
	}
	if got := atomic.LoadInt32(&attempts); got != 2 {
		t.Fatalf("attempts = %d, want MaxAttempts", got)
	}
}

func TestRunner_AuthFailureFailsFast(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAttempts = 5
	handled := make(chan error, 1)
	cfg.ErrorHandler = func(err error) { handled <- err }
	r := NewRunner(cfg)
	defer r.Stop()

	var attempts int32
	_ = r.Submit(context.Background(), JobFunc(func(context.Context) error {
		atomic.AddInt32(&attempts, 1)
		return apierrors.Auth("refresh", "token rejected")
	}))

	select {
	case <-handled:
	case <-time.After(2 * time.Second):
		t.Fatal("error handler never called")
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Fatalf("attempts = %d, auth failures must not retry", got)
	}
}

func TestRunner_SubmitAfterStop(t *testing.T) {
	r := NewRunner(testConfig())
	r.Stop()

	err := r.Submit(context.Background(), JobFunc(func(context.Context) error { return nil }))
	if !errors.Is(err, ErrRunnerClosed) {
		t.Fatalf("want ErrRunnerClosed, got %v", err)
	}
}

func TestRunner_QueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.QueueSize = 1
	cfg.EnqueueTimeout = 20 * time.Millisecond
	r := NewRunner(cfg)
	defer r.Stop()

	release := make(chan struct{})
	blocker := JobFunc(func(context.Context) error {
		<-release
		return nil
	})
	defer close(release)

	// First job occupies the worker, second fills the queue slot; the third
	// must time out.
	_ = r.Submit(context.Background(), blocker)
	_ = r.Submit(context.Background(), blocker)
	time.Sleep(10 * time.Millisecond)

	var err error
	for i := 0; i < 3; i++ {
		err = r.Submit(context.Background(), blocker)
		if err != nil {
			break
		}
	}
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("want ErrQueueFull, got %v", err)
	}
	var qf *QueueFullError
	if !errors.As(err, &qf) {
		t.Fatalf("want *QueueFullError, got %T", err)
	}
}

func TestRunner_SubmitHonoursCallerContext(t *testing.T) {
	cfg := testConfig()
	cfg.QueueSize = 1
	cfg.EnqueueTimeout = time.Minute // force the context to win the race
	r := NewRunner(cfg)
	defer r.Stop()

	release := make(chan struct{})
	blocker := JobFunc(func(context.Context) error {
		<-release
		return nil
	})
	defer close(release)

	_ = r.Submit(context.Background(), blocker)
	_ = r.Submit(context.Background(), blocker)
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	var err error
	for i := 0; i < 3; i++ {
		err = r.Submit(ctx, blocker)
		if err != nil {
			break
		}
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want context deadline, got %v", err)
	}
}

func TestRunner_StopDrainsQueue(t *testing.T) {
	r := NewRunner(testConfig())

	var ran int32
	for i := 0; i < 6; i++ {
		if err := r.Submit(context.Background(), JobFunc(func(context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		})); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}
	r.Stop()

	if got := atomic.LoadInt32(&ran); got != 6 {
		t.Fatalf("drained %d jobs, want 6", got)
	}
}

func TestRunner_StopIdempotent(t *testing.T) {
	r := NewRunner(testConfig())
	r.Stop()
	r.Stop()
	if err := r.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
}

func TestRunner_PanickingErrorHandlerDoesNotKillWorker(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAttempts = 1
	cfg.ErrorHandler = func(error) { panic("handler bug") }
	r := NewRunner(cfg)
	defer r.Stop()

	_ = r.Submit(context.Background(), JobFunc(func(context.Context) error {
		return errors.New("boom")
	}))

	done := make(chan struct{})
	_ = r.Submit(context.Background(), JobFunc(func(context.Context) error {
		close(done)
		return nil
	}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker died after handler panic")
	}
}

// Package workerpool runs units of work on a bounded set of goroutines and hands
// callers a Future that resolves exactly once.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/semaphore"

	"docsearch-backend/internal/shared/telemetry"
)

const defaultConcurrency = 4

// ErrClosed is returned by futures submitted after Close.
var ErrClosed = errors.New("worker pool closed")

// Pool bounds the number of jobs running at once.
type Pool struct {
	sem  *semaphore.Weighted
	size int

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a pool running at most concurrency jobs at a time.
func New(concurrency int) *Pool {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(concurrency)),
		size: concurrency,
	}
}

// Size reports the configured concurrency.
func (p *Pool) Size() int { return p.size }

// Future is a handle to the result of a submitted job.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(value T, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Done is closed once the job has completed or failed.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until the job resolves or ctx ends. Giving up on the wait does not cancel the job.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Submit schedules fn on the pool. The job runs with a context detached from the
// caller's cancellation, so once accepted it runs to completion or failure.
func Submit[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) *Future[T] {
	fut := newFuture[T]()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		var zero T
		fut.resolve(zero, ErrClosed)
		return fut
	}
	p.wg.Add(1)
	p.mu.Unlock()

	jobCtx := context.WithoutCancel(ctx)
	go func() {
		defer p.wg.Done()
		if err := p.sem.Acquire(jobCtx, 1); err != nil {
			var zero T
			fut.resolve(zero, err)
			return
		}
		defer p.sem.Release(1)
		value, err := runJob(jobCtx, fn)
		fut.resolve(value, err)
	}()
	return fut
}

func runJob[T any](ctx context.Context, fn func(context.Context) (T, error)) (value T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			telemetry.Error("workerpool.panic", map[string]any{
				"error": fmt.Sprint(rec),
				"stack": string(debug.Stack()),
			})
			var zero T
			value = zero
			err = fmt.Errorf("job panic: %v", rec)
		}
	}()
	return fn(ctx)
}

// Close stops accepting work and waits for in-flight jobs until ctx ends.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	waitDone := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

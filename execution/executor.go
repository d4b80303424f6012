package execution

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// An Executor runs listener notifications on background goroutines,
// bounded to a maximum concurrency. Notifications never run on the
// goroutine that triggered them, so callers may hold locks while
// submitting.
type Executor struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// CreateExecutor is a factory for Executors with the given maximum
// concurrency
func CreateExecutor(maxConcurrency int64) *Executor {
	return &Executor{
		sem: semaphore.NewWeighted(maxConcurrency),
	}
}

// Execute runs fn on a background goroutine, waiting for capacity if the
// concurrency bound has been reached
func (e *Executor) Execute(fn func()) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.sem.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer e.sem.Release(1)
		fn()
	}()
}

// Shutdown blocks until all submitted notifications have finished
func (e *Executor) Shutdown() {
	e.wg.Wait()
}

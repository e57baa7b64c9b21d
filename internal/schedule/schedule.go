// Package schedule applies a worker function to a list of paths with a
// bounded number of tasks in flight at once.
package schedule

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultWorkers returns the number of hardware threads, the scheduler's
// default concurrency when a caller doesn't override it.
func DefaultWorkers() int64 {
	return int64(runtime.NumCPU())
}

// Run applies worker to each item in items, holding at most weight tasks
// in flight. Task start order matches items order; completion order is
// unspecified. onComplete is invoked once per finished task, observing
// completion order, and onProgress once per finished task with a
// monotone done count. Both callbacks are optional and panic-swallowed:
// a callback that panics never aborts the run.
//
// If ctx is cancelled, no further tasks are launched; already in-flight
// tasks run to completion and their results are still delivered.
func Run[T any](ctx context.Context, items []string, weight int64, worker func(item string) T, onComplete func(item string, result T), onProgress func(done, total int)) {
	if weight <= 0 {
		weight = DefaultWorkers()
	}

	sem := semaphore.NewWeighted(weight)
	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0
	total := len(items)

	for _, item := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)
		go func(item string) {
			defer wg.Done()
			defer sem.Release(1)

			result := worker(item)

			mu.Lock()
			done++
			d := done
			safeCall(func() {
				if onComplete != nil {
					onComplete(item, result)
				}
			})
			safeCall(func() {
				if onProgress != nil {
					onProgress(d, total)
				}
			})
			mu.Unlock()
		}(item)
	}

	wg.Wait()
}

func safeCall(f func()) {
	defer func() { recover() }()
	f()
}

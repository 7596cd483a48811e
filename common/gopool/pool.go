// Package gopool runs short lived background jobs, such as trace prefetches,
// on a shared ants worker pool.
package gopool

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

// Init a instance pool when importing ants.
var defaultPool, _ = ants.NewPool(ants.DefaultAntsPoolSize, ants.WithExpiryDuration(10*time.Second))

// Task is a unit of work run by Run.
type Task func(ctx context.Context) error

// Submit submits a task to pool.
func Submit(task func()) error {
	return defaultPool.Submit(task)
}

// Running returns the number of the currently running goroutines.
func Running() int {
	return defaultPool.Running()
}

// Run executes the tasks concurrently on the pool and waits for all of them.
// The context handed to the tasks is cancelled as soon as one fails; the
// returned error joins every task failure.
func Run(ctx context.Context, tasks ...Task) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
		cancel()
	}
	for _, task := range tasks {
		task := task
		wg.Add(1)
		err := Submit(func() {
			defer wg.Done()
			if err := task(ctx); err != nil {
				fail(err)
			}
		})
		if err != nil {
			wg.Done()
			fail(err)
		}
	}
	wg.Wait()
	return errors.Join(errs...)
}

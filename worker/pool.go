// Package worker is the fixed size task pool used to record renderers concurrently.
package worker

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// Task is one unit of recording work. It must not touch state shared with other tasks.
type Task func() error

// Pool fans tasks out to long lived workers and joins them. Workers are reused across
// frames, so Run costs no goroutine spawns.
type Pool struct {
	workers int
	pool    worker.DynamicWorkerPool
	nextID  int
	mu      sync.Mutex
}

// NewPool starts a pool with the given number of workers. Zero or less means one per CPU.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		workers: workers,
		pool:    worker.NewDynamicWorkerPool(workers, workers*4, time.Second),
	}
}

func (p *Pool) Size() int { return p.workers }

// Run submits every task and blocks until all of them returned. The returned error
// joins task errors in submission order, independent of completion order.
//
// The pool's own Wait only returns once workers idle out, which never happens at frame
// rate, so a WaitGroup is the barrier.
func (p *Pool) Run(tasks ...Task) error {
	if len(tasks) == 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		p.nextID++
		p.pool.SubmitTask(worker.Task{
			ID: p.nextID,
			Do: func() (any, error) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						errs[i] = fmt.Errorf("task %d panicked: %v", i, r)
					}
				}()
				errs[i] = task()
				return nil, errs[i]
			},
		})
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Close stops the workers. The pool must not be used afterwards.
func (p *Pool) Close() {
	p.pool.Stop()
}

// Package parallel provides a bounded worker pool for solving batches
// of independent WSP instances. Instances share no state, so the pool
// needs no coordination beyond scheduling: each task owns its own
// search state end to end.
package parallel

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// ErrPoolShutdown is returned by Submit after Shutdown has been
// called.
var ErrPoolShutdown = errors.New("worker pool has been shut down")

// Pool runs solve tasks on a fixed set of workers, blocking Submit
// when every worker is busy to keep a directory scan from outrunning
// the solvers.
type Pool struct {
	tasks    chan func()
	workers  sync.WaitGroup
	shutdown chan struct{}
	once     sync.Once
}

// New creates a pool with the given number of workers. Zero or
// negative means one worker per CPU core.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &Pool{
		tasks:    make(chan func(), workers),
		shutdown: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.workers.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.workers.Done()
	for {
		select {
		case task := <-p.tasks:
			if task != nil {
				task()
			}
		case <-p.shutdown:
			// Drain whatever was queued before exiting.
			for {
				select {
				case task := <-p.tasks:
					if task != nil {
						task()
					}
				default:
					return
				}
			}
		}
	}
}

// Submit queues a task, blocking until a worker can take it, the
// context ends, or the pool shuts down.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	select {
	case <-p.shutdown:
		return ErrPoolShutdown
	default:
	}
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.shutdown:
		return ErrPoolShutdown
	}
}

// Shutdown stops the workers after they finish the queued tasks and
// blocks until they exit.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		close(p.shutdown)
	})
	p.workers.Wait()
}

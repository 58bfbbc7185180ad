// Package parallel provides a worker pool for splitting pixel work across
// CPU cores.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a fixed set of worker goroutines fed from a shared queue.
//
// It is sized for coarse-grained work: a raster is split into a small
// number of row bands and each band is one task, so a shared channel is
// contended far less often than tasks run.
//
// Pool is safe for concurrent use.
type Pool struct {
	workers int
	tasks   chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewPool creates a pool with the given number of workers and starts them.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		workers: workers,
		tasks:   make(chan func(), workers*4),
		done:    make(chan struct{}),
	}
	p.running.Store(true)
	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			// Drain queued work before exiting so Run never deadlocks
			// against a concurrent Close.
			for {
				select {
				case task := <-p.tasks:
					task()
				default:
					return
				}
			}
		case task := <-p.tasks:
			task()
		}
	}
}

// Run executes all tasks on the pool and waits for them to complete.
// If the pool is closed, tasks run on the calling goroutine instead.
func (p *Pool) Run(tasks []func()) {
	if len(tasks) == 0 {
		return
	}
	if !p.running.Load() {
		for _, task := range tasks {
			task()
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for _, task := range tasks {
		task := task
		select {
		case p.tasks <- func() { defer wg.Done(); task() }:
		case <-p.done:
			// Pool is closing; run inline.
			task()
			wg.Done()
		}
	}
	wg.Wait()
}

// ForEachBand splits [0, n) into roughly equal contiguous bands, at most
// one per worker, and runs fn(lo, hi) for each band in parallel. It
// returns after every band has completed. n <= 0 is a no-op.
func (p *Pool) ForEachBand(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	bands := p.workers
	if bands > n {
		bands = n
	}
	if bands == 1 {
		fn(0, n)
		return
	}

	size := (n + bands - 1) / bands
	tasks := make([]func(), 0, bands)
	for lo := 0; lo < n; lo += size {
		lo, hi := lo, lo+size
		if hi > n {
			hi = n
		}
		tasks = append(tasks, func() { fn(lo, hi) })
	}
	p.Run(tasks)
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int { return p.workers }

// Close stops the workers after draining queued work. Tasks submitted
// after Close run on the caller's goroutine. Close is safe to call more
// than once.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

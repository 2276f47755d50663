// Package parallel provides the background worker pool that runs
// pipeline compilations off the frame loop.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool runs submitted jobs on a fixed set of goroutines.
//
// Jobs are queued in submission order on an unbounded queue, so Submit
// never blocks the caller. A job that panics is recovered and reported to
// the pool's panic handler; the worker keeps running.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int

	mu      sync.Mutex
	ready   *sync.Cond // signaled when work is queued or the pool closes
	idle    *sync.Cond // broadcast when pending drops to zero
	queue   []func()
	pending int // queued plus running jobs
	closed  bool

	wg sync.WaitGroup

	running   atomic.Bool
	completed atomic.Uint64
	onPanic   func(any)
}

// NewWorkerPool creates a new worker pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
// The pool starts immediately and workers begin waiting for work.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &WorkerPool{workers: workers}
	p.ready = sync.NewCond(&p.mu)
	p.idle = sync.NewCond(&p.mu)
	p.running.Store(true)

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}

	return p
}

// SetPanicHandler installs fn to receive values recovered from panicking
// jobs. It must be called before the first Submit.
func (p *WorkerPool) SetPanicHandler(fn func(any)) {
	p.onPanic = fn
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.ready.Wait()
		}
		if len(p.queue) == 0 {
			// Closed and drained.
			p.mu.Unlock()
			return
		}
		job := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.run(job)

		p.mu.Lock()
		p.pending--
		if p.pending == 0 {
			p.idle.Broadcast()
		}
		p.mu.Unlock()
	}
}

func (p *WorkerPool) run(job func()) {
	defer func() {
		if r := recover(); r != nil && p.onPanic != nil {
			p.onPanic(r)
		}
	}()
	job()
	p.completed.Add(1)
}

// Submit queues fn for execution and reports whether it was accepted.
// Submit never blocks; it returns false once the pool is closed.
func (p *WorkerPool) Submit(fn func()) bool {
	if fn == nil {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	p.queue = append(p.queue, fn)
	p.pending++
	p.ready.Signal()
	return true
}

// Wait blocks until every submitted job has finished.
func (p *WorkerPool) Wait() {
	p.mu.Lock()
	for p.pending > 0 {
		p.idle.Wait()
	}
	p.mu.Unlock()
}

// Close gracefully shuts down the pool.
// It stops accepting new work, waits for all queued work to complete,
// and then stops all workers.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}

	p.mu.Lock()
	p.closed = true
	p.ready.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}

// Pending returns the number of queued or running jobs.
func (p *WorkerPool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// Completed returns the number of jobs that finished without panicking.
func (p *WorkerPool) Completed() uint64 {
	return p.completed.Load()
}

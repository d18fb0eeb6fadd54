package pooler

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrStopped is returned by Run, RunWith and Stop once the pool has
// been stopped.
var ErrStopped = errors.New("pooler: pool stopped")

// Callback is the unit of work executed by every worker during one
// dispatch. It receives the worker's identity (0..Workers()-1) and the
// shared data value passed to RunWith.
type Callback[T any] func(worker int, data T)

type phase int

const (
	phaseIdle phase = iota
	phaseDispatched
	phaseStopping
)

// Pool is a fixed-size worker pool with synchronous dispatch: every
// worker runs the same callback once per dispatch, and the dispatching
// caller blocks until all of them have finished.
type Pool[T any] struct {
	workers int
	opts    Options
	wg      sync.WaitGroup

	// dispatchMu serializes external callers of Run/RunWith/Stop, so
	// at most one dispatch is ever in flight.
	dispatchMu sync.Mutex

	// mu guards everything below. The three condition variables share
	// it, which gives the publish-before-signal ordering the barrier
	// protocol needs: a worker cannot observe a phase change, or
	// signal completion, while the dispatcher holds mu.
	mu     sync.Mutex
	ready  *sync.Cond // a worker reached the idle barrier
	action *sync.Cond // phase changed
	done   *sync.Cond // a worker finished the current callback

	phase     phase
	waiting   int // workers blocked at the ready barrier
	completed int // workers finished with the current callback
	stopped   bool

	// Current dispatch. Valid only while phase == phaseDispatched;
	// cleared afterwards so a later zero-context dispatch can never
	// observe stale data.
	job    Callback[T]
	data   T
	faults []error
}

// New creates a pool and spawns the given number of workers. Workers
// park at the ready barrier immediately; the first dispatch waits for
// all of them to arrive there. Panics if workers is not positive.
func New[T any](workers int) *Pool[T] {
	return NewWithOptions[T](Options{Workers: workers})
}

// NewWithOptions creates a pool from an Options value.
func NewWithOptions[T any](opts Options) *Pool[T] {
	if opts.Workers <= 0 {
		panic("pooler: worker count must be positive")
	}

	p := &Pool[T]{
		workers: opts.Workers,
		opts:    opts,
	}
	p.ready = sync.NewCond(&p.mu)
	p.action = sync.NewCond(&p.mu)
	p.done = sync.NewCond(&p.mu)

	if p.opts.Metrics != nil {
		p.opts.Metrics.WorkerCount.Set(float64(p.workers))
	}

	p.wg.Add(p.workers)
	for id := 0; id < p.workers; id++ {
		go p.worker(id)
	}
	return p
}

// Workers returns the fixed worker count.
func (p *Pool[T]) Workers() int {
	return p.workers
}

// Run dispatches the callback with the zero value of T as shared data.
// See RunWith.
func (p *Pool[T]) Run(cb Callback[T]) error {
	var zero T
	return p.RunWith(zero, cb)
}

// RunWith executes cb once on every worker, all concurrently, and
// blocks until the last invocation has returned. On return each worker
// identity has run cb exactly once with the same data value.
//
// The pool never copies or retains data beyond the call; the caller
// must keep whatever it references alive and, if workers write to it,
// arrange their own synchronization inside cb.
//
// Panics raised inside cb are recovered per worker and reported in the
// returned error, one entry per panicking worker. The pool remains
// usable afterwards. A cb that never returns blocks RunWith forever.
func (p *Pool[T]) RunWith(data T, cb Callback[T]) error {
	p.dispatchMu.Lock()
	defer p.dispatchMu.Unlock()

	if p.opts.Hooks.OnDispatch != nil {
		p.opts.Hooks.OnDispatch()
	}
	start := time.Now()

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrStopped
	}

	// Ready barrier: a previous dispatch may still be winding down.
	for p.waiting != p.workers {
		p.ready.Wait()
	}

	// Publish the job, then flip the phase. Workers read both under
	// mu, so they can never see the phase change before the job.
	p.waiting = 0
	p.completed = 0
	p.faults = nil
	p.job = cb
	p.data = data
	p.phase = phaseDispatched
	p.action.Broadcast()

	// Completion barrier.
	for p.completed != p.workers {
		p.done.Wait()
	}

	// Reset and release the workers back to the ready barrier.
	var zero T
	p.job = nil
	p.data = zero
	p.phase = phaseIdle
	p.action.Broadcast()

	faults := p.faults
	p.faults = nil
	p.mu.Unlock()

	if p.opts.Metrics != nil {
		p.opts.Metrics.Dispatches.Inc()
		p.opts.Metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	}
	return errors.Join(faults...)
}

// Stop waits for any in-flight dispatch to finish, tells every worker
// to exit and joins them. After Stop returns no worker goroutine is
// left running. Further Run, RunWith or Stop calls return ErrStopped.
func (p *Pool[T]) Stop() error {
	p.dispatchMu.Lock()
	defer p.dispatchMu.Unlock()

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrStopped
	}

	for p.waiting != p.workers {
		p.ready.Wait()
	}

	p.stopped = true
	p.phase = phaseStopping
	p.action.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()

	if p.opts.Metrics != nil {
		p.opts.Metrics.WorkerCount.Set(0)
	}
	return nil
}

// worker is the loop every pool goroutine runs for its lifetime.
func (p *Pool[T]) worker(id int) {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		p.waiting++
		p.ready.Broadcast()

		for p.phase == phaseIdle {
			p.action.Wait()
		}
		if p.phase == phaseStopping {
			p.mu.Unlock()
			return
		}
		cb, data := p.job, p.data
		p.mu.Unlock()

		err := p.invoke(id, cb, data)

		if p.opts.Hooks.OnWorkerDone != nil {
			p.opts.Hooks.OnWorkerDone(id)
		}

		p.mu.Lock()
		if err != nil {
			p.faults = append(p.faults, err)
		}
		p.completed++
		p.done.Broadcast()

		// Stay parked until the dispatcher has reset the phase, so
		// this worker cannot race ahead into the next ready barrier
		// while the current dispatch is still being observed.
		for p.phase == phaseDispatched {
			p.action.Wait()
		}
		p.mu.Unlock()
	}
}

// invoke runs the callback with panic recovery.
func (p *Pool[T]) invoke(id int, cb Callback[T], data T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pooler: worker %d panicked: %v", id, r)
			if p.opts.Metrics != nil {
				p.opts.Metrics.CallbackPanics.Inc()
			}
			if p.opts.Hooks.OnPanic != nil {
				p.opts.Hooks.OnPanic(id, err)
			}
		}
	}()

	if p.opts.Metrics != nil {
		p.opts.Metrics.WorkersBusy.Inc()
		defer p.opts.Metrics.WorkersBusy.Dec()
	}

	cb(id, data)
	return nil
}

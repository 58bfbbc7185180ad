// Package sched turns generation requests into at-most-one in-flight
// unit of work per (asset, resolution class) key, ordered by priority.
package sched

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/tesla3327/literoom/cache"
	"github.com/tesla3327/literoom/internal/logging"
	"github.com/tesla3327/literoom/raster"
)

// GenerateFunc produces the raster for a request. It runs off the
// scheduler's control path; the context is cancelled when the scheduler
// closes. A nil handle with a nil error is treated as a failure.
type GenerateFunc func(ctx context.Context) (cache.Handle, error)

// Callback receives the result of a request. A nil handle means the
// generation failed. Callbacks for one key fire in registration order.
type Callback func(cache.Handle)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClassBudget sets how many generations of one resolution class may
// run concurrently. The default is 1, bounding memory pressure from
// simultaneous large rasters.
func WithClassBudget(n int64) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.budget = n
		}
	}
}

// WithLogger sets the scheduler's logger. Silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// Scheduler owns the request queues. Each resolution class dispatches
// independently, so visible thumbnails are never stuck behind queued
// preview work.
type Scheduler struct {
	mu      sync.Mutex
	pending map[cache.Key]*request
	queues  [raster.NumClasses]requestHeap
	wake    [raster.NumClasses]chan struct{}
	seq     uint64

	budget int64
	sems   [raster.NumClasses]*semaphore.Weighted
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// New creates a scheduler and starts its per-class dispatch loops.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		pending: make(map[cache.Key]*request),
		budget:  1,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	for class := range s.queues {
		s.wake[class] = make(chan struct{}, 1)
		s.sems[class] = semaphore.NewWeighted(s.budget)
		s.wg.Add(1)
		go s.dispatchLoop(raster.ResolutionClass(class))
	}
	return s
}

// Submit registers work for a key. If a live request exists, the new
// callback joins it and the priority is raised to the stronger of the
// two, never lowered; queued work is repositioned, dispatched work keeps
// running. Panics on an invalid priority.
func (s *Scheduler) Submit(key cache.Key, priority Priority, gen GenerateFunc, cb Callback) {
	if !priority.Valid() {
		panic("sched: invalid priority " + priority.String())
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		if cb != nil {
			cb(nil)
		}
		return
	}
	if req, ok := s.pending[key]; ok {
		if cb != nil {
			req.callbacks = append(req.callbacks, cb)
		}
		if priority < req.priority && req.state == stateQueued {
			req.priority = priority
			heap.Fix(&s.queues[key.Class], req.index)
		}
		s.mu.Unlock()
		return
	}

	s.seq++
	req := &request{
		key:         key,
		priority:    priority,
		seq:         s.seq,
		submittedAt: time.Now(),
		gen:         gen,
		state:       stateQueued,
	}
	if cb != nil {
		req.callbacks = append(req.callbacks, cb)
	}
	s.pending[key] = req
	heap.Push(&s.queues[key.Class], req)
	s.mu.Unlock()

	s.wakeClass(key.Class)
}

// Cancel removes every queued request matching the predicate. Their
// callbacks are never invoked. Dispatched requests are unaffected; they
// complete and may still populate the cache. Returns the number of
// requests removed.
func (s *Scheduler) Cancel(match func(key cache.Key, priority Priority) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, req := range s.pending {
		if req.state != stateQueued || !match(key, req.priority) {
			continue
		}
		heap.Remove(&s.queues[key.Class], req.index)
		delete(s.pending, key)
		removed++
	}
	return removed
}

// Pending returns the number of live requests, queued or dispatched.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// PendingPriority returns the current priority of a live request.
func (s *Scheduler) PendingPriority(key cache.Key) (Priority, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.pending[key]
	if !ok {
		return 0, false
	}
	return req.priority, true
}

// Close stops dispatching and waits for in-flight generations. Requests
// still queued are dropped without callbacks.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for class := range s.queues {
		for _, req := range s.queues[class] {
			delete(s.pending, req.key)
		}
		s.queues[class] = nil
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) wakeClass(class raster.ResolutionClass) {
	select {
	case s.wake[class] <- struct{}{}:
	default:
	}
}

// dispatchLoop pops the strongest queued request of one class and runs
// it on its own goroutine, gated by the class budget. The loop itself
// never executes pixel work, so Submit and Cancel stay responsive.
func (s *Scheduler) dispatchLoop(class raster.ResolutionClass) {
	defer s.wg.Done()
	for {
		// Acquire capacity before choosing, so the pick reflects any
		// priority raises and arrivals that happened while full.
		if err := s.sems[class].Acquire(s.ctx, 1); err != nil {
			return
		}

		s.mu.Lock()
		var req *request
		if len(s.queues[class]) > 0 {
			req = heap.Pop(&s.queues[class]).(*request)
			req.state = stateDispatched
		}
		s.mu.Unlock()

		if req == nil {
			s.sems[class].Release(1)
			select {
			case <-s.ctx.Done():
				return
			case <-s.wake[class]:
			}
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.sems[class].Release(1)
			s.run(req)
		}()
	}
}

// run executes one generation and delivers its result to every callback
// registered for the key, including ones that joined while it ran.
func (s *Scheduler) run(req *request) {
	h, err := req.gen(s.ctx)
	if err != nil {
		s.logger.Warn("sched: generation failed",
			"asset", req.key.AssetID, "class", req.key.Class.String(), "err", err)
		h = nil
	}

	s.mu.Lock()
	delete(s.pending, req.key)
	callbacks := req.callbacks
	req.callbacks = nil
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb(h)
	}
}

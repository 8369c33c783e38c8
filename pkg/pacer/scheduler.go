package pacer

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	logx "pacer/pkg/logx"
)

const queueFullWarnEvery = 5 * time.Second

// Scheduler admits submitted operations under a concurrency cap and an
// optional fixed-window rate limit, highest priority first.
//
// All bookkeeping (queue, active count, token bucket, refill timer, idle
// waiters) runs as one critical section under mu; admission decisions are
// never interleaved. Dispatched computations run in their own goroutines and
// may do whatever they like.
type Scheduler struct {
	opts Options
	log  logx.Logger
	clk  clock

	mu       sync.Mutex
	queue    opQueue
	bucket   *bucket // nil when rate limiting is disabled
	active   int
	timer    stopTimer // armed iff queue non-empty and bucket empty
	timerSeq uint64
	idlers   []chan struct{}

	lastQueueFullWarnAt int64
}

// New validates opts and returns a ready Scheduler.
func New(opts Options) (*Scheduler, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return newScheduler(opts.withDefaults(), wallClock{}), nil
}

// newScheduler assumes opts are validated and defaulted.
func newScheduler(opts Options, clk clock) *Scheduler {
	s := &Scheduler{opts: opts, log: opts.Logger, clk: clk}
	if opts.Rate > 0 {
		s.bucket = newBucket(opts.Rate, opts.Interval, clk.Now())
	}
	return s
}

// Submit queues fn and returns its Ticket. The ticket fails with
// ErrQueueFull when the queue is at MaxQueue, with ErrAborted when
// opt.Context is (or becomes, pre-admission) canceled, and otherwise carries
// fn's own result or error unchanged.
//
// A nil fn is a programmer error and panics.
func (s *Scheduler) Submit(fn Func, opt SubmitOptions) *Ticket {
	if fn == nil {
		panic("pacer: Submit called with nil Func")
	}
	if opt.Context != nil && opt.Context.Err() != nil {
		// Already canceled: fail now, never enter the queue.
		return failedTicket(ErrAborted)
	}

	s.mu.Lock()
	if !s.opts.MaxQueue.Allows(s.queue.len()) {
		s.mu.Unlock()
		s.warnQueueFull()
		return failedTicket(ErrQueueFull)
	}
	o := &operation{
		fn:       fn,
		priority: opt.Priority,
		ctx:      opt.Context,
		ticket:   newTicket(),
		state:    stateQueued,
	}
	s.queue.insert(o)
	if o.ctx != nil {
		// One-shot, removable cancel watch. The callback runs in its own
		// goroutine and takes the lock, so registering under mu is safe.
		o.stop = context.AfterFunc(o.ctx, func() { s.abort(o) })
	}
	s.admitLocked()
	s.mu.Unlock()
	return o.ticket
}

// Active returns the number of admitted, not yet finished operations.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Pending returns the number of queued operations.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.len()
}

// ClearQueue removes every queued operation. With failPending each removed
// ticket fails with ErrQueueCleared; without it the tickets stay unresolved
// forever. Active operations are untouched.
func (s *Scheduler) ClearQueue(failPending bool) {
	s.mu.Lock()
	ops := s.queue.drain()
	for _, o := range ops {
		if o.stop != nil {
			o.stop()
			o.stop = nil
		}
		o.state = stateCleared
		if failPending {
			o.ticket.resolve(nil, ErrQueueCleared)
		}
	}
	s.syncTimerLocked()
	s.checkIdleLocked()
	s.mu.Unlock()

	if len(ops) > 0 && !s.log.IsZero() {
		s.log.Debug("queue cleared", logx.Int("dropped", len(ops)), logx.Bool("failed", failPending))
	}
}

// AwaitIdle returns a channel closed once no operations are queued or
// active. Already idle returns an already-closed channel. Every waiter
// present when idleness is reached is released together; a later call
// installs a fresh wait.
func (s *Scheduler) AwaitIdle() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == 0 && s.queue.len() == 0 {
		return closedIdle
	}
	ch := make(chan struct{})
	s.idlers = append(s.idlers, ch)
	return ch
}

var closedIdle = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// abort is the cancel-watch callback. It only acts while the operation is
// still queued; once admitted, cancellation belongs to the computation.
func (s *Scheduler) abort(o *operation) {
	s.mu.Lock()
	if o.state != stateQueued || !s.queue.remove(o) {
		s.mu.Unlock()
		return
	}
	o.stop = nil
	o.state = stateAborted
	o.ticket.resolve(nil, ErrAborted)
	s.syncTimerLocked()
	s.checkIdleLocked()
	s.mu.Unlock()
}

// admitLocked is the single admission pass: refill the bucket, admit while
// there is queued work, a free slot, and a token, then restore the timer and
// idle invariants. It is a plain loop on purpose — completions and timer
// fires call it once each, so there is no re-entrant growth however deep the
// queue gets.
func (s *Scheduler) admitLocked() {
	if s.bucket != nil {
		s.bucket.refill(s.clk.Now())
	}
	for s.queue.len() > 0 && s.opts.Concurrency.Allows(s.active) &&
		(s.bucket == nil || s.bucket.available() > 0) {
		o := s.queue.popFront()
		if o.stop != nil {
			o.stop()
			o.stop = nil
		}
		if o.ctx != nil && o.ctx.Err() != nil {
			// Canceled between queueing and admission; costs neither a slot
			// nor a token.
			o.state = stateAborted
			o.ticket.resolve(nil, ErrAborted)
			continue
		}
		o.state = stateAdmitted
		s.active++
		if s.bucket != nil {
			s.bucket.take()
		}
		go s.run(o)
	}
	s.syncTimerLocked()
	s.checkIdleLocked()
}

// syncTimerLocked enforces: refill timer armed iff work is queued and the
// bucket is currently empty. timerSeq invalidates fires from superseded
// timers, so re-entrant passes never double-arm.
func (s *Scheduler) syncTimerLocked() {
	want := s.bucket != nil && s.queue.len() > 0 && s.bucket.available() == 0
	switch {
	case want && s.timer == nil:
		s.timerSeq++
		seq := s.timerSeq
		d := s.bucket.untilRefill(s.clk.Now())
		s.timer = s.clk.AfterFunc(d, func() { s.onRefill(seq) })
	case !want && s.timer != nil:
		s.timer.Stop()
		s.timer = nil
		s.timerSeq++
	}
}

func (s *Scheduler) onRefill(seq uint64) {
	s.mu.Lock()
	if seq != s.timerSeq {
		// Stopped or replaced after this fire was already in flight.
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.admitLocked()
	s.mu.Unlock()
}

func (s *Scheduler) checkIdleLocked() {
	if s.active != 0 || s.queue.len() != 0 || len(s.idlers) == 0 {
		return
	}
	for _, ch := range s.idlers {
		close(ch)
	}
	s.idlers = nil
}

// run executes one admitted operation and feeds its completion back into the
// admission loop.
func (s *Scheduler) run(o *operation) {
	start := s.clk.Now()
	val, err := s.invoke(o)
	dur := s.clk.Now().Sub(start)

	s.mu.Lock()
	s.active--
	if err != nil {
		o.state = stateFailed
	} else {
		o.state = stateCompleted
	}
	o.ticket.resolve(val, err)
	s.admitLocked()
	s.mu.Unlock()

	if !s.log.IsZero() {
		if err != nil {
			s.log.Debug("operation failed", logx.Any("err", err), logx.Duration("dur", dur))
		} else {
			s.log.Debug("operation completed", logx.Duration("dur", dur))
		}
	}
}

// invoke runs the computation with panic containment: one bad computation
// must not corrupt the scheduler or kill the process.
func (s *Scheduler) invoke(o *operation) (val any, err error) {
	ctx := o.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			if !s.log.IsZero() {
				s.log.Error("operation panicked", logx.Any("panic", r), logx.Stack(string(debug.Stack())))
			}
		}
	}()
	return o.fn(ctx)
}

func (s *Scheduler) warnQueueFull() {
	if s.log.IsZero() {
		return
	}
	now := s.clk.Now().UnixNano()
	prev := atomic.LoadInt64(&s.lastQueueFullWarnAt)
	if prev != 0 && now-prev < int64(queueFullWarnEvery) {
		return
	}
	if !atomic.CompareAndSwapInt64(&s.lastQueueFullWarnAt, prev, now) {
		return
	}
	s.log.Warn("submission rejected: queue full", logx.String("max_queue", s.opts.MaxQueue.String()))
}

package pacer

import "sync"

// Registry lazily creates one Scheduler per key, all with the same Options.
// Keys are fully independent: capacity, rate window, and queue are per key.
type Registry struct {
	opts Options
	clk  clock

	mu    sync.Mutex
	cores map[string]*Scheduler
}

// NewRegistry validates opts once for all future per-key schedulers.
func NewRegistry(opts Options) (*Registry, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return newRegistry(opts.withDefaults(), wallClock{}), nil
}

func newRegistry(opts Options, clk clock) *Registry {
	return &Registry{opts: opts, clk: clk, cores: make(map[string]*Scheduler)}
}

// Call submits fn through key's scheduler, creating it if needed.
func (r *Registry) Call(key string, fn Func, opt SubmitOptions) *Ticket {
	return r.Get(key).Submit(fn, opt)
}

// Get returns key's scheduler, creating it if absent. get-or-create is
// serialized so concurrent same-key callers share one instance.
func (r *Registry) Get(key string) *Scheduler {
	r.mu.Lock()
	s := r.cores[key]
	if s == nil {
		s = newScheduler(r.opts, r.clk)
		r.cores[key] = s
	}
	r.mu.Unlock()
	return s
}

// Delete drains key's queue (failing pending operations with
// ErrQueueCleared) and evicts the scheduler. Returns false, doing nothing,
// when the key does not exist.
func (r *Registry) Delete(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.cores[key]
	if s == nil {
		return false
	}
	s.ClearQueue(true)
	delete(r.cores, key)
	return true
}

// Clear applies Delete semantics to every key.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, s := range r.cores {
		s.ClearQueue(true)
		delete(r.cores, key)
	}
}

// Len reports the number of live keys.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cores)
}

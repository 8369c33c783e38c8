package pacer

import "context"

// Ticket is the caller's handle for one submitted operation. It resolves
// exactly once, with either the computation's result, the computation's own
// error unchanged, or one of ErrAborted, ErrQueueCleared, ErrQueueFull.
//
// Tickets removed by ClearQueue(false) are never resolved; use Wait with a
// context if that matters to you.
type Ticket struct {
	done chan struct{}
	val  any
	err  error
}

func newTicket() *Ticket {
	return &Ticket{done: make(chan struct{})}
}

func failedTicket(err error) *Ticket {
	t := newTicket()
	t.resolve(nil, err)
	return t
}

// resolve settles the ticket. The scheduler owns the operation exclusively,
// so this runs at most once; the close publishes val/err to readers.
func (t *Ticket) resolve(val any, err error) {
	t.val = val
	t.err = err
	close(t.done)
}

// Done is closed once the ticket is resolved.
func (t *Ticket) Done() <-chan struct{} { return t.done }

// Value returns the computation's result. Only valid after Done is closed.
func (t *Ticket) Value() any { return t.val }

// Err returns the ticket's failure, nil on success. Only valid after Done is
// closed.
func (t *Ticket) Err() error { return t.err }

// Wait blocks until the ticket resolves or ctx is done, whichever is first.
// A ctx error does not settle the ticket; the operation may still run.
func (t *Ticket) Wait(ctx context.Context) (any, error) {
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

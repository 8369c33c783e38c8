package pacer

import (
	"context"
	"fmt"
	"time"

	logx "pacer/pkg/logx"
)

// Func is a submitted computation. The ctx is the submission's cancellation
// context (context.Background() when none was given). The scheduler ignores
// it once the computation has started; computations that want post-start
// cancellation should honor it themselves.
type Func func(ctx context.Context) (any, error)

// Options configures a Scheduler (or every scheduler in a Registry).
// Immutable after New.
type Options struct {
	// Concurrency caps simultaneously admitted operations.
	Concurrency Limit

	// Rate is the number of admissions allowed per Interval.
	// 0 disables rate limiting.
	Rate int

	// Interval is the rate window. Defaults to 1s; only meaningful with Rate.
	Interval time.Duration

	// MaxQueue caps queued (not yet admitted) operations.
	MaxQueue Limit

	// Logger is optional; the zero value is silent.
	Logger logx.Logger
}

func (o Options) validate() error {
	if err := o.Concurrency.validate("pacer: concurrency"); err != nil {
		return err
	}
	if err := o.MaxQueue.validate("pacer: max_queue"); err != nil {
		return err
	}
	if o.Rate < 0 {
		return fmt.Errorf("pacer: rate: must be >= 0, got %d", o.Rate)
	}
	if o.Interval < 0 {
		return fmt.Errorf("pacer: interval: must not be negative, got %s", o.Interval)
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.Interval == 0 {
		o.Interval = time.Second
	}
	return o
}

// SubmitOptions are per-submission knobs.
type SubmitOptions struct {
	// Priority orders pending work; higher runs sooner, default 0.
	// Equal priorities keep submission order.
	Priority int

	// Context is an optional cancellation signal. Canceling it fails the
	// operation with ErrAborted as long as it has not been admitted;
	// afterwards it only reaches the computation itself.
	Context context.Context
}

type opState uint8

const (
	stateQueued opState = iota
	stateAdmitted
	stateCompleted
	stateFailed
	stateAborted
	stateCleared
)

// operation is one queued or running unit of work. All fields except the
// ticket's own channel are guarded by the owning Scheduler's mutex.
type operation struct {
	fn       Func
	priority int
	ctx      context.Context // nil when no cancellation signal
	stop     func() bool     // cancel-watch deregistration, nil once torn down
	ticket   *Ticket
	state    opState
}

// Package pacer is an in-process admission-control scheduler.
//
// A Scheduler gates how many submitted operations run at once, paces how many
// may start per fixed time window, orders pending work by priority, and
// supports cooperative cancellation of work that has not started yet. It is
// meant for throttling calls against an external resource (an API, a
// downstream service) without hand-rolling queueing logic.
//
// A Registry holds one independently-limited Scheduler per caller-chosen key,
// all sharing the same configuration.
//
// The scheduler never inspects what a computation does; it only controls when
// it starts and observes when it finishes. Cancellation is effective only
// before admission — once a computation runs, stopping it is its own job (the
// submission context is passed through for exactly that purpose).
package pacer

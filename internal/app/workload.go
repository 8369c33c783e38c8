package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"pacer/internal/history"
	"pacer/pkg/pacer"

	logx "pacer/pkg/logx"
)

type stats struct {
	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	aborted   atomic.Uint64
	cleared   atomic.Uint64
	queueFull atomic.Uint64
}

// runResult is the value a synthetic operation resolves with; the observer
// turns it into a history row.
type runResult struct {
	queueDelay time.Duration
	runTime    time.Duration
}

// runWorkload submits steady, rate.Limiter-paced operations (plus optional
// cron bursts) until the plan's duration elapses or ctx is canceled.
func (a *App) runWorkload(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, a.plan.duration)
	defer cancel()

	if a.plan.burst != nil {
		c := cron.New(cron.WithSeconds())
		_, err := c.AddFunc(a.plan.burst.spec, func() {
			a.log.Debug("burst firing", logx.Int("count", a.plan.burst.count))
			for i := 0; i < a.plan.burst.count; i++ {
				a.submitOne(ctx)
			}
		})
		if err != nil {
			return fmt.Errorf("workload.burst.cron: %w", err)
		}
		c.Start()
		defer c.Stop()
	}

	lim := rate.NewLimiter(rate.Limit(a.plan.perSec), 1)
	for {
		if err := lim.Wait(runCtx); err != nil {
			// Deadline or signal; both end the steady stream normally.
			return nil
		}
		// The signal ctx, not the deadline: when the run ends normally the
		// queued backlog still drains; an interrupt aborts it cooperatively.
		a.submitOne(ctx)
	}
}

func (a *App) submitOne(ctx context.Context) {
	var (
		key      = a.plan.keys[rand.Intn(len(a.plan.keys))]
		prio     = 0
		submitAt = time.Now()
	)
	if a.plan.prioMax > 0 {
		prio = rand.Intn(a.plan.prioMax + 1)
	}

	latency := a.plan.minLat
	if span := a.plan.maxLat - a.plan.minLat; span > 0 {
		latency += time.Duration(rand.Int63n(int64(span)))
	}
	fail := rand.Intn(100) < a.plan.failPct

	fn := func(opCtx context.Context) (any, error) {
		start := time.Now()
		select {
		case <-time.After(latency):
		case <-opCtx.Done():
		}
		res := runResult{queueDelay: start.Sub(submitAt), runTime: time.Since(start)}
		if fail {
			return res, fmt.Errorf("synthetic failure after %s", res.runTime)
		}
		return res, nil
	}

	t := a.reg.Call(key, fn, pacer.SubmitOptions{Priority: prio, Context: ctx})
	a.stats.submitted.Add(1)
	go a.observe(key, prio, t)
}

// observe waits out one ticket, counts its outcome, and records it.
func (a *App) observe(key string, prio int, t *pacer.Ticket) {
	// Tickets here always resolve: interrupted queues are cleared with
	// failure in drain().
	v, err := t.Wait(context.Background())

	switch {
	case err == nil:
		a.stats.completed.Add(1)
	case errors.Is(err, pacer.ErrQueueFull):
		a.stats.queueFull.Add(1)
	case errors.Is(err, pacer.ErrAborted):
		a.stats.aborted.Add(1)
	case errors.Is(err, pacer.ErrQueueCleared):
		a.stats.cleared.Add(1)
	default:
		a.stats.failed.Add(1)
	}

	if a.hist == nil {
		return
	}
	res, ok := v.(runResult)
	if !ok {
		// Rejected before running; nothing to measure.
		return
	}
	rec := history.Run{
		At:       time.Now(),
		Key:      key,
		Priority: prio,
		QueueMS:  res.queueDelay.Milliseconds(),
		RunMS:    res.runTime.Milliseconds(),
		OK:       err == nil,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	hctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if herr := a.hist.Record(hctx, rec); herr != nil {
		a.log.Debug("history record failed", logx.Any("err", herr))
	}
	cancel()
}

// Package app wires the pacer CLI together: config, logging, the keyed
// scheduler registry, the optional history store, and the synthetic
// workload that exercises them.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pacer/internal/config"
	"pacer/internal/history"
	"pacer/pkg/pacer"

	logx "pacer/pkg/logx"
)

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	reg  *pacer.Registry
	hist *history.Store
	plan workloadPlan

	// limiterCfg is the block the registry was built from; later edits only
	// warrant a notice since Options are immutable.
	limiterCfg config.LimiterConfig

	stats stats
}

func New(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.ConsoleEnabled(),
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	mgr.SetLogger(log.With(logx.String("comp", "config")))

	opts, err := limiterOptions(cfg, log)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	reg, err := pacer.NewRegistry(opts)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	plan, err := workloadPlanFromConfig(cfg)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	var hist *history.Store
	if cfg.History != nil && cfg.History.Enabled {
		path := cfg.History.Path
		if path == "" {
			path = "./pacer-history.db"
		}
		hist, err = history.Open(path, cfg.History.Keep, log.With(logx.String("comp", "history")))
		if err != nil {
			_ = logSvc.Close()
			return nil, fmt.Errorf("open history: %w", err)
		}
	}

	return &App{
		cfgMgr:     mgr,
		logSvc:     logSvc,
		log:        log,
		reg:        reg,
		hist:       hist,
		plan:       plan,
		limiterCfg: cfg.Limiter,
	}, nil
}

// Run drives the workload until its duration elapses or ctx is canceled,
// drains the registry, and logs a summary.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	// Live log-level changes only; limiter options are immutable once the
	// registry exists.
	watchCtx, stopWatch := context.WithCancel(ctx)
	var watchWG sync.WaitGroup
	watchWG.Add(1)
	go func() {
		defer watchWG.Done()
		if err := a.cfgMgr.Watch(watchCtx, a.applyConfig); err != nil {
			a.log.Warn("config watch stopped", logx.Any("err", err))
		}
	}()
	defer func() {
		stopWatch()
		watchWG.Wait()
	}()

	a.log.Info("workload starting",
		logx.Int("keys", len(a.plan.keys)),
		logx.Int("submit_per_sec", a.plan.perSec),
		logx.Duration("duration", a.plan.duration),
	)

	if err := a.runWorkload(ctx); err != nil && ctx.Err() == nil {
		return err
	}

	a.drain(ctx)
	a.logSummary()
	return nil
}

func (a *App) applyConfig(cfg *config.Config) {
	a.logSvc.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.ConsoleEnabled(),
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	if cfg.Limiter != a.limiterCfg {
		a.log.Info("limiter config changed; takes effect on next start")
	}
}

// drain waits for every key to go idle. A canceled ctx fails the pending
// queues so waiters resolve, then gives running operations a short grace
// period.
func (a *App) drain(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		for _, key := range a.plan.keys {
			<-a.reg.Get(key).AwaitIdle()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		a.log.Warn("interrupted; clearing queues")
		a.reg.Clear()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			a.log.Warn("drain timed out with operations still running")
		}
	}
}

func (a *App) logSummary() {
	a.log.Info("workload finished",
		logx.Uint64("submitted", a.stats.submitted.Load()),
		logx.Uint64("completed", a.stats.completed.Load()),
		logx.Uint64("failed", a.stats.failed.Load()),
		logx.Uint64("aborted", a.stats.aborted.Load()),
		logx.Uint64("cleared", a.stats.cleared.Load()),
		logx.Uint64("queue_full", a.stats.queueFull.Load()),
	)
}

func (a *App) close() {
	if a.hist != nil {
		_ = a.hist.Close()
	}
	_ = a.logSvc.Close()
}

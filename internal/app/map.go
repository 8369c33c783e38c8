package app

import (
	"fmt"
	"time"

	"pacer/internal/config"
	"pacer/pkg/pacer"

	logx "pacer/pkg/logx"
)

// limiterOptions maps config.Limiter onto pacer.Options. Zero means
// unlimited/disabled; negative values are passed through as bounds so
// NewRegistry rejects them with a proper error.
func limiterOptions(cfg *config.Config, log logx.Logger) (pacer.Options, error) {
	interval, err := config.ParseDurationOrDefault("limiter.interval", cfg.Limiter.Interval, time.Second)
	if err != nil {
		return pacer.Options{}, err
	}

	opts := pacer.Options{
		Rate:     cfg.Limiter.Rate,
		Interval: interval,
		Logger:   log.With(logx.String("comp", "pacer")),
	}
	if cfg.Limiter.Concurrency != 0 {
		opts.Concurrency = pacer.Bound(cfg.Limiter.Concurrency)
	}
	if cfg.Limiter.MaxQueue != 0 {
		opts.MaxQueue = pacer.Bound(cfg.Limiter.MaxQueue)
	}
	return opts, nil
}

type workloadPlan struct {
	keys     []string
	perSec   int
	duration time.Duration
	minLat   time.Duration
	maxLat   time.Duration
	failPct  int
	prioMax  int
	burst    *burstPlan
}

type burstPlan struct {
	spec  string
	count int
}

func workloadPlanFromConfig(cfg *config.Config) (workloadPlan, error) {
	w := cfg.Workload

	p := workloadPlan{
		keys:    w.Keys,
		perSec:  w.SubmitPerSec,
		failPct: w.FailPercent,
		prioMax: w.PriorityMax,
	}
	if len(p.keys) == 0 {
		p.keys = []string{"default"}
	}
	if p.perSec <= 0 {
		p.perSec = 10
	}
	if p.failPct < 0 || p.failPct > 100 {
		return workloadPlan{}, fmt.Errorf("workload.fail_percent: must be 0..100, got %d", p.failPct)
	}
	if p.prioMax < 0 {
		return workloadPlan{}, fmt.Errorf("workload.priority_max: must be >= 0, got %d", p.prioMax)
	}

	var err error
	p.duration, err = config.ParseDurationOrDefault("workload.duration", w.Duration, 10*time.Second)
	if err != nil {
		return workloadPlan{}, err
	}
	p.minLat, err = config.ParseDurationOrDefault("workload.min_latency", w.MinLatency, 5*time.Millisecond)
	if err != nil {
		return workloadPlan{}, err
	}
	p.maxLat, err = config.ParseDurationOrDefault("workload.max_latency", w.MaxLatency, 50*time.Millisecond)
	if err != nil {
		return workloadPlan{}, err
	}
	if p.maxLat < p.minLat {
		return workloadPlan{}, fmt.Errorf("workload.max_latency: %s is below min_latency %s", p.maxLat, p.minLat)
	}

	if w.Burst != nil {
		if w.Burst.Cron == "" {
			return workloadPlan{}, fmt.Errorf("workload.burst.cron: required when burst is set")
		}
		if w.Burst.Count <= 0 {
			return workloadPlan{}, fmt.Errorf("workload.burst.count: must be > 0, got %d", w.Burst.Count)
		}
		p.burst = &burstPlan{spec: w.Burst.Cron, count: w.Burst.Count}
	}
	return p, nil
}

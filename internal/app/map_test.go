package app

import (
	"testing"
	"time"

	"pacer/internal/config"
	"pacer/pkg/pacer"

	logx "pacer/pkg/logx"
)

func TestLimiterOptionsMapping(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{Limiter: config.LimiterConfig{
		Concurrency: 3,
		Rate:        5,
		Interval:    "200ms",
		MaxQueue:    10,
	}}
	opts, err := limiterOptions(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("limiterOptions: %v", err)
	}
	if opts.Concurrency != pacer.Bound(3) || opts.MaxQueue != pacer.Bound(10) {
		t.Fatalf("limits = %v / %v", opts.Concurrency, opts.MaxQueue)
	}
	if opts.Rate != 5 || opts.Interval != 200*time.Millisecond {
		t.Fatalf("rate/interval = %d / %v", opts.Rate, opts.Interval)
	}
}

func TestLimiterOptionsZeroMeansUnlimited(t *testing.T) {
	t.Parallel()
	opts, err := limiterOptions(&config.Config{}, logx.Nop())
	if err != nil {
		t.Fatalf("limiterOptions: %v", err)
	}
	if opts.Concurrency != pacer.Unlimited || opts.MaxQueue != pacer.Unlimited {
		t.Fatalf("zero config must map to unlimited, got %v / %v", opts.Concurrency, opts.MaxQueue)
	}
	if opts.Interval != time.Second {
		t.Fatalf("interval default = %v, want 1s", opts.Interval)
	}
	if _, err := pacer.NewRegistry(opts); err != nil {
		t.Fatalf("NewRegistry on defaults: %v", err)
	}
}

func TestLimiterOptionsNegativeRejected(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{Limiter: config.LimiterConfig{Concurrency: -1}}
	opts, err := limiterOptions(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("limiterOptions: %v", err)
	}
	// The bound is passed through; registry construction rejects it.
	if _, err := pacer.NewRegistry(opts); err == nil {
		t.Fatal("expected error for negative concurrency")
	}
}

func TestWorkloadPlanDefaults(t *testing.T) {
	t.Parallel()
	p, err := workloadPlanFromConfig(&config.Config{})
	if err != nil {
		t.Fatalf("workloadPlanFromConfig: %v", err)
	}
	if len(p.keys) != 1 || p.keys[0] != "default" {
		t.Fatalf("keys = %v", p.keys)
	}
	if p.perSec != 10 || p.duration != 10*time.Second {
		t.Fatalf("perSec/duration = %d / %v", p.perSec, p.duration)
	}
	if p.minLat != 5*time.Millisecond || p.maxLat != 50*time.Millisecond {
		t.Fatalf("latency = %v..%v", p.minLat, p.maxLat)
	}
	if p.burst != nil {
		t.Fatal("burst must default to nil")
	}
}

func TestWorkloadPlanValidation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		w    config.WorkloadConfig
	}{
		{name: "fail percent over 100", w: config.WorkloadConfig{FailPercent: 101}},
		{name: "latency inverted", w: config.WorkloadConfig{MinLatency: "100ms", MaxLatency: "10ms"}},
		{name: "burst without cron", w: config.WorkloadConfig{Burst: &config.BurstConfig{Count: 5}}},
		{name: "burst without count", w: config.WorkloadConfig{Burst: &config.BurstConfig{Cron: "*/5 * * * * *"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := workloadPlanFromConfig(&config.Config{Workload: tt.w}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

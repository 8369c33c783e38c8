package config

// Config is the pacer CLI's configuration.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Logging  LoggingConfig  `json:"logging"`
	Limiter  LimiterConfig  `json:"limiter"`
	Workload WorkloadConfig `json:"workload"`
	History  *HistoryConfig `json:"history,omitempty"`
}

type LoggingConfig struct {
	Level string `json:"level,omitempty"`

	// Console is a pointer so "omitted" (default true) is distinguishable
	// from an explicit false.
	Console *bool         `json:"console,omitempty"`
	File    LogFileConfig `json:"file,omitempty"`
}

type LogFileConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// LimiterConfig maps 1:1 onto pacer.Options; every scheduler in the keyed
// registry shares it. Zero means "unlimited" (concurrency, max_queue) or
// "disabled" (rate).
type LimiterConfig struct {
	Concurrency int    `json:"concurrency,omitempty"`
	Rate        int    `json:"rate,omitempty"`
	Interval    string `json:"interval,omitempty"` // default "1s"
	MaxQueue    int    `json:"max_queue,omitempty"`
}

// WorkloadConfig shapes the synthetic load the CLI pushes through the
// registry.
//
// Defaults (when fields are omitted/zero):
//   - keys: ["default"]
//   - submit_per_sec: 10
//   - duration: "10s"
//   - min_latency/max_latency: "5ms"/"50ms"
//   - fail_percent: 0
//   - priority_max: 0 (every submission at priority 0)
type WorkloadConfig struct {
	Keys         []string `json:"keys,omitempty"`
	SubmitPerSec int      `json:"submit_per_sec,omitempty"`
	Duration     string   `json:"duration,omitempty"`
	MinLatency   string   `json:"min_latency,omitempty"`
	MaxLatency   string   `json:"max_latency,omitempty"`
	FailPercent  int      `json:"fail_percent,omitempty"`
	PriorityMax  int      `json:"priority_max,omitempty"`

	// Burst optionally fires Count extra submissions on a cron schedule
	// (6-field spec, seconds first), on top of the steady rate.
	Burst *BurstConfig `json:"burst,omitempty"`
}

type BurstConfig struct {
	Cron  string `json:"cron"`
	Count int    `json:"count"`
}

// HistoryConfig controls the sqlite log of finished operations.
type HistoryConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"` // default "./pacer-history.db"
	Keep    int    `json:"keep,omitempty"` // max rows retained, default 1000
}

func (l LoggingConfig) ConsoleEnabled() bool {
	return l.Console == nil || *l.Console
}

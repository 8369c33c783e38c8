package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestManagerLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "pacer.yaml", `
logging:
  level: debug
  console: false
limiter:
  concurrency: 4
  rate: 10
  interval: 250ms
  max_queue: 100
workload:
  keys: [api-a, api-b]
  submit_per_sec: 20
  duration: 5s
  fail_percent: 5
history:
  enabled: true
  path: ./h.db
  keep: 50
`)

	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("logging.level = %q", cfg.Logging.Level)
	}
	if cfg.Logging.ConsoleEnabled() {
		t.Fatal("console = true, want explicit false respected")
	}
	if cfg.Limiter.Concurrency != 4 || cfg.Limiter.Rate != 10 || cfg.Limiter.MaxQueue != 100 {
		t.Fatalf("limiter = %+v", cfg.Limiter)
	}
	if d, err := ParseDurationField("limiter.interval", cfg.Limiter.Interval); err != nil || d != 250*time.Millisecond {
		t.Fatalf("interval = (%v, %v)", d, err)
	}
	if len(cfg.Workload.Keys) != 2 || cfg.Workload.Keys[1] != "api-b" {
		t.Fatalf("workload.keys = %v", cfg.Workload.Keys)
	}
	if cfg.History == nil || !cfg.History.Enabled || cfg.History.Keep != 50 {
		t.Fatalf("history = %+v", cfg.History)
	}
}

func TestManagerConsoleDefaultsOn(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "pacer.yaml", "logging:\n  level: info\n")
	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Logging.ConsoleEnabled() {
		t.Fatal("omitted console must default to enabled")
	}
}

func TestManagerRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "pacer.yaml", "limiterz:\n  rate: 10\n")
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected error for unknown top-level field")
	}
}

func TestManagerRejectsTrailingJSON(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "pacer.json", `{"logging":{"level":"info"}}{"extra":true}`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want time.Duration
		ok   bool
	}{
		{name: "empty is zero", raw: "", want: 0, ok: true},
		{name: "millis", raw: "250ms", want: 250 * time.Millisecond, ok: true},
		{name: "compound", raw: "1m30s", want: 90 * time.Second, ok: true},
		{name: "negative", raw: "-5s", ok: false},
		{name: "garbage", raw: "soon", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDurationField("x", tt.raw)
			if tt.ok && (err != nil || got != tt.want) {
				t.Fatalf("got (%v, %v), want (%v, nil)", got, err, tt.want)
			}
			if !tt.ok && err == nil {
				t.Fatal("expected error")
			}
		})
	}

	if d, err := ParseDurationOrDefault("x", "", time.Second); err != nil || d != time.Second {
		t.Fatalf("ParseDurationOrDefault = (%v, %v), want (1s, nil)", d, err)
	}
}

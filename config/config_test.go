package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("Default config failed validation: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty app name", func(c *Config) { c.App.Name = "" }},
		{"bad environment", func(c *Config) { c.App.Environment = "prod" }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"zero port", func(c *Config) { c.Network.Port = 0 }},
		{"huge port", func(c *Config) { c.Network.Port = 70000 }},
		{"zero workers", func(c *Config) { c.Worker.Count = 0 }},
		{"bad dispatch", func(c *Config) { c.Worker.Dispatch = "random" }},
		{"sieve below 2", func(c *Config) { c.Factor.SieveLimit = 1 }},
		{"zero rounds", func(c *Config) { c.Factor.Rounds = 0 }},
		{"zero rho retries", func(c *Config) { c.Factor.RhoRetries = 0 }},
		{"bad cache backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis without addr", func(c *Config) {
			c.Cache.Backend = CacheBackendRedis
			c.Cache.Redis.Addr = ""
		}},
		{"rate limit without rps", func(c *Config) {
			c.Network.RateLimit = RateLimitConfig{Enabled: true}
		}},
	}

	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadFromReaderYAML(t *testing.T) {
	yamlData := `
app:
  name: factord-test
  environment: testing
log:
  level: debug
network:
  port: 9000
worker:
  count: 2
  dispatch: round-robin
factor:
  sieve_limit: 50000
  rounds: 8
cache:
  enabled: true
  backend: memory
  ttl: 30m
  max_entries: 100
`
	cfg, err := NewLoader().LoadFromReader(strings.NewReader(yamlData), FormatYAML)
	if err != nil {
		t.Fatalf("Failed to load YAML config: %v", err)
	}

	if cfg.App.Name != "factord-test" {
		t.Errorf("Expected app name 'factord-test', got %q", cfg.App.Name)
	}
	if cfg.Log.Level != LogLevelDebug {
		t.Errorf("Expected debug log level, got %s", cfg.Log.Level)
	}
	if cfg.Network.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.Network.Port)
	}
	if cfg.Worker.Count != 2 || cfg.Worker.Dispatch != DispatchRoundRobin {
		t.Errorf("Worker config not applied: %+v", cfg.Worker)
	}
	if cfg.Factor.SieveLimit != 50000 || cfg.Factor.Rounds != 8 {
		t.Errorf("Factor config not applied: %+v", cfg.Factor)
	}
	if cfg.Cache.TTL.Std() != 30*time.Minute {
		t.Errorf("Expected cache TTL 30m, got %s", cfg.Cache.TTL)
	}

	// Unspecified fields fall back to defaults
	if cfg.Network.MaxConnections != DefaultConfig().Network.MaxConnections {
		t.Errorf("Expected default max connections, got %d", cfg.Network.MaxConnections)
	}
	if cfg.Factor.RhoRetries != DefaultConfig().Factor.RhoRetries {
		t.Errorf("Expected default rho retries, got %d", cfg.Factor.RhoRetries)
	}
}

func TestLoadDisablesEnabledDefaults(t *testing.T) {
	// Both features default to enabled; an explicit false in the file
	// must win over the default.
	yamlData := `
network:
  rate_limit:
    enabled: false
cache:
  enabled: false
`
	cfg, err := NewLoader().LoadFromReader(strings.NewReader(yamlData), FormatYAML)
	if err != nil {
		t.Fatalf("Failed to load YAML config: %v", err)
	}

	if cfg.Network.RateLimit.Enabled {
		t.Error("Expected rate limit disabled by explicit enabled: false")
	}
	if cfg.Cache.Enabled {
		t.Error("Expected cache disabled by explicit enabled: false")
	}

	// Sibling fields absent from the file keep their defaults
	def := DefaultConfig()
	if cfg.Network.RateLimit.RPS != def.Network.RateLimit.RPS {
		t.Errorf("Expected default rps %v, got %v", def.Network.RateLimit.RPS, cfg.Network.RateLimit.RPS)
	}
	if cfg.Cache.TTL != def.Cache.TTL {
		t.Errorf("Expected default cache TTL %s, got %s", def.Cache.TTL, cfg.Cache.TTL)
	}
	if cfg.Cache.Backend != def.Cache.Backend {
		t.Errorf("Expected default cache backend %q, got %q", def.Cache.Backend, cfg.Cache.Backend)
	}
}

func TestLoadFromReaderInvalid(t *testing.T) {
	if _, err := NewLoader().LoadFromReader(strings.NewReader("worker: {count: -3}"), FormatYAML); err == nil {
		t.Error("Expected validation error for negative worker count")
	}
	if _, err := NewLoader().LoadFromReader(strings.NewReader("{{nope"), FormatYAML); err == nil {
		t.Error("Expected parse error for malformed YAML")
	}
}

func TestEnvOverrides(t *testing.T) {
	os.Setenv("FACTORD_LOG_LEVEL", "warn")
	os.Setenv("FACTORD_NETWORK_PORT", "8123")
	os.Setenv("FACTORD_WORKER_COUNT", "7")
	os.Setenv("FACTORD_FACTOR_SIEVE_LIMIT", "20000")
	defer func() {
		os.Unsetenv("FACTORD_LOG_LEVEL")
		os.Unsetenv("FACTORD_NETWORK_PORT")
		os.Unsetenv("FACTORD_WORKER_COUNT")
		os.Unsetenv("FACTORD_FACTOR_SIEVE_LIMIT")
	}()

	cfg, err := NewLoader().LoadFromReader(strings.NewReader("app: {name: envtest}"), FormatYAML)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Log.Level != LogLevelWarn {
		t.Errorf("Expected warn level from env, got %s", cfg.Log.Level)
	}
	if cfg.Network.Port != 8123 {
		t.Errorf("Expected port 8123 from env, got %d", cfg.Network.Port)
	}
	if cfg.Worker.Count != 7 {
		t.Errorf("Expected 7 workers from env, got %d", cfg.Worker.Count)
	}
	if cfg.Factor.SieveLimit != 20000 {
		t.Errorf("Expected sieve limit 20000 from env, got %d", cfg.Factor.SieveLimit)
	}
}

func TestEnvOverrideParseErrors(t *testing.T) {
	cases := []struct {
		env  string
		want error
	}{
		{"FACTORD_NETWORK_PORT", ErrInvalidPort},
		{"FACTORD_WORKER_COUNT", ErrInvalidWorkerCount},
		{"FACTORD_FACTOR_SIEVE_LIMIT", ErrInvalidSieveLimit},
		{"FACTORD_FACTOR_ROUNDS", ErrInvalidRounds},
	}

	for _, tc := range cases {
		os.Setenv(tc.env, "not-a-number")
		_, err := NewLoader().LoadFromReader(strings.NewReader("app: {name: envtest}"), FormatYAML)
		os.Unsetenv(tc.env)

		if !errors.Is(err, tc.want) {
			t.Errorf("%s=not-a-number: got error %v, want %v", tc.env, err, tc.want)
		}
	}
}

func TestAutoLoadWithoutFile(t *testing.T) {
	loader := NewLoader().SetSearchPaths([]string{t.TempDir()})

	cfg, err := loader.AutoLoad()
	if err != nil {
		t.Fatalf("AutoLoad without file failed: %v", err)
	}
	if cfg.App.Name != "factord" {
		t.Errorf("Expected default app name, got %q", cfg.App.Name)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "factord.yaml")
	content := "network:\n  port: 7500\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := NewLoader().LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Network.Port != 7500 {
		t.Errorf("Expected port 7500, got %d", cfg.Network.Port)
	}
}

func TestNetworkAddress(t *testing.T) {
	n := NetworkConfig{Host: "127.0.0.1", Port: 7461}
	if got := n.Address(); got != "127.0.0.1:7461" {
		t.Errorf("Expected '127.0.0.1:7461', got %q", got)
	}
}

func TestDiffReloadable(t *testing.T) {
	prev := DefaultConfig()
	next := DefaultConfig()
	next.Log.Level = LogLevelDebug
	next.Network.RateLimit.RPS = 50
	next.Worker.Count = 16
	next.Factor.SieveLimit = 200000

	d := DiffReloadable(prev, next)
	if !d.LogLevelChanged {
		t.Error("Expected log level change to be reloadable")
	}
	if !d.RateLimitChanged {
		t.Error("Expected rate limit change to be reloadable")
	}
	if len(d.Ignored) != 2 {
		t.Errorf("Expected 2 ignored structural changes, got %v", d.Ignored)
	}
}

func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "factord.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: info\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	watcher, err := NewWatcher(path, NewLoader(), nil)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	if got := watcher.GetConfig().Log.Level; got != LogLevelInfo {
		t.Fatalf("Expected initial level info, got %s", got)
	}

	changed := make(chan struct{}, 1)
	watcher.OnConfigChange(func(oldConfig, newConfig *Config) {
		if newConfig.Log.Level == LogLevelDebug {
			select {
			case changed <- struct{}{}:
			default:
			}
		}
	})

	if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644); err != nil {
		t.Fatalf("Failed to rewrite config file: %v", err)
	}

	// Manual reload keeps the test independent of fsnotify timing
	if err := watcher.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for config change callback")
	}

	if got := watcher.GetConfig().Log.Level; got != LogLevelDebug {
		t.Errorf("Expected reloaded level debug, got %s", got)
	}
}

func TestWatcherLogsFailedRewatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "factord.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: info\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	core, logs := observer.New(zap.WarnLevel)
	watcher, err := NewWatcher(path, NewLoader(), zap.New(core))
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	if err := watcher.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}

	// Remove the file and never recreate it: the delayed re-watch must
	// fail and leave a warning rather than dying silently.
	if err := os.Remove(path); err != nil {
		t.Fatalf("Failed to remove config file: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for logs.FilterMessage("failed to re-watch config file").Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for re-watch failure warning")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

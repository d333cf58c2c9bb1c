// Package config provides configuration management for the factord
// daemon.
package config

import (
	"fmt"
	"time"
)

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// String returns the string representation of Environment
func (e Environment) String() string {
	return string(e)
}

// IsValid checks if the environment is valid
func (e Environment) IsValid() bool {
	switch e {
	case EnvDevelopment, EnvTesting, EnvStaging, EnvProduction:
		return true
	default:
		return false
	}
}

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// String returns the string representation of LogLevel
func (l LogLevel) String() string {
	return string(l)
}

// IsValid checks if the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	default:
		return false
	}
}

// Config represents the complete factord configuration
type Config struct {
	// Application configuration
	App AppConfig `yaml:"app" json:"app"`

	// Logging configuration
	Log LogConfig `yaml:"log" json:"log"`

	// Network configuration
	Network NetworkConfig `yaml:"network" json:"network"`

	// Worker pool configuration
	Worker WorkerConfig `yaml:"worker" json:"worker"`

	// Factorization engine configuration
	Factor FactorConfig `yaml:"factor" json:"factor"`

	// Result cache configuration
	Cache CacheConfig `yaml:"cache" json:"cache"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	// Application name
	Name string `yaml:"name" json:"name"`

	// Application version
	Version string `yaml:"version" json:"version"`

	// Deployment environment
	Environment Environment `yaml:"environment" json:"environment"`

	// Debug mode
	Debug bool `yaml:"debug" json:"debug"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	// Log level
	Level LogLevel `yaml:"level" json:"level"`

	// Log format (json, console)
	Format string `yaml:"format" json:"format"`

	// Output destination (stdout, stderr, file path)
	Output string `yaml:"output" json:"output"`

	// Development mode: human-readable output, stacktraces on warn
	Development bool `yaml:"development" json:"development"`
}

// RateLimitConfig contains per-connection request rate limiting
type RateLimitConfig struct {
	// Enable rate limiting
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Sustained requests per second per connection
	RPS float64 `yaml:"rps" json:"rps"`

	// Burst size per connection
	Burst int `yaml:"burst" json:"burst"`
}

// NetworkConfig contains network-related configuration
type NetworkConfig struct {
	// Listening address
	Host string `yaml:"host" json:"host"`

	// Listening port
	Port int `yaml:"port" json:"port"`

	// Maximum concurrent connections
	MaxConnections int `yaml:"max_connections" json:"max_connections"`

	// Maximum frame payload size in bytes
	MaxFrameBytes int `yaml:"max_frame_bytes" json:"max_frame_bytes"`

	// Idle timeout before a silent connection is dropped
	IdleTimeout Duration `yaml:"idle_timeout" json:"idle_timeout"`

	// Per-connection request rate limiting
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

// Dispatch strategies for the worker pool.
const (
	DispatchRoundRobin = "round-robin"
	DispatchLeastBusy  = "least-busy"
)

// WorkerConfig contains worker pool configuration
type WorkerConfig struct {
	// Number of worker actors
	Count int `yaml:"count" json:"count"`

	// Mailbox size per worker
	MailboxSize int `yaml:"mailbox_size" json:"mailbox_size"`

	// Dispatch strategy: round-robin or least-busy
	Dispatch string `yaml:"dispatch" json:"dispatch"`
}

// FactorConfig contains factorization engine tunables
type FactorConfig struct {
	// Trial-division sieve bound
	SieveLimit uint64 `yaml:"sieve_limit" json:"sieve_limit"`

	// Miller-Rabin round count
	Rounds int `yaml:"rounds" json:"rounds"`

	// Pollard rho restart bound
	RhoRetries int `yaml:"rho_retries" json:"rho_retries"`
}

// RedisConfig contains connection settings for a Redis-backed cache
type RedisConfig struct {
	// Server address, host:port
	Addr string `yaml:"addr" json:"addr"`

	// Optional password
	Password string `yaml:"password" json:"password"`

	// Database index
	DB int `yaml:"db" json:"db"`
}

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// CacheConfig contains result cache configuration
type CacheConfig struct {
	// Enable the result cache
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Backend: memory or redis
	Backend string `yaml:"backend" json:"backend"`

	// Entry time-to-live
	TTL Duration `yaml:"ttl" json:"ttl"`

	// Maximum entries for the memory backend
	MaxEntries int `yaml:"max_entries" json:"max_entries"`

	// Redis connection settings for the redis backend
	Redis RedisConfig `yaml:"redis" json:"redis"`
}

// DefaultConfig returns the default factord configuration.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "factord",
			Version:     "1.0.0",
			Environment: EnvDevelopment,
			Debug:       false,
		},
		Log: LogConfig{
			Level:       LogLevelInfo,
			Format:      "json",
			Output:      "stderr",
			Development: false,
		},
		Network: NetworkConfig{
			Host:           "0.0.0.0",
			Port:           7461,
			MaxConnections: 1024,
			MaxFrameBytes:  64 * 1024,
			IdleTimeout:    Duration(5 * time.Minute),
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Worker: WorkerConfig{
			Count:       4,
			MailboxSize: 256,
			Dispatch:    DispatchLeastBusy,
		},
		Factor: FactorConfig{
			SieveLimit: 100000,
			Rounds:     5,
			RhoRetries: 50,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Backend:    CacheBackendMemory,
			TTL:        Duration(time.Hour),
			MaxEntries: 4096,
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return ErrInvalidAppName
	}
	if !c.App.Environment.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidEnvironment, c.App.Environment)
	}
	if !c.Log.Level.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Log.Format)
	}
	if c.Network.Port <= 0 || c.Network.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Network.Port)
	}
	if c.Network.MaxConnections <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxConnections, c.Network.MaxConnections)
	}
	if c.Network.MaxFrameBytes < 64 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxFrameBytes, c.Network.MaxFrameBytes)
	}
	if c.Network.RateLimit.Enabled {
		if c.Network.RateLimit.RPS <= 0 || c.Network.RateLimit.Burst <= 0 {
			return ErrInvalidRateLimit
		}
	}
	if c.Worker.Count <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkerCount, c.Worker.Count)
	}
	if c.Worker.MailboxSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMailboxSize, c.Worker.MailboxSize)
	}
	if c.Worker.Dispatch != DispatchRoundRobin && c.Worker.Dispatch != DispatchLeastBusy {
		return fmt.Errorf("%w: %q", ErrInvalidDispatch, c.Worker.Dispatch)
	}
	if c.Factor.SieveLimit < 2 {
		return fmt.Errorf("%w: %d", ErrInvalidSieveLimit, c.Factor.SieveLimit)
	}
	if c.Factor.Rounds <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRounds, c.Factor.Rounds)
	}
	if c.Factor.RhoRetries <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRhoRetries, c.Factor.RhoRetries)
	}
	if c.Cache.Enabled {
		switch c.Cache.Backend {
		case CacheBackendMemory:
			if c.Cache.MaxEntries <= 0 {
				return fmt.Errorf("%w: %d", ErrInvalidCacheSize, c.Cache.MaxEntries)
			}
		case CacheBackendRedis:
			if c.Cache.Redis.Addr == "" {
				return ErrMissingRedisAddr
			}
		default:
			return fmt.Errorf("%w: %q", ErrInvalidCacheBackend, c.Cache.Backend)
		}
	}
	return nil
}

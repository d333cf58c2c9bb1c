// Package config provides configuration loading and parsing functionality
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFormat represents the configuration file format
type ConfigFormat string

const (
	FormatYAML ConfigFormat = "yaml"
	FormatJSON ConfigFormat = "json"
)

// Loader handles configuration loading from various sources
type Loader struct {
	// Configuration search paths
	searchPaths []string

	// Environment variable prefix
	envPrefix string

	// Default configuration
	defaultConfig *Config
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		searchPaths: []string{
			".",
			"./config",
			"./configs",
			"/etc/factord",
			os.Getenv("HOME") + "/.factord",
		},
		envPrefix:     "FACTORD",
		defaultConfig: DefaultConfig(),
	}
}

// SetSearchPaths sets the configuration file search paths
func (l *Loader) SetSearchPaths(paths []string) *Loader {
	l.searchPaths = paths
	return l
}

// SetEnvPrefix sets the environment variable prefix
func (l *Loader) SetEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// SetDefaultConfig sets the default configuration
func (l *Loader) SetDefaultConfig(config *Config) *Loader {
	l.defaultConfig = config
	return l
}

// LoadFromFile loads configuration from a specific file
func (l *Loader) LoadFromFile(filename string) (*Config, error) {
	return l.loadFromFile(filename)
}

// LoadFromReader loads configuration from an io.Reader
func (l *Loader) LoadFromReader(reader io.Reader, format ConfigFormat) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration data: %w", err)
	}

	config, err := l.parseConfig(data, format)
	if err != nil {
		return nil, err
	}

	return l.finalize(config)
}

// AutoLoad automatically discovers and loads configuration. When no
// file is found in the search paths, defaults plus environment
// overrides are used.
func (l *Loader) AutoLoad() (*Config, error) {
	configFile, _, err := l.findConfigFile()
	if err != nil {
		if err == ErrConfigFileNotFound {
			config := l.defaults()
			return l.finalize(config)
		}
		return nil, err
	}

	return l.loadFromFile(configFile)
}

// defaults returns a copy of the default configuration.
func (l *Loader) defaults() *Config {
	base := l.defaultConfig
	if base == nil {
		base = DefaultConfig()
	}
	copied := *base
	return &copied
}

// findConfigFile searches for configuration files in search paths
func (l *Loader) findConfigFile() (string, ConfigFormat, error) {
	filenames := []string{
		"factord.yaml", "factord.yml",
		"config.yaml", "config.yml",
		"factord.json", "config.json",
	}

	for _, searchPath := range l.searchPaths {
		for _, filename := range filenames {
			fullPath := filepath.Join(searchPath, filename)
			if _, err := os.Stat(fullPath); err == nil {
				switch strings.ToLower(filepath.Ext(filename)) {
				case ".yaml", ".yml":
					return fullPath, FormatYAML, nil
				case ".json":
					return fullPath, FormatJSON, nil
				}
			}
		}
	}

	return "", "", ErrConfigFileNotFound
}

// loadFromFile loads configuration from a file
func (l *Loader) loadFromFile(filename string) (*Config, error) {
	var format ConfigFormat
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		format = FormatYAML
	case ".json":
		format = FormatJSON
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", filepath.Ext(filename))
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := l.parseConfig(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	return l.finalize(config)
}

// finalize applies env overrides and validates.
func (l *Loader) finalize(config *Config) (*Config, error) {
	if err := l.loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// parseConfig parses configuration data based on format. Decoding
// starts from a defaults-populated config so absent keys keep their
// default values while present keys overwrite them, including booleans
// explicitly set to false.
func (l *Loader) parseConfig(data []byte, format ConfigFormat) (*Config, error) {
	config := l.defaults()

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", format)
	}

	return config, nil
}

// loadFromEnv loads configuration overrides from environment variables
func (l *Loader) loadFromEnv(config *Config) error {
	// App configuration
	if val := os.Getenv(l.envPrefix + "_APP_NAME"); val != "" {
		config.App.Name = val
	}
	if val := os.Getenv(l.envPrefix + "_APP_ENVIRONMENT"); val != "" {
		config.App.Environment = Environment(val)
	}
	if val := os.Getenv(l.envPrefix + "_APP_DEBUG"); val != "" {
		config.App.Debug = strings.ToLower(val) == "true"
	}

	// Log configuration
	if val := os.Getenv(l.envPrefix + "_LOG_LEVEL"); val != "" {
		config.Log.Level = LogLevel(val)
	}
	if val := os.Getenv(l.envPrefix + "_LOG_FORMAT"); val != "" {
		config.Log.Format = val
	}
	if val := os.Getenv(l.envPrefix + "_LOG_OUTPUT"); val != "" {
		config.Log.Output = val
	}

	// Network configuration
	if val := os.Getenv(l.envPrefix + "_NETWORK_HOST"); val != "" {
		config.Network.Host = val
	}
	if val := os.Getenv(l.envPrefix + "_NETWORK_PORT"); val != "" {
		if port, err := parsePort(val); err == nil {
			config.Network.Port = port
		} else {
			return err
		}
	}

	// Worker configuration
	if val := os.Getenv(l.envPrefix + "_WORKER_COUNT"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidWorkerCount, val)
		}
		config.Worker.Count = n
	}
	if val := os.Getenv(l.envPrefix + "_WORKER_DISPATCH"); val != "" {
		config.Worker.Dispatch = val
	}

	// Factor configuration
	if val := os.Getenv(l.envPrefix + "_FACTOR_SIEVE_LIMIT"); val != "" {
		n, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidSieveLimit, val)
		}
		config.Factor.SieveLimit = n
	}
	if val := os.Getenv(l.envPrefix + "_FACTOR_ROUNDS"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidRounds, val)
		}
		config.Factor.Rounds = n
	}

	// Cache configuration
	if val := os.Getenv(l.envPrefix + "_CACHE_ENABLED"); val != "" {
		config.Cache.Enabled = strings.ToLower(val) == "true"
	}
	if val := os.Getenv(l.envPrefix + "_CACHE_BACKEND"); val != "" {
		config.Cache.Backend = val
	}
	if val := os.Getenv(l.envPrefix + "_CACHE_REDIS_ADDR"); val != "" {
		config.Cache.Redis.Addr = val
	}
	if val := os.Getenv(l.envPrefix + "_CACHE_REDIS_PASSWORD"); val != "" {
		config.Cache.Redis.Password = val
	}

	return nil
}

// Helper function to parse port number
func parsePort(val string) (int, error) {
	port, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPort, val)
	}
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPort, port)
	}
	return port, nil
}

// ReloadableDiff describes which hot-reloadable settings changed
// between two configurations.
type ReloadableDiff struct {
	LogLevelChanged  bool
	RateLimitChanged bool
	Ignored          []string
}

// DiffReloadable compares two configurations and reports which
// hot-reloadable fields changed; structural changes that require a
// restart are collected in Ignored.
func DiffReloadable(prev, next *Config) ReloadableDiff {
	var d ReloadableDiff

	if prev.Log.Level != next.Log.Level {
		d.LogLevelChanged = true
	}
	if prev.Network.RateLimit != next.Network.RateLimit {
		d.RateLimitChanged = true
	}

	if prev.Network.Host != next.Network.Host || prev.Network.Port != next.Network.Port {
		d.Ignored = append(d.Ignored, "network address")
	}
	if prev.Worker != next.Worker {
		d.Ignored = append(d.Ignored, "worker pool")
	}
	if prev.Factor != next.Factor {
		d.Ignored = append(d.Ignored, "factor engine")
	}
	if prev.Cache != next.Cache {
		d.Ignored = append(d.Ignored, "cache")
	}

	return d
}

// Address renders the effective listen address.
func (n NetworkConfig) Address() string {
	return n.Host + ":" + strconv.Itoa(n.Port)
}

// Package config provides error definitions for configuration management
package config

import "errors"

// Configuration validation errors
var (
	ErrInvalidAppName        = errors.New("invalid application name")
	ErrInvalidEnvironment    = errors.New("invalid environment")
	ErrInvalidLogLevel       = errors.New("invalid log level")
	ErrInvalidLogFormat      = errors.New("invalid log format")
	ErrInvalidPort           = errors.New("invalid port number")
	ErrInvalidMaxConnections = errors.New("invalid max connections")
	ErrInvalidMaxFrameBytes  = errors.New("invalid max frame size")
	ErrInvalidRateLimit      = errors.New("invalid rate limit settings")
	ErrInvalidWorkerCount    = errors.New("invalid worker count")
	ErrInvalidMailboxSize    = errors.New("invalid mailbox size")
	ErrInvalidDispatch       = errors.New("invalid dispatch strategy")
	ErrInvalidSieveLimit     = errors.New("invalid sieve limit")
	ErrInvalidRounds         = errors.New("invalid primality round count")
	ErrInvalidRhoRetries     = errors.New("invalid rho retry bound")
	ErrInvalidCacheSize      = errors.New("invalid cache size")
	ErrInvalidCacheBackend   = errors.New("invalid cache backend")
	ErrMissingRedisAddr      = errors.New("redis cache backend requires an address")
)

// Configuration loading errors
var (
	ErrConfigFileNotFound = errors.New("configuration file not found")
)

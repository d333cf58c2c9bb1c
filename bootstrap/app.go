// Package bootstrap assembles the daemon: configuration, logging, the
// factorization engine, the worker pool and the TCP server, with
// config hot reload and graceful shutdown.
package bootstrap

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/primeworks/factord/config"
	"github.com/primeworks/factord/core"
	"github.com/primeworks/factord/factor"
	"github.com/primeworks/factord/logging"
	"github.com/primeworks/factord/network"
	"github.com/primeworks/factord/worker"
)

const shutdownTimeout = 30 * time.Second

// App owns every long-lived component of the daemon.
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	logLevel zap.AtomicLevel

	engine  *factor.Engine
	system  core.ActorSystem
	pool    *worker.Pool
	server  *network.Server
	watcher *config.Watcher

	mu      sync.Mutex
	running bool

	janitorCancel context.CancelFunc
}

// New builds an application from the given configuration. configFile
// is the path the configuration was loaded from; when empty, hot
// reload is disabled.
func New(cfg *config.Config, configFile string) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, level, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	app := &App{
		cfg:      cfg,
		logger:   logger,
		logLevel: level,
	}

	logger.Info("building factorization engine",
		zap.Uint64("sieve_limit", cfg.Factor.SieveLimit),
		zap.Int("rounds", cfg.Factor.Rounds))

	engine := factor.NewEngine(factor.Options{
		SieveLimit: cfg.Factor.SieveLimit,
		Rounds:     cfg.Factor.Rounds,
		RhoRetries: cfg.Factor.RhoRetries,
	})
	app.engine = engine

	logger.Info("engine ready", zap.Int("sieved_primes", engine.PrimeCount()))

	app.system = core.NewActorSystem()

	cache := worker.NewCache(cfg.Cache)
	if mc, ok := cache.(*worker.MemoryCache); ok {
		ctx, cancel := context.WithCancel(context.Background())
		app.janitorCancel = cancel
		mc.StartJanitor(ctx, time.Minute)
	}

	pool, err := worker.NewPool(app.system, engine, cfg.Worker, cache, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build worker pool: %w", err)
	}
	app.pool = pool

	app.server = network.NewServer(cfg.Network, pool, logger)

	if configFile != "" {
		watcher, err := config.NewWatcher(configFile, config.NewLoader(), logger)
		if err != nil {
			// A broken watcher degrades to static config, not startup failure
			logger.Warn("config hot reload unavailable", zap.Error(err))
		} else {
			watcher.OnConfigChange(app.applyReload)
			app.watcher = watcher
		}
	}

	return app, nil
}

// Logger exposes the application logger, mainly for main.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Server exposes the TCP server, mainly for tests that need the bound
// address.
func (a *App) Server() *network.Server {
	return a.server
}

// Start brings up the server and the config watcher.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return fmt.Errorf("application is already running")
	}

	if err := a.server.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	if a.watcher != nil {
		if err := a.watcher.Start(); err != nil {
			a.logger.Warn("config watcher failed to start", zap.Error(err))
			a.watcher = nil
		}
	}

	a.running = true
	return nil
}

// Run starts the application and blocks until ctx is cancelled or a
// SIGINT/SIGTERM arrives, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	a.logger.Info("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Shutdown stops components in reverse start order: no new
// connections, then workers, then the rest.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return nil
	}
	a.running = false

	if a.watcher != nil {
		a.watcher.Stop()
	}

	if err := a.server.Stop(); err != nil {
		a.logger.Warn("server stop failed", zap.Error(err))
	}

	if err := a.system.Shutdown(ctx); err != nil {
		a.logger.Warn("actor system shutdown failed", zap.Error(err))
	}

	if a.janitorCancel != nil {
		a.janitorCancel()
	}
	if err := a.pool.Close(); err != nil {
		a.logger.Warn("pool close failed", zap.Error(err))
	}

	a.logger.Info("shutdown complete")
	a.logger.Sync()
	return nil
}

// applyReload applies the reloadable subset of a changed configuration:
// log level and rate limit. Everything else requires a restart and is
// logged as ignored.
func (a *App) applyReload(prev, next *config.Config) {
	diff := config.DiffReloadable(prev, next)

	if diff.LogLevelChanged {
		level, err := logging.ParseLevel(next.Log.Level)
		if err != nil {
			a.logger.Warn("reload: invalid log level", zap.String("level", string(next.Log.Level)))
		} else {
			a.logLevel.SetLevel(level)
			a.logger.Info("reload: log level changed", zap.String("level", string(next.Log.Level)))
		}
	}

	if diff.RateLimitChanged {
		a.server.SetRateLimit(next.Network.RateLimit)
		a.logger.Info("reload: rate limit changed",
			zap.Bool("enabled", next.Network.RateLimit.Enabled),
			zap.Float64("rps", next.Network.RateLimit.RPS),
			zap.Int("burst", next.Network.RateLimit.Burst))
	}

	if len(diff.Ignored) > 0 {
		a.logger.Warn("reload: changes require restart",
			zap.String("fields", strings.Join(diff.Ignored, ", ")))
	}
}

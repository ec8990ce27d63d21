// Package app wires application dependencies.
package app

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/config"
	"github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/core"
	"github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/observability"
	boltstore "github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/store/bolt"
	"github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/store/inmemory"
	"github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/store/redisstore"
	httptransport "github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/transport/http"
)

// Options carries dependencies the host process supplies.
type Options struct {
	// SendFn dispatches messages on their channel transport. Required for
	// real deliveries; when nil a logging stub is used so the service can
	// run in dry-run mode.
	SendFn core.SendFunc
	Clock  core.Clock
	Logger observability.Logger
}

// Application holds core components for the service.
type Application struct {
	Config   *config.Config
	Governor *core.Governor

	limiter       *core.RateLimiter
	warnings      *core.WarningLog
	pause         *core.PauseGovernor
	queue         *core.OutboundQueue
	history       *core.SendHistory
	monitor       *core.RiskMonitor
	metrics       *observability.InMemoryMetrics
	logger        observability.Logger
	httpTransport *httptransport.HTTPTransport
	transports    []core.Transport
	boltStore     *boltstore.QueueStore
	redisClient   *redis.Client
	ready         atomic.Bool
	cancel        context.CancelFunc
	group         *errgroup.Group
}

// NewApplication validates configuration and prepares the application.
func NewApplication(cfg *config.Config, opts Options) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = observability.NewLogrusLogger(os.Stdout, cfg.LogLevel)
	}
	clock := opts.Clock
	if clock == nil {
		clock = core.SystemClock{}
	}
	metrics := observability.NewInMemoryMetrics()

	app := &Application{Config: cfg, metrics: metrics, logger: logger}

	var counters core.CounterStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store, err := redisstore.NewCounterStore(client, cfg.RedisKeyPrefix)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		app.redisClient = client
		counters = store
	} else {
		counters = inmemory.NewCounterStore()
	}

	limiter, err := core.NewRateLimiter(counters, clock, cfg.HourlyLimit, cfg.DailyLimit)
	if err != nil {
		app.closeStores()
		return nil, err
	}

	warnings := core.NewWarningLog(cfg.MaxWarnings, cfg.WarningRetention, clock)
	pause := core.NewPauseGovernor(clock, logger)

	var queueStore core.QueueStore
	if cfg.QueuePath != "" {
		store, err := boltstore.Open(cfg.QueuePath)
		if err != nil {
			app.closeStores()
			return nil, err
		}
		app.boltStore = store
		queueStore = store
	} else {
		queueStore = inmemory.NewQueueStore()
	}

	queue, err := core.NewOutboundQueue(queueStore, limiter, pause, clock, cfg.QueuePolicy())
	if err != nil {
		app.closeStores()
		return nil, err
	}
	queue.SetObservers(logger, metrics)

	history := core.NewSendHistory(cfg.HistorySize)
	scorer := core.NewRiskScorer(cfg.Weights(), cfg.Thresholds())
	monitor, err := core.NewRiskMonitor(scorer, limiter, history, warnings, pause, queue, clock, cfg.RewarnCooldown)
	if err != nil {
		app.closeStores()
		return nil, err
	}
	monitor.SetObservers(logger, metrics)

	sendFn := opts.SendFn
	if sendFn == nil {
		sendFn = func(_ context.Context, msg *core.QueuedMessage) error {
			logger.Info("dry-run delivery", map[string]any{
				"channel":     msg.Channel,
				"destination": msg.Destination,
			})
			return nil
		}
	}

	governor, err := core.NewGovernor(core.GovernorDeps{
		Limiter:  limiter,
		Warnings: warnings,
		Pause:    pause,
		Queue:    queue,
		History:  history,
		Monitor:  monitor,
		SendFn:   sendFn,
		Clock:    clock,
		Policy:   cfg.QueuePolicy(),
		Logger:   logger,
		Metrics:  metrics,
	})
	if err != nil {
		app.closeStores()
		return nil, err
	}

	app.limiter = limiter
	app.warnings = warnings
	app.pause = pause
	app.queue = queue
	app.history = history
	app.monitor = monitor
	app.Governor = governor

	transport := httptransport.NewHTTPTransport(cfg.HTTPListenAddr, app.Ready)
	if err := transport.ServeGovernor(governor); err != nil {
		app.closeStores()
		return nil, err
	}
	transport.Configure(httptransport.HTTPTransportConfig{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		MaxBodyBytes: cfg.MaxBodyBytes,
		EnableAuth:   cfg.EnableAuth,
		AdminToken:   cfg.AdminToken,
		Logger:       logger,
		Metrics:      metrics,
	})
	app.httpTransport = transport
	app.transports = append(app.transports, transport)

	return app, nil
}

// Start begins background work for the application.
func (app *Application) Start(ctx context.Context) error {
	if app == nil {
		return errors.New("application is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	app.cancel = cancel

	group, gctx := errgroup.WithContext(ctx)
	app.group = group

	if app.httpTransport != nil {
		group.Go(app.httpTransport.Start)
	}
	group.Go(func() error {
		return app.drainLoop(gctx)
	})
	group.Go(func() error {
		return app.riskLoop(gctx)
	})

	app.ready.Store(true)
	if app.logger != nil {
		app.logger.Info("application started", map[string]any{
			"listen_addr":  app.Config.HTTPListenAddr,
			"hourly_limit": app.Config.HourlyLimit,
			"daily_limit":  app.Config.DailyLimit,
		})
	}
	return nil
}

// drainLoop periodically retries the outbound backlog.
func (app *Application) drainLoop(ctx context.Context) error {
	ticker := time.NewTicker(app.Config.DrainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			result, err := app.Governor.Drain(ctx)
			if err != nil && app.logger != nil {
				app.logger.Warn("queue drain pass ended early", map[string]any{
					"error":         err.Error(),
					"delivered":     result.Delivered,
					"still_pending": result.StillPending,
				})
			}
		}
	}
}

// riskLoop periodically re-evaluates platform-ban risk.
func (app *Application) riskLoop(ctx context.Context) error {
	ticker := time.NewTicker(app.Config.RiskInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := app.Governor.Score(ctx); err != nil && app.logger != nil {
				app.logger.Warn("risk evaluation failed", map[string]any{"error": err.Error()})
			}
		}
	}
}

// Shutdown stops background work for the application.
func (app *Application) Shutdown(ctx context.Context) error {
	if app == nil {
		return errors.New("application is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	app.ready.Store(false)
	if app.logger != nil {
		app.logger.Info("application shutdown", map[string]any{
			"listen_addr": app.Config.HTTPListenAddr,
		})
	}
	for _, transport := range app.transports {
		if transport == nil {
			continue
		}
		_ = transport.Shutdown(ctx)
	}
	if app.cancel != nil {
		app.cancel()
	}
	var waitErr error
	if app.group != nil {
		done := make(chan error, 1)
		go func() { done <- app.group.Wait() }()
		select {
		case err := <-done:
			waitErr = err
		case <-ctx.Done():
			waitErr = ctx.Err()
		}
	}
	app.closeStores()
	return waitErr
}

func (app *Application) closeStores() {
	if app.boltStore != nil {
		_ = app.boltStore.Close()
		app.boltStore = nil
	}
	if app.redisClient != nil {
		_ = app.redisClient.Close()
		app.redisClient = nil
	}
}

// Ready reports whether the application has completed startup.
func (app *Application) Ready() bool {
	if app == nil {
		return false
	}
	return app.ready.Load()
}

// Package main is the entrypoint for the precipwatch engine.
//
// The process wires the local SQLite store, the forecast provider adapters,
// the alert evaluation engine, the periodic check scheduler, and the
// localhost control API, then runs until SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"precipwatch/internal/alerts"
	"precipwatch/internal/api"
	"precipwatch/internal/config"
	"precipwatch/internal/db"
	"precipwatch/internal/forecasts"
	"precipwatch/internal/providers"
	"precipwatch/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("precipwatch starting",
		"environment", cfg.Environment,
		"db_path", cfg.Database.Path,
		"provider", string(cfg.Providers.Default),
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("precipwatch exited with error", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqlDB, err := db.Open(cfg.Database.Path, cfg.Database.BusyTimeout)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := db.Migrate(ctx, sqlDB); err != nil {
		return err
	}
	if err := db.SeedCities(ctx, sqlDB); err != nil {
		return err
	}

	alertRepo := db.NewAlertRepository(sqlDB, nil)
	cityRepo := db.NewCityRepository(sqlDB)
	cacheRepo := db.NewForecastCacheRepository(sqlDB)
	historyRepo := db.NewHistoryRepository(sqlDB)
	prefsRepo := db.NewPrefsRepository(sqlDB)

	httpClient := &http.Client{Timeout: cfg.Providers.RequestTimeout}
	registry := providers.DefaultRegistry(httpClient, cfg.Providers.UserAgent)

	cacheService := forecasts.NewCacheService(forecasts.CacheServiceConfig{
		Repo:       cacheRepo,
		Providers:  registry,
		Keys:       prefsRepo,
		DefaultKey: cfg.Providers.DefaultAPIKey,
		Logger:     logger,
	})

	snoozeMgr, err := alerts.NewSnoozeManager(nil, cfg.Providers.Timezone)
	if err != nil {
		return err
	}

	engine := alerts.NewEngine(alerts.EngineConfig{
		Cities:     cityRepo,
		Forecasts:  cacheService,
		History:    historyRepo,
		Dispatcher: alerts.NewLogDispatcher(logger),
		Snooze:     snoozeMgr,
		Provider:   cfg.Providers.Default,
		Window:     time.Duration(cfg.Scheduler.WindowHours) * time.Hour,
		Logger:     logger,
	})

	runner := scheduler.NewCheckRunner(scheduler.CheckRunnerConfig{
		Alerts: alertRepo,
		Engine: engine,
		Prefs:  prefsRepo,
		Logger: logger,
	})

	interval := scheduler.EffectiveInterval(ctx, prefsRepo, cfg.Scheduler.CheckInterval)
	sched := scheduler.NewScheduler(runner, interval, logger)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer func() { <-sched.Stop().Done() }()

	server := api.NewServer(api.ServerConfig{
		Alerts:    alertRepo,
		Cities:    cityRepo,
		History:   historyRepo,
		Prefs:     prefsRepo,
		Validator: engine,
		Runner:    runner,
		Scheduler: sched,
		Snooze:    snoozeMgr,
		Providers: registry.Names(),
		Logger:    logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("control API listening", "addr", cfg.Server.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("control API shutdown incomplete", "error", err)
	}

	logger.Info("precipwatch stopped")
	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"github.com/Veraticus/sortwise/internal/background"
	"github.com/Veraticus/sortwise/internal/config"
	"github.com/Veraticus/sortwise/internal/engine"
	"github.com/Veraticus/sortwise/internal/history"
	"github.com/Veraticus/sortwise/internal/impact"
	"github.com/Veraticus/sortwise/internal/llm"
	"github.com/Veraticus/sortwise/internal/remote"
	"github.com/Veraticus/sortwise/internal/session"
	"github.com/Veraticus/sortwise/internal/storage"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// app holds everything a command needs, built from configuration.
type app struct {
	store      *storage.SQLiteStorage
	history    *history.Engine
	scanner    *engine.Scanner
	aggregator *impact.Aggregator
	queue      *background.Queue
	registry   *prometheus.Registry
	logger     *slog.Logger
	session    session.Session
	cfg        config.Config
}

// openStorage opens and migrates the local database. Commands that only
// touch local state use it without needing a relay configured.
func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "~/.local/share/sortwise/sortwise.db"
	}

	store, err := storage.NewSQLiteStorage(config.ExpandPath(dbPath))
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newApp wires the full pipeline.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	logger := slog.Default()

	store, err := openStorage(ctx)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	metrics := llm.NewMetrics(registry)

	relay, err := llm.NewRelayClient(llm.RelayConfig{
		URL:           cfg.Relay.URL,
		QuotaURL:      cfg.Relay.QuotaURL,
		APIKey:        cfg.Relay.APIKey,
		Timeout:       cfg.Relay.Timeout,
		MaxImageBytes: cfg.Relay.MaxImageBytes,
	}, metrics)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	classifier := llm.NewClassifier(relay, llm.Config{
		MaxImageBytes:   cfg.Relay.MaxImageBytes,
		MaxOutputTokens: cfg.Relay.MaxOutputTokens,
		RateLimit:       cfg.Relay.RateLimit,
		UseWebSearch:    cfg.Relay.UseWebSearch,
		CacheEnabled:    cfg.Cache.Enabled,
		CacheSizeMB:     cfg.Cache.SizeMB,
		CacheTTL:        cfg.Cache.TTL,
	}, metrics, logger)

	historyEngine := history.NewEngine(store, logger)
	queue := background.NewQueue(background.Config{TaskTimeout: cfg.SyncTimeout}, logger)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		history:  historyEngine,
		queue:    queue,
		registry: registry,
		session:  session.New(cfg.Auth.UserID, cfg.Auth.DisplayName, cfg.Auth.AccessToken),
	}

	deps := engine.Deps{
		Classifier: classifier,
		History:    historyEngine,
		Settings:   store,
		Logger:     logger,
	}

	if cfg.Backend.URL != "" {
		backend, err := remote.NewClient(remote.Config{
			URL:     cfg.Backend.URL,
			APIKey:  cfg.Backend.APIKey,
			Timeout: cfg.SyncTimeout,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		deps.Syncer = impact.NewSyncer(backend, queue, logger)
		a.aggregator = impact.NewAggregator(backend, logger)
	} else {
		a.aggregator = impact.NewAggregator(nil, logger)
	}

	a.scanner = engine.NewScanner(deps)
	return a, nil
}

// Close waits for pending syncs, writes metrics if configured and closes
// the database.
func (a *app) Close() {
	a.queue.Close()

	if a.cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(a.cfg.MetricsFile, a.registry); err != nil {
			a.logger.Warn("failed to write metrics", "path", a.cfg.MetricsFile, "error", err)
		}
	}

	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
}

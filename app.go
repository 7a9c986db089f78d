package main

import (
	"context"
	"fmt"

	"github.com/fatali-fataliyev/finance_tracker/internal/classifier"
	"github.com/fatali-fataliyev/finance_tracker/internal/config"
	"github.com/fatali-fataliyev/finance_tracker/internal/finance"
	"github.com/fatali-fataliyev/finance_tracker/internal/oracle"
	"github.com/fatali-fataliyev/finance_tracker/internal/storage"
	"github.com/fatali-fataliyev/finance_tracker/logging"
	"github.com/shopspring/decimal"
)

// app holds what every command needs: configuration, the tracker and the resources to release.
type app struct {
	cfg     config.Config
	tracker *finance.Tracker
	closers []func()
}

// setup loads the configuration, initializes the logger and builds the tracker on the configured
// storage backend.
func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if err := logging.Init(cfg.LogLevel, cfg.AppEnv, cfg.LogDir); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg}

	var store finance.Storage
	if cfg.StorageDriver == config.DriverMemory {
		logging.Logger.Warn("using in-memory storage, records are lost on exit")
		store = storage.NewMemoryStorage()
	} else {
		db, dialect, err := storage.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		sqlStore := storage.NewSQLStorage(db, dialect)
		a.closers = append(a.closers, func() { sqlStore.Close() })
		store = sqlStore
	}

	models, err := classifier.NewCache(cfg.ClassifierCacheSize, cfg.ClassifierCacheTTL)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create classifier cache: %w", err)
	}
	a.closers = append(a.closers, models.Close)

	quotes := oracle.NewClient(cfg.QuoteBaseURL, cfg.OracleTimeout)
	a.tracker = finance.NewTracker(store, quotes, models, decimal.NewFromFloat(cfg.FallbackUSDINRRate))
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sellImpact/internal/cache"
	"sellImpact/internal/catalog"
	"sellImpact/internal/config"
	"sellImpact/internal/geckoterminal"
	"sellImpact/internal/impact"
	"sellImpact/internal/model"
	"sellImpact/internal/reserve"
	"sellImpact/internal/storage"
	"sellImpact/internal/storage/postgres"
)

// app holds the wired components shared by every command.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	client  *geckoterminal.Client
	svc     *impact.Service
	pg      *postgres.Store
	sink    storage.Storage
	out     io.Writer
	outMu   sync.Mutex
	closers []func()
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, out: cmd.OutOrStdout(), sink: storage.Discard{}}
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	if cfg.CacheBackend == config.BackendPostgres || cfg.RecordHistory {
		pg, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		if err := pg.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		a.pg = pg
	}

	store, err := a.cacheStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Out != "" {
		a.sink = storage.NewJsonlStorage(cfg.Out)
	}

	a.client = geckoterminal.NewClient(geckoterminal.Config{
		BaseURL:     cfg.APIURL,
		Network:     cfg.Network,
		Timeout:     cfg.Timeout,
		BackoffStep: cfg.BackoffStep,
		BackoffCap:  cfg.BackoffCap,
		MaxFailures: cfg.MaxFailures,
	}, logger)

	svcCfg := impact.Config{
		Network:  cfg.Network,
		PoolTTL:  cfg.PoolTTL,
		QuoteTTL: cfg.QuoteTTL,
	}
	if cfg.RecordHistory {
		svcCfg.Recorder = a.pg
	}
	a.svc = impact.NewService(
		svcCfg,
		catalog.New(a.client, logger),
		a.client,
		reserve.USDSplit{},
		cache.New(store, logger, cache.WithNamespace(cache.DefaultNamespace+cfg.Network+":")),
		logger,
	)

	logger.Debug("sellimpact ready",
		zap.String("network", cfg.Network),
		zap.String("api_url", cfg.APIURL),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.Bool("record_history", cfg.RecordHistory),
		zap.String("out", cfg.Out),
	)
	return a, nil
}

func (a *app) cacheStore(ctx context.Context) (cache.Store, error) {
	switch a.cfg.CacheBackend {
	case config.BackendFile:
		return cache.NewFileStore(a.cfg.CacheFile), nil
	case config.BackendRedis:
		rs := cache.NewRedisStore(a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
		a.closers = append(a.closers, func() { _ = rs.Close() })
		if err := rs.Ping(ctx); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return rs, nil
	case config.BackendPostgres:
		purged, err := a.pg.PurgeExpired(ctx)
		if err != nil {
			a.logger.Warn("purge expired cache entries failed", zap.Error(err))
		} else if purged > 0 {
			a.logger.Debug("purged expired cache entries", zap.Int64("rows", purged))
		}
		return a.pg, nil
	default:
		return cache.NewMemoryStore(), nil
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// emit prints v as JSON and appends reports to the configured sink.
func (a *app) emit(v any, reports ...model.Report) error {
	a.outMu.Lock()
	defer a.outMu.Unlock()

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := a.sink.PutReports(reports); err != nil {
		return fmt.Errorf("write reports: %w", err)
	}
	return nil
}

// Package impact exposes the sell-impact operations on top of the pool
// catalog, the reserve estimator and the AMM math, with TTL caching.
package impact

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"sellImpact/internal/amm"
	"sellImpact/internal/cache"
	"sellImpact/internal/model"
	"sellImpact/internal/reserve"
)

const (
	DefaultPoolTTL  = 30 * time.Second
	DefaultQuoteTTL = 8 * time.Second
)

// PoolLister is the pool catalog.
type PoolLister interface {
	ListPoolsByToken(ctx context.Context, token, anchor string) ([]model.Pool, error)
}

// PoolSource fetches a single pool with asset prices.
type PoolSource interface {
	Pool(ctx context.Context, address string) (model.Pool, error)
}

// SnapshotRecorder persists snapshots as they are fetched.
type SnapshotRecorder interface {
	RecordSnapshots(ctx context.Context, network string, snapshots []model.PoolSnapshot) error
}

// Config controls caching and recording.
type Config struct {
	Network  string
	PoolTTL  time.Duration
	QuoteTTL time.Duration
	Recorder SnapshotRecorder
}

// Service implements listPoolsByToken, getPoolSnapshot, quoteImpact,
// maxSellUnder and splitCompare.
type Service struct {
	cfg       Config
	catalog   PoolLister
	source    PoolSource
	estimator reserve.Estimator
	cache     *cache.Cache
	logger    *zap.Logger
	group     singleflight.Group
}

func NewService(cfg Config, catalog PoolLister, source PoolSource, estimator reserve.Estimator, c *cache.Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PoolTTL <= 0 {
		cfg.PoolTTL = DefaultPoolTTL
	}
	if cfg.QuoteTTL <= 0 {
		cfg.QuoteTTL = DefaultQuoteTTL
	}
	if estimator == nil {
		estimator = reserve.USDSplit{}
	}
	if c == nil {
		c = cache.New(cache.NewMemoryStore(), logger)
	}
	return &Service{
		cfg:       cfg,
		catalog:   catalog,
		source:    source,
		estimator: estimator,
		cache:     c,
		logger:    logger,
	}
}

// ListPoolsByToken returns ranked pools for token, cached for PoolTTL.
func (s *Service) ListPoolsByToken(ctx context.Context, token, anchor string) ([]model.Pool, error) {
	if s.catalog == nil {
		return nil, fmt.Errorf("catalog is nil")
	}
	token, err := model.NormalizeAddress(token)
	if err != nil {
		return nil, err
	}

	key := "pools:" + token + ":" + strings.ToLower(strings.TrimSpace(anchor))
	var cached []model.Pool
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	v, err := s.shared(ctx, key, func(ctx context.Context) (any, error) {
		pools, err := s.catalog.ListPoolsByToken(ctx, token, anchor)
		if err != nil {
			return nil, err
		}
		s.store(ctx, key, pools, s.cfg.PoolTTL)
		return pools, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]model.Pool(nil), v.([]model.Pool)...), nil
}

// GetPoolSnapshot fetches a pool and estimates its reserves, cached for PoolTTL.
func (s *Service) GetPoolSnapshot(ctx context.Context, poolAddress string) (model.PoolSnapshot, error) {
	if s.source == nil {
		return model.PoolSnapshot{}, fmt.Errorf("pool source is nil")
	}
	poolAddress, err := model.NormalizePoolAddress(poolAddress)
	if err != nil {
		return model.PoolSnapshot{}, err
	}

	key := "pool:" + poolAddress
	var cached model.PoolSnapshot
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	v, err := s.shared(ctx, key, func(ctx context.Context) (any, error) {
		pool, err := s.source.Pool(ctx, poolAddress)
		if err != nil {
			return nil, fmt.Errorf("fetch pool %s: %w", poolAddress, err)
		}
		snap := s.estimator.Estimate(pool)
		s.record(ctx, snap)
		s.store(ctx, key, snap, s.cfg.PoolTTL)
		return snap, nil
	})
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	return v.(model.PoolSnapshot), nil
}

// QuoteImpact quotes selling amount of token into the pool, cached for
// QuoteTTL per (pool, token, amount).
func (s *Service) QuoteImpact(ctx context.Context, poolAddress, token string, amount float64) (model.Quote, error) {
	poolAddress, token, err := normalizePair(poolAddress, token)
	if err != nil {
		return model.Quote{}, err
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return model.Quote{}, fmt.Errorf("%w: amount must be positive, got %v", model.ErrBadInput, amount)
	}

	key := quoteKey(poolAddress, token, amount)
	var cached model.Quote
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	snap, err := s.GetPoolSnapshot(ctx, poolAddress)
	if err != nil {
		return model.Quote{}, err
	}
	q, err := amm.Quote(snap, amount, token)
	if err != nil {
		return model.Quote{}, err
	}
	s.store(ctx, key, q, s.cfg.QuoteTTL)
	return q, nil
}

// MaxSellUnder returns the largest amount of token sellable into the pool
// with impact at or below target.
func (s *Service) MaxSellUnder(ctx context.Context, poolAddress, token string, target float64) (float64, error) {
	poolAddress, token, err := normalizePair(poolAddress, token)
	if err != nil {
		return 0, err
	}
	snap, err := s.GetPoolSnapshot(ctx, poolAddress)
	if err != nil {
		return 0, err
	}
	best, err := amm.MaxSellUnder(snap, token, target)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("max sell computed",
		zap.String("pool", poolAddress),
		zap.String("token", token),
		zap.Float64("target", target),
		zap.Float64("amount", best),
		zap.Float64("bound", amm.InitialBound(snap, token)),
	)
	return best, nil
}

// SplitCompare simulates selling total in parts sequential fills.
func (s *Service) SplitCompare(ctx context.Context, poolAddress, token string, total float64, parts int) (model.SplitResult, error) {
	poolAddress, token, err := normalizePair(poolAddress, token)
	if err != nil {
		return model.SplitResult{}, err
	}
	snap, err := s.GetPoolSnapshot(ctx, poolAddress)
	if err != nil {
		return model.SplitResult{}, err
	}
	return amm.SplitCompare(snap, token, total, parts)
}

// shared coalesces concurrent loads of key. The load ignores caller
// cancellation and is bounded by the client's request timeout instead; each
// caller stops waiting when its own ctx is done.
func (s *Service) shared(ctx context.Context, key string, load func(context.Context) (any, error)) (any, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return load(detached)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func (s *Service) store(ctx context.Context, key string, value any, ttl time.Duration) {
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) record(ctx context.Context, snap model.PoolSnapshot) {
	if s.cfg.Recorder == nil {
		return
	}
	if err := s.cfg.Recorder.RecordSnapshots(ctx, s.cfg.Network, []model.PoolSnapshot{snap}); err != nil {
		s.logger.Warn("record snapshot failed", zap.String("pool", snap.Address), zap.Error(err))
	}
}

func normalizePair(poolAddress, token string) (string, string, error) {
	poolAddress, err := model.NormalizePoolAddress(poolAddress)
	if err != nil {
		return "", "", err
	}
	token, err = model.NormalizeAddress(token)
	if err != nil {
		return "", "", err
	}
	return poolAddress, token, nil
}

func quoteKey(poolAddress, token string, amount float64) string {
	return "quote:" + poolAddress + ":" + token + ":" + strconv.FormatFloat(amount, 'g', -1, 64)
}

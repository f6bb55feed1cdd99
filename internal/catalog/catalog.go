// Package catalog discovers and ranks candidate pools for a token.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"sellImpact/internal/model"
)

const (
	// MaxPools bounds the list returned to callers.
	MaxPools = 20
	// MaxFeeBps excludes pools charging more than 10%.
	MaxFeeBps = 1000
)

// PoolIndex lists pools for a token.
type PoolIndex interface {
	TokenPools(ctx context.Context, token string) ([]model.Pool, error)
}

// Catalog applies the dead-pool and fee filters, ranks, and prefers pools
// holding the anchor asset.
type Catalog struct {
	index  PoolIndex
	logger *zap.Logger
}

func New(index PoolIndex, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{index: index, logger: logger}
}

// ListPoolsByToken returns at most MaxPools ranked pools for token. anchor
// is a symbol or address; an empty anchor disables the preference.
func (c *Catalog) ListPoolsByToken(ctx context.Context, token, anchor string) ([]model.Pool, error) {
	if c.index == nil {
		return nil, fmt.Errorf("pool index is nil")
	}
	normalized, err := model.NormalizeAddress(token)
	if err != nil {
		return nil, err
	}

	raw, err := c.index.TokenPools(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("list pools for %s: %w", normalized, err)
	}

	pools := FilterPools(raw)
	RankPools(pools)
	pools = PreferAnchor(pools, anchor)
	if len(pools) > MaxPools {
		pools = pools[:MaxPools]
	}

	c.logger.Debug("pools listed",
		zap.String("token", normalized),
		zap.String("anchor", anchor),
		zap.Int("raw", len(raw)),
		zap.Int("returned", len(pools)),
	)
	return pools, nil
}

// FilterPools drops dead pools (no liquidity or no 24h volume) and pools
// with fees above MaxFeeBps. The input is not modified.
func FilterPools(pools []model.Pool) []model.Pool {
	out := make([]model.Pool, 0, len(pools))
	for _, p := range pools {
		if !(p.ReserveUSD > 0) || !(p.Volume24hUSD > 0) {
			continue
		}
		if p.FeeBps > MaxFeeBps {
			continue
		}
		out = append(out, p)
	}
	return out
}

// RankPools sorts in place: 24h volume desc, liquidity desc, fee asc, then
// address asc.
func RankPools(pools []model.Pool) {
	sort.SliceStable(pools, func(i, j int) bool {
		return less(pools[i], pools[j])
	})
}

func less(a, b model.Pool) bool {
	if a.Volume24hUSD != b.Volume24hUSD {
		return a.Volume24hUSD > b.Volume24hUSD
	}
	if a.ReserveUSD != b.ReserveUSD {
		return a.ReserveUSD > b.ReserveUSD
	}
	if a.FeeBps != b.FeeBps {
		return a.FeeBps < b.FeeBps
	}
	return strings.ToLower(a.Address) < strings.ToLower(b.Address)
}

// PreferAnchor keeps only pools holding anchor when at least one does.
// Order is preserved.
func PreferAnchor(pools []model.Pool, anchor string) []model.Pool {
	if strings.TrimSpace(anchor) == "" {
		return pools
	}
	anchored := make([]model.Pool, 0, len(pools))
	for _, p := range pools {
		if p.HasAsset(anchor) {
			anchored = append(anchored, p)
		}
	}
	if len(anchored) == 0 {
		return pools
	}
	return anchored
}

// Package reserve infers per-asset token reserves for pools whose index only
// exposes aggregate USD liquidity.
package reserve

import (
	"time"

	"sellImpact/internal/model"
)

// MethodUSDSplit names the 50/50 USD split heuristic on snapshots.
const MethodUSDSplit = "usd_split_50_50"

// Estimator turns a pool into a snapshot with per-asset reserves.
type Estimator interface {
	Estimate(pool model.Pool) model.PoolSnapshot
}

// USDSplit assumes both sides of the pool hold the same USD value and divides
// each half by the asset's USD price.
//
// The assumption holds for constant-product pools with accurate price feeds.
// It does not hold for skewed pools or concentrated-liquidity pools, where the
// estimate can be far off in either direction. Results are left as computed.
type USDSplit struct {
	Now func() time.Time
}

func (e USDSplit) Estimate(pool model.Pool) model.PoolSnapshot {
	half := pool.ReserveUSD / 2
	pool.Base.ReserveEstimate = reserveFromUSD(half, pool.Base.PriceUSD)
	pool.Quote.ReserveEstimate = reserveFromUSD(half, pool.Quote.PriceUSD)

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	return model.PoolSnapshot{
		Pool:          pool,
		ReserveMethod: MethodUSDSplit,
		FetchedAt:     now().UTC(),
	}
}

func reserveFromUSD(usd, price float64) float64 {
	if price <= 0 || usd <= 0 {
		return 0
	}
	return usd / price
}

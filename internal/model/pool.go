package model

import (
	"strings"
	"time"
)

// Fee sources recorded on a pool.
const (
	FeeSourceAttribute = "attribute"
	FeeSourceName      = "name"
	FeeSourceUnknown   = "unknown"
)

// Asset is one side of a pool.
type Asset struct {
	Symbol          string  `json:"symbol"`
	Address         string  `json:"address"`
	ReserveEstimate float64 `json:"reserve_estimate"`
	PriceUSD        float64 `json:"price_usd"`
}

// Pool is a candidate pool as reported by the pool index.
type Pool struct {
	Address      string  `json:"address"`
	Label        string  `json:"label"`
	FeeBps       uint32  `json:"fee_bps"`
	FeeSource    string  `json:"fee_source"`
	ReserveUSD   float64 `json:"reserve_usd"`
	Volume24hUSD float64 `json:"volume_24h_usd"`
	DexID        string  `json:"dex_id"`
	Base         Asset   `json:"base"`
	Quote        Asset   `json:"quote"`
}

// HasAsset reports whether either side matches symbolOrAddress (case-insensitive).
func (p Pool) HasAsset(symbolOrAddress string) bool {
	needle := strings.TrimSpace(symbolOrAddress)
	if needle == "" {
		return false
	}
	for _, a := range [2]Asset{p.Base, p.Quote} {
		if strings.EqualFold(a.Symbol, needle) || (a.Address != "" && strings.EqualFold(a.Address, needle)) {
			return true
		}
	}
	return false
}

// FeeFraction returns the fee as a fraction of the input amount.
func (p Pool) FeeFraction() float64 {
	return float64(p.FeeBps) / 10_000
}

// PoolSnapshot is a pool with per-asset reserves filled in by a reserve estimator.
type PoolSnapshot struct {
	Pool
	ReserveMethod string    `json:"reserve_method"`
	FetchedAt     time.Time `json:"fetched_at"`
}

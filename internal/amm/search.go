package amm

import (
	"fmt"
	"math"

	"sellImpact/internal/model"
)

// SearchIterations is the fixed bisection depth of MaxSellUnder. The result
// resolves to about initialBound / 2^28.
const SearchIterations = 28

// MaxSellUnder returns the largest sell amount whose quoted impact does not
// exceed target. The search interval is [0, reserve of the selling side]; when
// the token is in neither side, the larger of the two reserves is used as the
// bound and every probe fails, so the result is 0.
func MaxSellUnder(pool model.PoolSnapshot, sellToken string, target float64) (float64, error) {
	if math.IsNaN(target) || target < 0 {
		return 0, fmt.Errorf("%w: target impact must be >= 0, got %v", model.ErrBadInput, target)
	}

	lo, hi := 0.0, InitialBound(pool, sellToken)
	for i := 0; i < SearchIterations; i++ {
		mid := (lo + hi) / 2
		q, err := Quote(pool, mid, sellToken)
		if err != nil || q.PriceImpact > target {
			hi = mid
			continue
		}
		lo = mid
	}
	return lo, nil
}

// InitialBound is the upper end of the MaxSellUnder search interval.
func InitialBound(pool model.PoolSnapshot, sellToken string) float64 {
	in, _, err := sides(&pool, sellToken)
	if err != nil {
		return math.Max(pool.Base.ReserveEstimate, pool.Quote.ReserveEstimate)
	}
	return in.ReserveEstimate
}

package amm

import (
	"fmt"
	"math"

	"sellImpact/internal/model"
)

// SplitCompare sells total in parts equal sequential fills. Each fill is quoted
// against a private copy of the snapshot, whose reserves then move by the fill
// (reserveIn += effectiveIn, reserveOut -= out).
//
// Every fill preserves reserveIn*reserveOut, so for parts > 1 the output equals
// the parts = 1 output up to float rounding and may come out a few ulp lower.
// Callers must not expect strict monotonicity in parts.
//
// OutAmountUSD values the aggregate output at the out-side USD price of the
// copy after the last fill, not at a per-fill price.
func SplitCompare(pool model.PoolSnapshot, sellToken string, total float64, parts int) (model.SplitResult, error) {
	if parts < 1 {
		return model.SplitResult{}, fmt.Errorf("%w: parts must be >= 1, got %d", model.ErrBadInput, parts)
	}
	if math.IsNaN(total) || math.IsInf(total, 0) || total <= 0 {
		return model.SplitResult{}, fmt.Errorf("%w: total must be positive, got %v", model.ErrBadInput, total)
	}

	// PoolSnapshot holds no references, so assignment is a deep copy.
	current := pool
	in, out, err := sides(&current, sellToken)
	if err != nil {
		return model.SplitResult{}, err
	}

	per := total / float64(parts)
	var sum float64
	for i := 0; i < parts; i++ {
		q, err := quoteSides(*in, *out, current.FeeFraction(), per)
		if err != nil {
			return model.SplitResult{}, fmt.Errorf("fill %d/%d: %w", i+1, parts, err)
		}
		sum += q.OutAmount
		in.ReserveEstimate += q.EffectiveIn
		out.ReserveEstimate -= q.OutAmount
	}

	var usd float64
	if out.PriceUSD > 0 {
		usd = sum * out.PriceUSD
	}
	return model.SplitResult{
		Parts:        parts,
		TotalIn:      total,
		OutAmount:    sum,
		OutAmountUSD: usd,
		OutSide:      out.Symbol,
	}, nil
}

// Package amm models swaps against constant-product (x*y=k) pools.
package amm

import (
	"fmt"
	"math"

	"sellImpact/internal/model"
)

// sides resolves which asset is sold into the pool.
func sides(pool *model.PoolSnapshot, sellToken string) (in, out *model.Asset, err error) {
	switch {
	case model.SameAddress(pool.Base.Address, sellToken):
		return &pool.Base, &pool.Quote, nil
	case model.SameAddress(pool.Quote.Address, sellToken):
		return &pool.Quote, &pool.Base, nil
	default:
		return nil, nil, fmt.Errorf("%w: token %s is not in pool %s", model.ErrBadInput, sellToken, pool.Address)
	}
}

// Quote prices selling sellAmount of sellToken into the pool.
//
// The fee is taken from the input before it reaches the curve:
//
//	effectiveIn = sellAmount * (1 - fee)
//	out         = reserveOut * effectiveIn / (reserveIn + effectiveIn)
//	impact      = 1 - priceAfter / priceBefore
func Quote(pool model.PoolSnapshot, sellAmount float64, sellToken string) (model.Quote, error) {
	in, out, err := sides(&pool, sellToken)
	if err != nil {
		return model.Quote{}, err
	}
	return quoteSides(*in, *out, pool.FeeFraction(), sellAmount)
}

func quoteSides(in, out model.Asset, fee, sellAmount float64) (model.Quote, error) {
	if math.IsNaN(sellAmount) || math.IsInf(sellAmount, 0) || sellAmount <= 0 {
		return model.Quote{}, fmt.Errorf("%w: sell amount must be positive, got %v", model.ErrBadInput, sellAmount)
	}
	reserveIn := in.ReserveEstimate
	reserveOut := out.ReserveEstimate
	if !(reserveIn > 0) || !(reserveOut > 0) {
		return model.Quote{}, fmt.Errorf("%w: reserves %s=%v %s=%v", model.ErrNoLiquidity, in.Symbol, reserveIn, out.Symbol, reserveOut)
	}

	effectiveIn := sellAmount * (1 - fee)
	amountOut := reserveOut * effectiveIn / (reserveIn + effectiveIn)
	priceBefore := reserveOut / reserveIn
	priceAfter := (reserveOut - amountOut) / (reserveIn + effectiveIn)

	var outUSD float64
	if out.PriceUSD > 0 {
		outUSD = amountOut * out.PriceUSD
	}

	return model.Quote{
		InSide:       in.Symbol,
		OutSide:      out.Symbol,
		InAmount:     sellAmount,
		OutAmount:    amountOut,
		OutAmountUSD: outUSD,
		PriceImpact:  1 - priceAfter/priceBefore,
		FeeFraction:  fee,
		EffectiveIn:  effectiveIn,
		PriceBefore:  priceBefore,
		PriceAfter:   priceAfter,
		AvgPrice:     amountOut / sellAmount,
	}, nil
}

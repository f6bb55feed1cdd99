package geckoterminal

import (
	"strings"

	"sellImpact/internal/model"
	"sellImpact/internal/reserve"
)

func toPool(network string, res poolResource) model.Pool {
	attrs := res.Attributes

	address := strings.ToLower(strings.TrimSpace(attrs.Address))
	if address == "" {
		address = addressFromID(network, res.ID)
	}

	fee, feeSource := reserve.ResolveFee(attrs.PoolFeePercentage.ptr(), attrs.Name)

	pool := model.Pool{
		Address:      address,
		Label:        attrs.Name,
		FeeBps:       fee,
		FeeSource:    feeSource,
		ReserveUSD:   attrs.ReserveInUSD.orZero(),
		Volume24hUSD: attrs.VolumeUSD.H24.orZero(),
		DexID:        res.Relationships.Dex.id(),
		Base: model.Asset{
			Address:  addressFromID(network, res.Relationships.BaseToken.id()),
			PriceUSD: attrs.BaseTokenPriceUSD.orZero(),
		},
		Quote: model.Asset{
			Address:  addressFromID(network, res.Relationships.QuoteToken.id()),
			PriceUSD: attrs.QuoteTokenPriceUSD.orZero(),
		},
	}
	if pair, ok := reserve.ParsePairName(attrs.Name); ok {
		pool.Base.Symbol = pair.Base
		pool.Quote.Symbol = pair.Quote
	}
	if pool.Label == "" {
		pool.Label = address
	}
	return pool
}

// addressFromID decodes "{network}_{address}" resource ids.
func addressFromID(network, id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(id, network+"_"); ok {
		return strings.ToLower(rest)
	}
	if idx := strings.LastIndex(id, "_"); idx >= 0 {
		return strings.ToLower(id[idx+1:])
	}
	return strings.ToLower(id)
}

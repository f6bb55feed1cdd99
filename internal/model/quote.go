package model

// Quote is the result of a single constant-product swap quote.
type Quote struct {
	InSide       string  `json:"in_side"`
	OutSide      string  `json:"out_side"`
	InAmount     float64 `json:"in_amount"`
	OutAmount    float64 `json:"out_amount"`
	OutAmountUSD float64 `json:"out_amount_usd"`
	PriceImpact  float64 `json:"price_impact"`
	FeeFraction  float64 `json:"fee_fraction"`
	EffectiveIn  float64 `json:"effective_in"`
	PriceBefore  float64 `json:"price_before"`
	PriceAfter   float64 `json:"price_after"`
	AvgPrice     float64 `json:"avg_price"`
}

// SplitResult is the aggregate output of a split sell simulation.
type SplitResult struct {
	Parts        int     `json:"parts"`
	TotalIn      float64 `json:"total_in"`
	OutAmount    float64 `json:"out_amount"`
	OutAmountUSD float64 `json:"out_amount_usd"`
	OutSide      string  `json:"out_side"`
}

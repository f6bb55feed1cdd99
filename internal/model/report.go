package model

// Report is the normalized output record written by the CLI.
type Report struct {
	Kind         string `json:"kind"`
	Network      string `json:"network"`
	PoolAddress  string `json:"pool_address"`
	PoolLabel    string `json:"pool_label"`
	Token        string `json:"token"`
	Amount       string `json:"amount,omitempty"`
	Parts        int    `json:"parts,omitempty"`
	TargetImpact string `json:"target_impact,omitempty"`
	OutAmount    string `json:"out_amount,omitempty"`
	OutSymbol    string `json:"out_symbol,omitempty"`
	OutAmountUSD string `json:"out_amount_usd,omitempty"`
	PriceImpact  string `json:"price_impact,omitempty"`
	InlineRisk   string `json:"inline_risk,omitempty"`
	SummaryRisk  string `json:"summary_risk,omitempty"`
	CreatedAt    string `json:"created_at"`
}

package geckoterminal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type poolListResponse struct {
	Data []poolResource `json:"data"`
}

type poolResponse struct {
	Data poolResource `json:"data"`
}

type poolResource struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Attributes    poolAttributes    `json:"attributes"`
	Relationships poolRelationships `json:"relationships"`
}

type poolAttributes struct {
	Address            string        `json:"address"`
	Name               string        `json:"name"`
	ReserveInUSD       optionalFloat `json:"reserve_in_usd"`
	VolumeUSD          volumeUSD     `json:"volume_usd"`
	PoolFeePercentage  optionalFloat `json:"pool_fee_percentage"`
	BaseTokenPriceUSD  optionalFloat `json:"base_token_price_usd"`
	QuoteTokenPriceUSD optionalFloat `json:"quote_token_price_usd"`
}

type volumeUSD struct {
	H24 optionalFloat `json:"h24"`
}

type poolRelationships struct {
	BaseToken  relationship `json:"base_token"`
	QuoteToken relationship `json:"quote_token"`
	Dex        relationship `json:"dex"`
}

type relationship struct {
	Data *relationshipData `json:"data"`
}

type relationshipData struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

func (r relationship) id() string {
	if r.Data == nil {
		return ""
	}
	return r.Data.ID
}

// optionalFloat accepts JSON numbers, numeric strings and null. The index
// encodes most decimals as strings.
type optionalFloat struct {
	Value float64
	Valid bool
}

func (f *optionalFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = optionalFloat{}
		return nil
	}

	text := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = optionalFloat{}
			return nil
		}
		text = s
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", text, err)
	}
	*f = optionalFloat{Value: v, Valid: true}
	return nil
}

func (f optionalFloat) ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

func (f optionalFloat) orZero() float64 {
	if !f.Valid {
		return 0
	}
	return f.Value
}
